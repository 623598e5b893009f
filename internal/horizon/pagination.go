// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package horizon

import (
	"net/url"
	"slices"
)

// SortDirection is the direction in which a paginated list is traversed.
type SortDirection string

const (
	// SortAscending is used when walking backwards from a `prev_marker`.
	SortAscending SortDirection = "asc"
	// SortDescending is the default direction (newest first).
	SortDescending SortDirection = "desc"
)

// IsValid returns whether this is one of the known sort directions.
func (d SortDirection) IsValid() bool {
	return d == SortAscending || d == SortDescending
}

// Names of the query parameters that carry the pagination cursor.
const (
	MarkerParam     = "marker"
	PrevMarkerParam = "prev_marker"
	SortDirParam    = "sort_dir"
)

// Identifiable is implemented by every resource that can appear in a
// paginated list. The ID is what gets used as a marker.
type Identifiable interface {
	GetID() string
}

// PageRequest describes which page of a list shall be retrieved.
type PageRequest struct {
	// Marker is the ID of the last (or, when walking backwards, first) item
	// of the previously displayed page. Empty for the first page.
	Marker        string
	SortDirection SortDirection
	PageSize      int
	// Filters contains server-side search options (e.g. "name", "status").
	Filters map[string]string
}

// ParsePageRequest reads the pagination cursor from the given query string,
// for a list that can be paged in both directions. A `prev_marker` takes
// precedence over a `marker`.
func ParsePageRequest(query url.Values, pageSize int, filterNames ...string) PageRequest {
	req := newPageRequest(query, pageSize, filterNames)
	if prevMarker := query.Get(PrevMarkerParam); prevMarker != "" {
		req.Marker = prevMarker
		req.SortDirection = SortAscending
	} else {
		req.Marker = query.Get(MarkerParam)
	}
	return req
}

// ParseForwardPageRequest is like ParsePageRequest, but for lists that can
// only be paged forwards. A `prev_marker` is ignored, so such a request
// starts over at the first page.
func ParseForwardPageRequest(query url.Values, pageSize int, filterNames ...string) PageRequest {
	req := newPageRequest(query, pageSize, filterNames)
	req.Marker = query.Get(MarkerParam)
	return req
}

func newPageRequest(query url.Values, pageSize int, filterNames []string) PageRequest {
	req := PageRequest{
		SortDirection: SortDescending,
		PageSize:      pageSize,
		Filters:       make(map[string]string),
	}
	for _, name := range filterNames {
		if value := query.Get(name); value != "" {
			req.Filters[name] = value
		}
	}
	return req
}

// WithExplicitSortDirection returns a copy of this request whose direction
// is overridden by a valid `sort_dir` in the given query string. Only the
// JSON API lets clients choose the direction like this.
func (r PageRequest) WithExplicitSortDirection(query url.Values) PageRequest {
	if dir := SortDirection(query.Get(SortDirParam)); dir.IsValid() {
		r.SortDirection = dir
	}
	return r
}

// FetchLimit returns how many items shall be requested from the backend. We
// ask for one more than fits on the page: otherwise we could not distinguish
// a full last page from a truncated one.
func (r PageRequest) FetchLimit() int {
	return r.PageSize + 1
}

// Filter returns the value of the given filter, or "" if it is not set.
func (r PageRequest) Filter(name string) string {
	return r.Filters[name]
}

// Page is one page of a list of resources.
type Page[T Identifiable] struct {
	Items []T
	// HasMore is true if another page exists beyond the end of this one.
	HasMore bool
	// HasPrev is true if another page exists before the start of this one.
	HasPrev bool
}

// NextMarker returns the marker for the "next" link, or "" if there is no
// next page.
func (p Page[T]) NextMarker() string {
	if !p.HasMore || len(p.Items) == 0 {
		return ""
	}
	return p.Items[len(p.Items)-1].GetID()
}

// PrevMarker returns the marker for the "previous" link, or "" if there is no
// previous page.
func (p Page[T]) PrevMarker() string {
	if !p.HasPrev || len(p.Items) == 0 {
		return ""
	}
	return p.Items[0].GetID()
}

// UpdatePagination post-processes the result of a list call that was issued
// with req.FetchLimit() for a backend that can page in both directions.
//
// When walking backwards (SortAscending), the backend returns the items in
// reverse display order, so they get reversed here.
func UpdatePagination[T Identifiable](items []T, req PageRequest) Page[T] {
	page := Page[T]{Items: items}

	switch {
	case len(items) > req.PageSize:
		// first or middle page
		page.Items = items[:req.PageSize]
		page.HasMore = true
		page.HasPrev = req.Marker != ""
	case req.SortDirection == SortAscending && req.Marker != "":
		// first page, reached by walking backwards
		page.HasMore = true
	case req.Marker != "":
		// last page
		page.HasPrev = true
	}

	if req.SortDirection == SortAscending {
		page.Items = slices.Clone(page.Items)
		slices.Reverse(page.Items)
	}
	return page
}

// PaginateNextOnly post-processes the result of a list call that was issued
// with req.FetchLimit() for a backend that can only page forwards.
func PaginateNextOnly[T Identifiable](items []T, req PageRequest) Page[T] {
	if len(items) > req.PageSize {
		return Page[T]{Items: items[:req.PageSize], HasMore: true}
	}
	return Page[T]{Items: items}
}

// FullListPage wraps the complete result of a list call for a backend that
// does not support server-side paging at all.
func FullListPage[T Identifiable](items []T) Page[T] {
	return Page[T]{Items: items}
}
