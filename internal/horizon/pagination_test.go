// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package horizon

import (
	"net/url"
	"testing"

	"github.com/sapcc/go-bits/assert"
)

type item string

func (i item) GetID() string { return string(i) }

func items(ids ...string) []item {
	result := make([]item, len(ids))
	for idx, id := range ids {
		result[idx] = item(id)
	}
	return result
}

func TestParsePageRequest(t *testing.T) {
	testCases := []struct {
		query    string
		expected PageRequest
	}{
		{"", PageRequest{SortDirection: SortDescending, PageSize: 20, Filters: map[string]string{}}},
		{"marker=a", PageRequest{Marker: "a", SortDirection: SortDescending, PageSize: 20, Filters: map[string]string{}}},
		{"prev_marker=b", PageRequest{Marker: "b", SortDirection: SortAscending, PageSize: 20, Filters: map[string]string{}}},
		// prev_marker wins over marker
		{"marker=a&prev_marker=b", PageRequest{Marker: "b", SortDirection: SortAscending, PageSize: 20, Filters: map[string]string{}}},
		// sort_dir is only honoured through WithExplicitSortDirection
		{"marker=a&sort_dir=asc", PageRequest{Marker: "a", SortDirection: SortDescending, PageSize: 20, Filters: map[string]string{}}},
		// only known filters are picked up, and empty values are ignored
		{"name=foo&status=&owner=bar", PageRequest{SortDirection: SortDescending, PageSize: 20, Filters: map[string]string{"name": "foo"}}},
	}
	for _, tc := range testCases {
		query, err := url.ParseQuery(tc.query)
		if err != nil {
			t.Fatal(err.Error())
		}
		actual := ParsePageRequest(query, 20, "name", "status")
		assert.DeepEqual(t, "PageRequest for "+tc.query, actual, tc.expected)
	}
}

func TestParseForwardPageRequest(t *testing.T) {
	testCases := []struct {
		query          string
		expectedMarker string
	}{
		{"", ""},
		{"marker=a", "a"},
		// lists that only page forwards start over instead of walking backwards
		{"prev_marker=b", ""},
		{"marker=a&prev_marker=b", "a"},
		{"marker=a&sort_dir=asc", "a"},
	}
	for _, tc := range testCases {
		query, err := url.ParseQuery(tc.query)
		if err != nil {
			t.Fatal(err.Error())
		}
		actual := ParseForwardPageRequest(query, 20, "prefix")
		assert.DeepEqual(t, "PageRequest for "+tc.query, actual, PageRequest{
			Marker:        tc.expectedMarker,
			SortDirection: SortDescending,
			PageSize:      20,
			Filters:       map[string]string{},
		})
	}
}

func TestWithExplicitSortDirection(t *testing.T) {
	testCases := []struct {
		query    string
		expected SortDirection
	}{
		{"marker=a", SortDescending},
		{"marker=a&sort_dir=asc", SortAscending},
		{"prev_marker=a&sort_dir=desc", SortDescending},
		{"prev_marker=a", SortAscending},
		// unknown values are ignored
		{"marker=a&sort_dir=sideways", SortDescending},
	}
	for _, tc := range testCases {
		query, err := url.ParseQuery(tc.query)
		if err != nil {
			t.Fatal(err.Error())
		}
		actual := ParsePageRequest(query, 20).WithExplicitSortDirection(query)
		assert.DeepEqual(t, "SortDirection for "+tc.query, actual.SortDirection, tc.expected)
		assert.DeepEqual(t, "Marker for "+tc.query, actual.Marker, "a")
	}
}

func TestFetchLimit(t *testing.T) {
	assert.DeepEqual(t, "FetchLimit", PageRequest{PageSize: 20}.FetchLimit(), 21)
}

func TestUpdatePagination(t *testing.T) {
	desc := func(marker string) PageRequest {
		return PageRequest{Marker: marker, SortDirection: SortDescending, PageSize: 2}
	}
	asc := func(marker string) PageRequest {
		return PageRequest{Marker: marker, SortDirection: SortAscending, PageSize: 2}
	}

	testCases := []struct {
		description string
		items       []item
		req         PageRequest
		expected    Page[item]
	}{
		{"empty list", nil, desc(""), Page[item]{}},
		{"single page", items("a", "b"), desc(""), Page[item]{Items: items("a", "b")}},
		{"first of several pages", items("a", "b", "c"), desc(""), Page[item]{Items: items("a", "b"), HasMore: true}},
		{"middle page", items("c", "d", "e"), desc("b"), Page[item]{Items: items("c", "d"), HasMore: true, HasPrev: true}},
		{"last page", items("e"), desc("d"), Page[item]{Items: items("e"), HasPrev: true}},
		{"last page with exactly page size items", items("d", "e"), desc("c"), Page[item]{Items: items("d", "e"), HasPrev: true}},
		// when walking backwards, the backend returns items in reverse order
		{"middle page walking backwards", items("d", "c", "b"), asc("e"), Page[item]{Items: items("c", "d"), HasMore: true, HasPrev: true}},
		{"first page walking backwards", items("b", "a"), asc("c"), Page[item]{Items: items("a", "b"), HasMore: true}},
		{"partial first page walking backwards", items("a"), asc("b"), Page[item]{Items: items("a"), HasMore: true}},
	}
	for _, tc := range testCases {
		actual := UpdatePagination(tc.items, tc.req)
		assert.DeepEqual(t, tc.description, actual, tc.expected)
	}
}

func TestUpdatePaginationDoesNotModifyInput(t *testing.T) {
	input := items("d", "c", "b")
	UpdatePagination(input, PageRequest{Marker: "e", SortDirection: SortAscending, PageSize: 2})
	assert.DeepEqual(t, "input", input, items("d", "c", "b"))
}

func TestPaginateNextOnly(t *testing.T) {
	req := PageRequest{Marker: "a", SortDirection: SortDescending, PageSize: 2}
	assert.DeepEqual(t, "full page", PaginateNextOnly(items("b", "c", "d"), req),
		Page[item]{Items: items("b", "c"), HasMore: true})
	assert.DeepEqual(t, "last page", PaginateNextOnly(items("b"), req),
		Page[item]{Items: items("b")})
}

func TestMarkers(t *testing.T) {
	page := Page[item]{Items: items("b", "c"), HasMore: true, HasPrev: true}
	assert.DeepEqual(t, "NextMarker", page.NextMarker(), "c")
	assert.DeepEqual(t, "PrevMarker", page.PrevMarker(), "b")

	page = FullListPage(items("a", "b"))
	assert.DeepEqual(t, "NextMarker of full list", page.NextMarker(), "")
	assert.DeepEqual(t, "PrevMarker of full list", page.PrevMarker(), "")

	page = Page[item]{HasMore: true, HasPrev: true}
	assert.DeepEqual(t, "NextMarker of empty page", page.NextMarker(), "")
	assert.DeepEqual(t, "PrevMarker of empty page", page.PrevMarker(), "")
}
