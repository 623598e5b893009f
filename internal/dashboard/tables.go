// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/sapcc/horizon/internal/horizon"
)

// Column describes one column of a Table.
type Column[T horizon.Identifiable] struct {
	Name  string
	Title string
	Value func(T) string
	// Link is optional. If it returns a non-empty string, the cell links there.
	Link func(T) string
}

// Action is a button or link that belongs to a Table.
type Action struct {
	Name  string
	Title string
	// Rules are the policy rules that the user must all pass for this action
	// to be shown. Empty for actions that are not guarded by policy.
	Rules []string
	// URL may contain the placeholder "{id}", which is replaced by the
	// escaped ID of the respective row (for row actions only).
	URL string
	// Method is either "GET" (rendered as a link) or "POST" (rendered as a
	// button that submits the table's form).
	Method string
	// Danger marks destructive actions for styling.
	Danger bool
}

func (a Action) render(id string) RenderedAction {
	return RenderedAction{
		Name:   a.Name,
		Title:  a.Title,
		URL:    strings.ReplaceAll(a.URL, "{id}", url.PathEscape(id)),
		IsPost: a.Method == http.MethodPost,
		Danger: a.Danger,
	}
}

// Table describes the list view of a panel.
type Table[T horizon.Identifiable] struct {
	Name    string
	Title   string
	Columns []Column[T]
	// RowActions are shown next to each row.
	RowActions []Action
	// BatchActions operate on all rows whose checkbox is ticked. They always
	// use POST and receive the selected IDs in the form field "id".
	BatchActions []Action
	// TableActions are shown above the table, e.g. "Create Volume".
	TableActions []Action
	// FilterFields are the query parameters that the filter form sets.
	FilterFields []string
}

// RenderedTable is the view model for templates/table.html.
type RenderedTable struct {
	Name         string
	Title        string
	Headers      []string
	Rows         []RenderedRow
	BatchActions []RenderedAction
	TableActions []RenderedAction
	Filters      []RenderedFilter
	// NextURL and PrevURL are empty if there is no such page.
	NextURL string
	PrevURL string
}

// RenderedRow is a row of a RenderedTable.
type RenderedRow struct {
	ID      string
	Cells   []RenderedCell
	Actions []RenderedAction
}

// RenderedCell is a cell of a RenderedTable.
type RenderedCell struct {
	Text string
	Link string
}

// RenderedAction is an Action that the user is allowed to use.
type RenderedAction struct {
	Name   string
	Title  string
	URL    string
	IsPost bool
	Danger bool
}

// RenderedFilter is a search field above a RenderedTable.
type RenderedFilter struct {
	Name  string
	Value string
}

// Render builds the view model for the given page of items.
func (t Table[T]) Render(r *http.Request, page horizon.Page[T], pc horizon.PolicyChecker) RenderedTable {
	result := RenderedTable{
		Name:         t.Name,
		Title:        t.Title,
		BatchActions: renderActions(t.BatchActions, pc, ""),
		TableActions: renderActions(t.TableActions, pc, ""),
	}
	for _, col := range t.Columns {
		result.Headers = append(result.Headers, col.Title)
	}

	for _, item := range page.Items {
		row := RenderedRow{
			ID:      item.GetID(),
			Actions: renderActions(t.RowActions, pc, item.GetID()),
		}
		for _, col := range t.Columns {
			cell := RenderedCell{Text: col.Value(item)}
			if col.Link != nil {
				cell.Link = col.Link(item)
			}
			row.Cells = append(row.Cells, cell)
		}
		result.Rows = append(result.Rows, row)
	}

	query := r.URL.Query()
	for _, name := range t.FilterFields {
		result.Filters = append(result.Filters, RenderedFilter{name, query.Get(name)})
	}

	if marker := page.NextMarker(); marker != "" {
		result.NextURL = pageURL(r.URL, horizon.MarkerParam, horizon.PrevMarkerParam, marker)
	}
	if marker := page.PrevMarker(); marker != "" {
		result.PrevURL = pageURL(r.URL, horizon.PrevMarkerParam, horizon.MarkerParam, marker)
	}
	return result
}

func renderActions(actions []Action, pc horizon.PolicyChecker, id string) []RenderedAction {
	var result []RenderedAction
	for _, a := range actions {
		if !horizon.CheckAll(pc, a.Rules...) {
			continue
		}
		result = append(result, a.render(id))
	}
	return result
}

// pageURL returns the given URL with the query parameter `set` set to the
// given marker, and the query parameter `unset` removed. All other query
// parameters (e.g. filters) are preserved.
func pageURL(u *url.URL, set, unset, marker string) string {
	query := u.Query()
	query.Set(set, marker)
	query.Del(unset)
	query.Del(horizon.SortDirParam)
	return (&url.URL{Path: u.Path, RawQuery: query.Encode()}).String()
}
