// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sapcc/go-api-declarations/cadf"
	"github.com/sapcc/go-bits/logg"

	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/sessions"
)

// This file contains helpers that are shared between the panels.

////////////////////////////////////////////////////////////////////////////////
// detail pages

// DetailField is a row of templates/detail.html.
type DetailField struct {
	Label string
	Value string
	Link  string
}

// DetailPage is the view model for templates/detail.html.
type DetailPage struct {
	Fields  []DetailField
	BackURL string
}

////////////////////////////////////////////////////////////////////////////////
// batch actions

type batchDelete struct {
	Rule string
	// Noun is the human-readable name of the resource type, e.g. "Volume".
	Noun      string
	AuditType string
	// RedirectTo is the list view of the respective panel.
	RedirectTo string
	Delete     func(ctx context.Context, b horizon.Backend, id string) error
}

// handleBatchDelete deletes every resource whose ID was submitted in the
// "id" form field. Failures for single resources do not abort the others.
// The results are reported in one success and one error message.
func (a *API) handleBatchDelete(w http.ResponseWriter, r *http.Request, bd batchDelete) {
	rc := a.authenticateWithRules(w, r, bd.Rule)
	if rc == nil {
		return
	}
	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ids := r.PostForm["id"]
	if len(ids) == 0 {
		rc.Session.AddMessage(sessions.LevelWarning, "No %s selected.", strings.ToLower(bd.Noun))
		a.redirect(w, r, rc, bd.RedirectTo)
		return
	}

	var (
		deleted []string
		failed  []string
	)
	for _, id := range ids {
		err := bd.Delete(r.Context(), rc.Backend, id)
		if err != nil {
			a.reportError(r, err, fmt.Sprintf("Unable to delete %s %q", strings.ToLower(bd.Noun), id))
			failed = append(failed, id)
			continue
		}
		deleted = append(deleted, id)
		a.recordAuditEvent(r, rc, cadf.DeleteAction, horizon.AuditResource{
			TypeURI: bd.AuditType,
			ID:      id,
		})
	}

	if len(deleted) > 0 {
		rc.Session.AddMessage(sessions.LevelSuccess, "Scheduled deletion of %s: %s", plural(bd.Noun, len(deleted)), strings.Join(deleted, ", "))
	}
	if len(failed) > 0 {
		rc.Session.AddMessage(sessions.LevelError, "Unable to delete %s: %s", plural(bd.Noun, len(failed)), strings.Join(failed, ", "))
	}
	a.redirect(w, r, rc, bd.RedirectTo)
}

// reportError is the part of handleError that does not involve the session.
func (a *API) reportError(r *http.Request, err error, message string) {
	logg.Error("%s: %s", message, err.Error())
	backendErrorsCounter.With(prometheus.Labels{"panel": panelOf(r)}).Inc()
}

////////////////////////////////////////////////////////////////////////////////
// formatting

func plural(noun string, count int) string {
	if count == 1 {
		return noun
	}
	return noun + "s"
}

func formatBool(val bool) string {
	if val {
		return "Yes"
	}
	return "No"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.DateTime)
}

func formatGiB(size int) string {
	return strconv.Itoa(size) + " GiB"
}

// detailURL builds the path of a detail view, e.g. "/project/volumes/vol-1/".
func detailURL(listPath, id string) string {
	return listPath + url.PathEscape(id) + "/"
}
