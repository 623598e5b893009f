// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"fmt"
	"net/http"

	"github.com/sapcc/go-bits/httpapi"

	"github.com/sapcc/horizon/internal/sessions"
)

const settingsPath = "/settings/"

type settingsForm struct {
	PageSize int `form:"page_size" label:"Items Per Page" validate:"required,min=1"`
}

func (a *API) handleSettings(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/settings/")
	rc := a.authenticate(w, r)
	if rc == nil {
		return
	}
	rf := RenderedForm{Title: "User Settings", SubmitLabel: "Save", CancelURL: "/"}

	form := settingsForm{PageSize: rc.PageSize}
	if r.Method == http.MethodGet {
		a.renderForm(w, r, rc, rf, &form, nil)
		return
	}
	errs, err := parseForm(r, &form)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, exists := errs["page_size"]; !exists && form.PageSize > a.cfg.MaxPageSize {
		errs["page_size"] = fmt.Sprintf("Enter a value of at most %d.", a.cfg.MaxPageSize)
	}
	if len(errs) > 0 {
		a.renderForm(w, r, rc, rf, &form, errs)
		return
	}

	rc.Session.PageSize = form.PageSize
	rc.Session.AddMessage(sessions.LevelSuccess, "Settings saved.")
	a.redirect(w, r, rc, settingsPath)
}
