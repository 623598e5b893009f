// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

// Package api contains the JSON API that mirrors the list views of the
// dashboard. It is used by client-side scripts that page through long lists
// without reloading the page.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sapcc/go-bits/httpapi"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/respondwith"

	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/sessions"
)

// API contains state variables used by the JSON API implementation.
type API struct {
	cfg  horizon.Configuration
	auth sessions.Authenticator
}

// NewAPI constructs a new API instance.
func NewAPI(cfg horizon.Configuration, ad horizon.AuthDriver, bd horizon.BackendDriver, store sessions.Store) *API {
	return &API{
		cfg: cfg,
		auth: sessions.Authenticator{
			Store:         store,
			AuthDriver:    ad,
			BackendDriver: bd,
		},
	}
}

// AddTo implements the httpapi.API interface.
func (a *API) AddTo(r *mux.Router) {
	r.Methods("GET").Path("/api/{service}/{resource}/").HandlerFunc(a.handleList)
}

// ListResponse is the response body of all list endpoints.
type ListResponse struct {
	Items       any  `json:"items"`
	HasMoreData bool `json:"has_more_data"`
	HasPrevData bool `json:"has_prev_data"`
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	service := mux.Vars(r)["service"]
	resource := mux.Vars(r)["resource"]
	lister, exists := listers[service+"/"+resource]
	if !exists {
		httpapi.IdentifyEndpoint(r, "/api/:service/:resource/")
		http.Error(w, fmt.Sprintf("no such resource: %s/%s", service, resource), http.StatusNotFound)
		return
	}
	httpapi.IdentifyEndpoint(r, fmt.Sprintf("/api/%s/%s/", service, resource))

	uc, err := a.auth.Authenticate(w, r)
	if errors.Is(err, sessions.ErrNotLoggedIn) {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}
	if respondwith.ErrorText(w, err) {
		return
	}
	if !uc.Token.Require(w, lister.Rule) {
		return
	}

	pageSize, err := a.pageSize(r, uc.Session)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	query := r.URL.Query()
	var req horizon.PageRequest
	if lister.ForwardOnly {
		req = horizon.ParseForwardPageRequest(query, pageSize, lister.Filters...)
	} else {
		req = horizon.ParsePageRequest(query, pageSize, lister.Filters...).WithExplicitSortDirection(query)
	}
	resp, err := lister.List(r.Context(), uc.Backend, req)
	if err != nil {
		logg.Error("while listing %s/%s: %s", service, resource, err.Error())
		backendErrorsCounter.With(prometheus.Labels{"service": service}).Inc()
		status := http.StatusInternalServerError
		if errors.Is(err, horizon.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	// the session is not modified here, so it does not need to be saved
	respondwith.JSON(w, http.StatusOK, resp)
}

// pageSize takes the page size from the optional "limit" query parameter,
// falling back to the user's chosen page size.
func (a *API) pageSize(r *http.Request, sess *sessions.Session) (int, error) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return a.cfg.ClampPageSize(sess.PageSize), nil
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid value for limit: %q", limitStr)
	}
	return a.cfg.ClampPageSize(limit), nil
}
