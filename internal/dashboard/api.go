// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

// Package dashboard contains the server-rendered HTML views of the dashboard.
// Each panel (one resource type) has a list view, and some of them have
// detail views, forms and batch actions.
package dashboard

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sapcc/go-api-declarations/cadf"
	"github.com/sapcc/go-bits/audittools"
	"github.com/sapcc/go-bits/httpapi"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/respondwith"

	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/sessions"
)

var backendErrorsCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "horizon_backend_errors_total",
		Help: "Counter for errors returned by OpenStack APIs, by dashboard panel.",
	},
	[]string{"panel"},
)

func init() {
	prometheus.MustRegister(backendErrorsCounter)
}

// API contains state variables used by the dashboard views.
type API struct {
	cfg     horizon.Configuration
	ad      horizon.AuthDriver
	auth    sessions.Authenticator
	auditor horizon.Auditor
	pages   *pageRenderer
	// non-pure functions that can be replaced by deterministic doubles for unit tests
	timeNow func() time.Time
}

// NewAPI constructs a new API instance.
func NewAPI(cfg horizon.Configuration, ad horizon.AuthDriver, bd horizon.BackendDriver, store sessions.Store, auditor horizon.Auditor) *API {
	return &API{
		cfg: cfg,
		ad:  ad,
		auth: sessions.Authenticator{
			Store:         store,
			AuthDriver:    ad,
			BackendDriver: bd,
		},
		auditor: auditor,
		pages:   newPageRenderer(),
		timeNow: time.Now,
	}
}

// OverrideTimeNow replaces time.Now with a test double.
func (a *API) OverrideTimeNow(timeNow func() time.Time) *API {
	a.timeNow = timeNow
	return a
}

// AddTo implements the httpapi.API interface.
func (a *API) AddTo(r *mux.Router) {
	r.Methods("GET", "POST").Path("/auth/login/").HandlerFunc(a.handleLogin)
	r.Methods("POST").Path("/auth/logout/").HandlerFunc(a.handleLogout)
	r.Methods("GET").Path("/").HandlerFunc(a.handleIndex)

	r.Methods("GET").Path("/project/instances/").HandlerFunc(a.handleListInstances)
	r.Methods("POST").Path("/project/instances/delete").HandlerFunc(a.handleDeleteInstances)
	r.Methods("GET").Path("/project/instances/{id}/").HandlerFunc(a.handleShowInstance)
	r.Methods("POST").Path("/project/instances/{id}/reboot").HandlerFunc(a.handleRebootInstance)

	r.Methods("GET").Path("/project/volumes/").HandlerFunc(a.handleListVolumes)
	r.Methods("GET", "POST").Path("/project/volumes/create").HandlerFunc(a.handleCreateVolume)
	r.Methods("POST").Path("/project/volumes/delete").HandlerFunc(a.handleDeleteVolumes)
	r.Methods("GET").Path("/project/volumes/{id}/").HandlerFunc(a.handleShowVolume)
	r.Methods("GET", "POST").Path("/project/volumes/{id}/create_snapshot").HandlerFunc(a.handleCreateSnapshot)
	r.Methods("GET", "POST").Path("/project/volumes/{id}/create_backup").HandlerFunc(a.handleCreateBackup)

	r.Methods("GET").Path("/project/snapshots/").HandlerFunc(a.handleListSnapshots)
	r.Methods("POST").Path("/project/snapshots/delete").HandlerFunc(a.handleDeleteSnapshots)

	r.Methods("GET").Path("/project/images/").HandlerFunc(a.handleListImages)
	r.Methods("POST").Path("/project/images/delete").HandlerFunc(a.handleDeleteImages)
	r.Methods("GET").Path("/project/images/{id}/").HandlerFunc(a.handleShowImage)

	r.Methods("GET").Path("/project/containers/").HandlerFunc(a.handleListContainers)
	r.Methods("GET", "POST").Path("/project/containers/create").HandlerFunc(a.handleCreateContainer)
	r.Methods("POST").Path("/project/containers/delete").HandlerFunc(a.handleDeleteContainers)
	r.Methods("GET").Path("/project/containers/{container}/").HandlerFunc(a.handleListObjects)

	r.Methods("GET").Path("/project/networks/").HandlerFunc(a.handleListNetworks)
	r.Methods("GET").Path("/project/networks/{id}/").HandlerFunc(a.handleShowNetwork)

	r.Methods("GET").Path("/identity/users/").HandlerFunc(a.handleListUsers)
	r.Methods("GET").Path("/identity/users/{id}/").HandlerFunc(a.handleShowUser)
	r.Methods("GET").Path("/identity/projects/").HandlerFunc(a.handleListProjects)

	r.Methods("GET", "POST").Path("/settings/").HandlerFunc(a.handleSettings)
}

////////////////////////////////////////////////////////////////////////////////
// authentication and authorization

// requestContext is the per-request state of an authenticated view.
type requestContext struct {
	*sessions.UserContext
	// PageSize is the user's chosen page size, clamped to the configured bounds.
	PageSize int
}

// authenticate returns nil (after writing a response) if the request does not
// belong to a logged-in user.
func (a *API) authenticate(w http.ResponseWriter, r *http.Request) *requestContext {
	uc, err := a.auth.Authenticate(w, r)
	if errors.Is(err, sessions.ErrNotLoggedIn) {
		target := "/auth/login/?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
		http.Redirect(w, r, target, http.StatusSeeOther)
		return nil
	}
	if respondwith.ErrorText(w, err) {
		return nil
	}
	return &requestContext{
		UserContext: uc,
		PageSize:    a.cfg.ClampPageSize(uc.Session.PageSize),
	}
}

// authenticateWithRules is like authenticate, but also renders a 403 page if
// any of the given policy rules fails.
func (a *API) authenticateWithRules(w http.ResponseWriter, r *http.Request, rules ...string) *requestContext {
	rc := a.authenticate(w, r)
	if rc == nil {
		return nil
	}
	if !horizon.CheckAll(rc.Token, rules...) {
		logg.Debug("policy rules %v denied for %s@%s", rules, rc.Session.UserName, rc.Session.UserDomainName)
		a.renderErrorPage(w, r, rc, http.StatusForbidden, "You are not authorized to access this page.")
		return nil
	}
	return rc
}

////////////////////////////////////////////////////////////////////////////////
// error handling

// handleError is the catch-all for errors returned by OpenStack: the error is
// logged and counted, and the user sees the given message on the next
// rendered page. If redirectTo is empty, the caller continues rendering its
// page with whatever data it has. Otherwise, the user is redirected there.
func (a *API) handleError(w http.ResponseWriter, r *http.Request, rc *requestContext, err error, message, redirectTo string) {
	a.reportError(r, err, message)
	rc.Session.AddMessage(sessions.LevelError, message)
	if redirectTo != "" {
		a.redirect(w, r, rc, redirectTo)
	}
}

// handleDetailError renders a 404 page for horizon.ErrNotFound, and goes
// through handleError otherwise.
func (a *API) handleDetailError(w http.ResponseWriter, r *http.Request, rc *requestContext, err error, message, redirectTo string) {
	if errors.Is(err, horizon.ErrNotFound) {
		a.renderErrorPage(w, r, rc, http.StatusNotFound, message)
		return
	}
	a.handleError(w, r, rc, err, message, redirectTo)
}

// panelOf returns the panel name for the given request path, e.g. "volumes"
// for "/project/volumes/vol-1/".
func panelOf(r *http.Request) string {
	fields := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(fields) >= 2:
		return fields[1]
	case len(fields) == 1 && fields[0] != "":
		return fields[0]
	default:
		return "none"
	}
}

// redirect persists the session (to keep the flash messages) and redirects.
func (a *API) redirect(w http.ResponseWriter, r *http.Request, rc *requestContext, target string) {
	err := a.auth.Store.Save(w, r, rc.Session)
	if respondwith.ErrorText(w, err) {
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

////////////////////////////////////////////////////////////////////////////////
// auditing

func (a *API) recordAuditEvent(r *http.Request, rc *requestContext, action cadf.Action, target horizon.AuditResource) {
	if target.ProjectID == "" {
		target.ProjectID = rc.Token.ProjectScopeUUID()
	}
	a.auditor.Record(audittools.EventParameters{
		Time:       a.timeNow(),
		Request:    r,
		User:       rc.Token,
		ReasonCode: http.StatusOK,
		Action:     action,
		Target:     target,
	})
}

////////////////////////////////////////////////////////////////////////////////
// navigation

type panel struct {
	Dashboard string
	Name      string
	Title     string
	Path      string
	// Rule is the policy rule that the user must pass to see this panel.
	// Empty for panels that every user can see.
	Rule string
}

var panels = []panel{
	{"Project", "instances", "Instances", "/project/instances/", horizon.RuleListServers},
	{"Project", "volumes", "Volumes", "/project/volumes/", horizon.RuleListVolumes},
	{"Project", "snapshots", "Volume Snapshots", "/project/snapshots/", horizon.RuleListSnapshots},
	{"Project", "images", "Images", "/project/images/", horizon.RuleListImages},
	{"Project", "containers", "Containers", "/project/containers/", horizon.RuleListContainers},
	{"Project", "networks", "Networks", "/project/networks/", horizon.RuleListNetworks},
	{"Identity", "users", "Users", "/identity/users/", horizon.RuleListUsers},
	{"Identity", "projects", "Projects", "/identity/projects/", horizon.RuleListProjects},
	{"Settings", "settings", "User Settings", "/settings/", ""},
}

func visiblePanels(pc horizon.PolicyChecker) []panel {
	var result []panel
	for _, p := range panels {
		if p.Rule == "" || pc.Check(p.Rule) {
			result = append(result, p)
		}
	}
	return result
}

func (a *API) handleIndex(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/")
	rc := a.authenticate(w, r)
	if rc == nil {
		return
	}
	// the settings panel is always visible, so this list is never empty
	http.Redirect(w, r, visiblePanels(rc.Token)[0].Path, http.StatusSeeOther)
}
