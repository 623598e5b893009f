// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/sapcc/go-bits/httpapi"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/respondwith"

	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/sessions"
)

const loginPath = "/auth/login/"

// LoginPage is the view model for templates/login.html.
type LoginPage struct {
	UserName    string
	DomainName  string
	ProjectName string
	Next        string
	Error       string
}

type loginForm struct {
	UserName    string `form:"username" validate:"required"`
	Password    string `form:"password" validate:"required"`
	DomainName  string `form:"domain" validate:"required"`
	ProjectName string `form:"project"`
	Next        string `form:"next"`
}

// safeRedirectTarget only accepts local paths as redirect targets after
// login. Everything else falls back to the index page.
func safeRedirectTarget(next string) string {
	// browsers strip tabs and newlines and treat backslashes like slashes, so
	// "/\t/evil.example.com" would become a protocol-relative URL
	if strings.ContainsFunc(next, func(r rune) bool { return r == '\\' || unicode.IsControl(r) }) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return "/"
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	return next
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/auth/login/")
	render := func(status int, page LoginPage) {
		a.render(w, r, nil, status, pageLogin, "Log In", page)
	}

	if r.Method == http.MethodGet {
		render(http.StatusOK, LoginPage{
			DomainName: "Default",
			Next:       r.URL.Query().Get("next"),
		})
		return
	}

	var form loginForm
	errs, err := parseForm(r, &form)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	page := LoginPage{
		UserName:    form.UserName,
		DomainName:  form.DomainName,
		ProjectName: form.ProjectName,
		Next:        form.Next,
	}
	if len(errs) > 0 {
		page.Error = "Please enter your user name, password and domain."
		render(http.StatusUnprocessableEntity, page)
		return
	}

	result, err := a.ad.Login(r.Context(), horizon.Credentials{
		UserName:       form.UserName,
		UserDomainName: form.DomainName,
		Password:       form.Password,
		ProjectName:    form.ProjectName,
	})
	if err != nil {
		if errors.Is(err, horizon.ErrInvalidCredentials) {
			logg.Info("login failed for %s@%s: %s", form.UserName, form.DomainName, err.Error())
			page.Error = "Invalid credentials."
			render(http.StatusUnauthorized, page)
		} else {
			logg.Error("login failed for %s@%s: %s", form.UserName, form.DomainName, err.Error())
			page.Error = "An error occurred authenticating. Please try again later."
			render(http.StatusServiceUnavailable, page)
		}
		return
	}

	sess := sessions.New(result, form.DomainName)
	err = a.auth.Store.Save(w, r, sess)
	if respondwith.ErrorText(w, err) {
		return
	}
	logg.Info("login successful for %s@%s", result.UserName, form.DomainName)
	http.Redirect(w, r, safeRedirectTarget(form.Next), http.StatusSeeOther)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/auth/logout/")
	sess, err := a.auth.Store.Load(r)
	if respondwith.ErrorText(w, err) {
		return
	}
	if sess != nil {
		err := a.ad.Logout(r.Context(), sess.TokenID)
		if err != nil {
			// the session is destroyed anyway, so the user is logged out either way
			logg.Error("while revoking token of %s@%s: %s", sess.UserName, sess.UserDomainName, err.Error())
		}
		err = a.auth.Store.Delete(w, r, sess)
		if respondwith.ErrorText(w, err) {
			return
		}
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}
