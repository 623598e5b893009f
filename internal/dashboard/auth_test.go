// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/sessions"
	"github.com/sapcc/horizon/internal/test"
)

func loginForm(next string) url.Values {
	return url.Values{
		"username": {test.UserName},
		"password": {test.UserPassword},
		"domain":   {test.UserDomainName},
		"next":     {next},
	}
}

func TestLoginAndLogout(t *testing.T) {
	for _, backend := range []string{horizon.CookieSessionBackend, horizon.DatabaseSessionBackend} {
		t.Run(backend, func(t *testing.T) {
			s := test.NewSetup(t, test.WithSessionBackend(backend))
			b := s.NewBrowser(t)

			b.Get("/auth/login/?next=/project/volumes/").ExpectStatus(t, http.StatusOK).
				ExpectHTML(t, `<input type="hidden" name="next" value="/project/volumes/">`)
			b.PostForm("/auth/login/", loginForm("/project/volumes/")).
				ExpectRedirect(t, "/project/volumes/")
			if !b.HasCookie(sessions.CookieName) {
				t.Fatal("expected session cookie after login")
			}
			b.Get("/project/volumes/").ExpectStatus(t, http.StatusOK).
				ExpectText(t, "alice@Default (demo)")

			b.PostForm("/auth/logout/", url.Values{}).ExpectRedirect(t, "/auth/login/")
			if b.HasCookie(sessions.CookieName) {
				t.Error("expected session cookie to be removed after logout")
			}
			b.Get("/project/volumes/").ExpectRedirect(t, "/auth/login/?next=%2Fproject%2Fvolumes%2F")
		})
	}
}

func TestLoginFailures(t *testing.T) {
	s := test.NewSetup(t)
	b := s.NewBrowser(t)

	form := loginForm("/")
	form.Set("password", "wrong")
	b.PostForm("/auth/login/", form).ExpectStatus(t, http.StatusUnauthorized).
		ExpectText(t, "Invalid credentials.").
		ExpectHTML(t, `name="username" value="alice"`)

	form.Del("password")
	b.PostForm("/auth/login/", form).ExpectStatus(t, http.StatusUnprocessableEntity).
		ExpectText(t, "Please enter your user name, password and domain.")

	s.AuthDriver.LoginError = errors.New("Keystone is down")
	b.PostForm("/auth/login/", loginForm("/")).ExpectStatus(t, http.StatusServiceUnavailable).
		ExpectText(t, "An error occurred authenticating. Please try again later.")
	if b.HasCookie(sessions.CookieName) {
		t.Error("expected no session cookie after failed logins")
	}
}

func TestLoginDoesNotRedirectOffsite(t *testing.T) {
	s := test.NewSetup(t)
	b := s.NewBrowser(t)

	offsite := []string{
		"https://evil.example.com/",
		"//evil.example.com/",
		"/\\evil.example.com/",
		"/\t/evil.example.com",
		"/\t\\evil.example.com",
		"/\n/evil.example.com",
		"/%2F/evil.example.com",
		"javascript:alert(1)",
		"",
		"project",
	}
	for _, next := range offsite {
		b.PostForm("/auth/login/", loginForm(next)).ExpectRedirect(t, "/")
	}

	// local paths with a query are kept
	b.PostForm("/auth/login/", loginForm("/project/volumes/?marker=v2")).
		ExpectRedirect(t, "/project/volumes/?marker=v2")
}

func TestRevokedTokenEndsSession(t *testing.T) {
	s := test.NewSetup(t)
	b := s.LoggedInBrowser(t)
	b.Get("/project/volumes/").ExpectStatus(t, http.StatusOK)

	s.AuthDriver.RevokeAllTokens()
	b.Get("/project/volumes/").ExpectRedirect(t, "/auth/login/?next=%2Fproject%2Fvolumes%2F")
	if b.HasCookie(sessions.CookieName) {
		t.Error("expected session cookie to be removed after token revocation")
	}
}

func TestSessionExpiry(t *testing.T) {
	s := test.NewSetup(t)
	b := s.LoggedInBrowser(t)

	// every request extends the session
	s.Clock.StepBy(50 * time.Minute)
	b.Get("/project/volumes/").ExpectStatus(t, http.StatusOK)
	s.Clock.StepBy(50 * time.Minute)
	b.Get("/project/volumes/").ExpectStatus(t, http.StatusOK)

	// but idle sessions expire
	s.Clock.StepBy(61 * time.Minute)
	b.Get("/project/volumes/").ExpectRedirect(t, "/auth/login/?next=%2Fproject%2Fvolumes%2F")
}
