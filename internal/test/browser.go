// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package test

import (
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// Browser sends requests to Setup.Handler and keeps the cookies that it
// receives, like a web browser would.
//
// net/http/cookiejar is not used here because it checks cookie expiry
// against the real time, whereas the session stores use Setup.Clock.
type Browser struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

// NewBrowser creates a Browser without any cookies.
func (s Setup) NewBrowser(t *testing.T) *Browser {
	return &Browser{t, s.Handler, make(map[string]*http.Cookie)}
}

// LoggedInBrowser creates a Browser and logs in with the well-known credentials.
func (s Setup) LoggedInBrowser(t *testing.T) *Browser {
	t.Helper()
	b := s.NewBrowser(t)
	b.PostForm("/auth/login/", url.Values{
		"username": {UserName},
		"password": {UserPassword},
		"domain":   {UserDomainName},
	}).ExpectStatus(t, http.StatusSeeOther)
	return b
}

// Response is what the Browser received.
type Response struct {
	Status int
	Header http.Header
	Body   string
}

// Get sends a GET request.
func (b *Browser) Get(path string) Response {
	b.t.Helper()
	return b.do(httptest.NewRequest(http.MethodGet, path, http.NoBody))
}

// PostForm sends a POST request with a form-encoded body.
func (b *Browser) PostForm(path string, form url.Values) Response {
	b.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// HasCookie returns whether the browser currently holds the given cookie.
func (b *Browser) HasCookie(name string) bool {
	_, exists := b.cookies[name]
	return exists
}

func (b *Browser) do(req *http.Request) Response {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)
	resp := rec.Result()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		b.t.Fatal(err.Error())
	}

	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
		} else {
			b.cookies[c.Name] = c
		}
	}
	return Response{resp.StatusCode, resp.Header, string(body)}
}

// ExpectStatus checks the status code of the response.
func (r Response) ExpectStatus(t *testing.T, status int) Response {
	t.Helper()
	if r.Status != status {
		t.Errorf("expected status %d, got %d (body: %q)", status, r.Status, r.Body)
	}
	return r
}

// ExpectRedirect checks that the response is a 303 redirect to the given location.
func (r Response) ExpectRedirect(t *testing.T, location string) Response {
	t.Helper()
	r.ExpectStatus(t, http.StatusSeeOther)
	if actual := r.Header.Get("Location"); actual != location {
		t.Errorf("expected redirect to %q, got %q", location, actual)
	}
	return r
}

// ExpectText checks that the given text appears on the rendered page.
func (r Response) ExpectText(t *testing.T, texts ...string) Response {
	t.Helper()
	for _, text := range texts {
		if !strings.Contains(r.Body, html.EscapeString(text)) {
			t.Errorf("expected page to contain %q, but it does not (body: %q)", text, r.Body)
		}
	}
	return r
}

// ExpectNoText checks that none of the given texts appears on the rendered page.
func (r Response) ExpectNoText(t *testing.T, texts ...string) Response {
	t.Helper()
	for _, text := range texts {
		if strings.Contains(r.Body, html.EscapeString(text)) {
			t.Errorf("expected page not to contain %q, but it does", text)
		}
	}
	return r
}

// ExpectMessage checks that a flash message with the given level and text is shown.
func (r Response) ExpectMessage(t *testing.T, level, text string) Response {
	t.Helper()
	fragment := `<div class="alert alert-` + level + `">` + html.EscapeString(text) + `</div>`
	if !strings.Contains(r.Body, fragment) {
		t.Errorf("expected %s message %q, but it is not shown (body: %q)", level, text, r.Body)
	}
	return r
}

// ExpectHTML checks that the given HTML fragment appears verbatim on the rendered page.
func (r Response) ExpectHTML(t *testing.T, fragment string) Response {
	t.Helper()
	if !strings.Contains(r.Body, fragment) {
		t.Errorf("expected page to contain %q, but it does not (body: %q)", fragment, r.Body)
	}
	return r
}
