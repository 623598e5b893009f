// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/Masterminds/sprig/v3"
	"github.com/dustin/go-humanize"
	"github.com/sapcc/go-api-declarations/bininfo"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/must"
	"github.com/sapcc/go-bits/respondwith"

	"github.com/sapcc/horizon/internal/sessions"
)

//go:embed templates/*.html
var templateFS embed.FS

// Names of the page templates. Each of them is combined with layout.html.
const (
	pageLogin  = "login.html"
	pageTable  = "table.html"
	pageDetail = "detail.html"
	pageForm   = "form.html"
	pageError  = "error.html"
)

type pageRenderer struct {
	pages map[string]*template.Template
}

func newPageRenderer() *pageRenderer {
	funcs := sprig.HTMLFuncMap()
	funcs["ibytes"] = func(size uint64) string { return humanize.IBytes(size) }
	funcs["version"] = func() string { return bininfo.VersionOr("rolling") }

	pr := &pageRenderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{pageLogin, pageTable, pageDetail, pageForm, pageError} {
		pr.pages[name] = must.Return(template.New(name).Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
	return pr
}

// pageData is what the layout template is executed with.
type pageData struct {
	Title       string
	Session     *sessions.Session // nil on the login page
	Panels      []panel
	ActivePanel string
	Messages    []sessions.Message
	Content     any
}

// render writes a full HTML page. If rc is non-nil, the pending flash
// messages are consumed and the session is persisted.
func (a *API) render(w http.ResponseWriter, r *http.Request, rc *requestContext, status int, page, title string, content any) {
	data := pageData{
		Title:       title,
		ActivePanel: panelOf(r),
		Content:     content,
	}
	if rc != nil {
		data.Session = rc.Session
		data.Panels = visiblePanels(rc.Token)
		data.Messages = rc.Session.PopMessages()
		err := a.auth.Store.Save(w, r, rc.Session)
		if respondwith.ErrorText(w, err) {
			return
		}
	}

	var buf bytes.Buffer
	err := a.pages.pages[page].ExecuteTemplate(&buf, "layout", data)
	if err != nil {
		logg.Error("while rendering %s for %s: %s", page, r.URL.Path, err.Error())
		http.Error(w, "internal error while rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

type errorPage struct {
	Status  int
	Message string
}

func (a *API) renderErrorPage(w http.ResponseWriter, r *http.Request, rc *requestContext, status int, message string) {
	a.render(w, r, rc, status, pageError, http.StatusText(status), errorPage{status, message})
}
