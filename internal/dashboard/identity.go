// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sapcc/go-bits/httpapi"

	"github.com/sapcc/horizon/internal/horizon"
)

const (
	usersPath    = "/identity/users/"
	projectsPath = "/identity/projects/"
)

var usersTable = Table[horizon.User]{
	Name:  "users",
	Title: "Users",
	Columns: []Column[horizon.User]{
		{
			Name:  "name",
			Title: "User Name",
			Value: func(u horizon.User) string { return u.Name },
			Link:  func(u horizon.User) string { return detailURL(usersPath, u.ID) },
		},
		{Name: "email", Title: "Email", Value: func(u horizon.User) string { return u.Email }},
		{Name: "id", Title: "User ID", Value: func(u horizon.User) string { return u.ID }},
		{Name: "domain", Title: "Domain ID", Value: func(u horizon.User) string { return u.DomainID }},
		{Name: "enabled", Title: "Enabled", Value: func(u horizon.User) string { return formatBool(u.Enabled) }},
	},
	FilterFields: []string{"name"},
}

var projectsTable = Table[horizon.Project]{
	Name:  "projects",
	Title: "Projects",
	Columns: []Column[horizon.Project]{
		{Name: "name", Title: "Name", Value: func(p horizon.Project) string { return p.Name }},
		{Name: "description", Title: "Description", Value: func(p horizon.Project) string { return p.Description }},
		{Name: "id", Title: "Project ID", Value: func(p horizon.Project) string { return p.ID }},
		{Name: "domain", Title: "Domain ID", Value: func(p horizon.Project) string { return p.DomainID }},
		{Name: "enabled", Title: "Enabled", Value: func(p horizon.Project) string { return formatBool(p.Enabled) }},
	},
}

// filterUsers implements the name filter of the users table. Keystone lists
// are not paged, so this is done on our side instead of in the backend.
func filterUsers(page horizon.Page[horizon.User], query string) horizon.Page[horizon.User] {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return page
	}
	var result []horizon.User
	for _, u := range page.Items {
		if strings.Contains(strings.ToLower(u.Name), query) {
			result = append(result, u)
		}
	}
	return horizon.FullListPage(result)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/identity/users/")
	rc := a.authenticateWithRules(w, r, horizon.RuleListUsers)
	if rc == nil {
		return
	}

	page, err := rc.Backend.ListUsers(r.Context())
	if err != nil {
		a.handleError(w, r, rc, err, "Unable to retrieve user list.", "")
		page = horizon.Page[horizon.User]{}
	}
	page = filterUsers(page, r.URL.Query().Get("name"))
	a.render(w, r, rc, http.StatusOK, pageTable, "Users", usersTable.Render(r, page, rc.Token))
}

func (a *API) handleShowUser(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/identity/users/:id/")
	rc := a.authenticateWithRules(w, r, horizon.RuleShowUser)
	if rc == nil {
		return
	}

	id := mux.Vars(r)["id"]
	user, err := rc.Backend.GetUser(r.Context(), id)
	if err != nil {
		a.handleDetailError(w, r, rc, err, fmt.Sprintf("Unable to retrieve user information for %q.", id), usersPath)
		return
	}

	page := DetailPage{
		Fields: []DetailField{
			{Label: "Name", Value: user.Name},
			{Label: "ID", Value: user.ID},
			{Label: "Email", Value: user.Email},
			{Label: "Domain ID", Value: user.DomainID},
			{Label: "Primary Project ID", Value: user.DefaultProjectID},
			{Label: "Enabled", Value: formatBool(user.Enabled)},
		},
		BackURL: usersPath,
	}
	a.render(w, r, rc, http.StatusOK, pageDetail, "User Details: "+user.Name, page)
}

func (a *API) handleListProjects(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/identity/projects/")
	rc := a.authenticateWithRules(w, r, horizon.RuleListProjects)
	if rc == nil {
		return
	}

	page, err := rc.Backend.ListProjects(r.Context())
	if err != nil {
		a.handleError(w, r, rc, err, "Unable to retrieve project list.", "")
		page = horizon.Page[horizon.Project]{}
	}
	a.render(w, r, rc, http.StatusOK, pageTable, "Projects", projectsTable.Render(r, page, rc.Token))
}
