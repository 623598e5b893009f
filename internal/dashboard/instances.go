// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sapcc/go-bits/httpapi"

	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/sessions"
)

const instancesPath = "/project/instances/"

func instancesTable(flavorNames map[string]string) Table[horizon.Server] {
	return Table[horizon.Server]{
		Name:  "instances",
		Title: "Instances",
		Columns: []Column[horizon.Server]{
			{
				Name:  "name",
				Title: "Instance Name",
				Value: func(s horizon.Server) string { return s.Name },
				Link:  func(s horizon.Server) string { return detailURL(instancesPath, s.ID) },
			},
			{Name: "image", Title: "Image ID", Value: func(s horizon.Server) string { return s.ImageID }},
			{Name: "ip", Title: "IP Address", Value: func(s horizon.Server) string { return strings.Join(s.IPAddresses, ", ") }},
			{
				Name:  "flavor",
				Title: "Size",
				Value: func(s horizon.Server) string {
					if name, ok := flavorNames[s.FlavorID]; ok {
						return name
					}
					return "Not available"
				},
			},
			{Name: "status", Title: "Status", Value: func(s horizon.Server) string { return s.Status }},
			{Name: "created", Title: "Created", Value: func(s horizon.Server) string { return formatTime(s.CreatedAt) }},
		},
		RowActions: []Action{
			{Name: "soft_reboot", Title: "Soft Reboot Instance", Rules: []string{horizon.RuleRebootServer}, URL: instancesPath + "{id}/reboot", Method: http.MethodPost},
			{Name: "hard_reboot", Title: "Hard Reboot Instance", Rules: []string{horizon.RuleRebootServer}, URL: instancesPath + "{id}/reboot?hard=true", Method: http.MethodPost, Danger: true},
		},
		BatchActions: []Action{
			{Name: "delete", Title: "Delete Instances", Rules: []string{horizon.RuleDeleteServer}, URL: instancesPath + "delete", Method: http.MethodPost, Danger: true},
		},
		FilterFields: []string{"name", "status"},
	}
}

func (a *API) handleListInstances(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/instances/")
	rc := a.authenticateWithRules(w, r, horizon.RuleListServers)
	if rc == nil {
		return
	}

	req := horizon.ParseForwardPageRequest(r.URL.Query(), rc.PageSize, "name", "status")
	page, err := rc.Backend.ListServers(r.Context(), req)
	if err != nil {
		a.handleError(w, r, rc, err, "Unable to retrieve instances.", "")
		page = horizon.Page[horizon.Server]{}
	}

	// the instance list is still useful without flavor names
	flavorNames := make(map[string]string)
	if len(page.Items) > 0 && rc.Token.Check(horizon.RuleListFlavors) {
		flavors, err := rc.Backend.ListFlavors(r.Context())
		if err != nil {
			a.handleError(w, r, rc, err, "Unable to retrieve instance size information.", "")
		}
		for _, f := range flavors.Items {
			flavorNames[f.ID] = f.Name
		}
	}

	table := instancesTable(flavorNames).Render(r, page, rc.Token)
	a.render(w, r, rc, http.StatusOK, pageTable, "Instances", table)
}

func (a *API) handleShowInstance(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/instances/:id/")
	rc := a.authenticateWithRules(w, r, horizon.RuleShowServer)
	if rc == nil {
		return
	}

	id := mux.Vars(r)["id"]
	server, err := rc.Backend.GetServer(r.Context(), id)
	if err != nil {
		a.handleDetailError(w, r, rc, err, fmt.Sprintf("Unable to retrieve details for instance %q.", id), instancesPath)
		return
	}

	imageLink := ""
	if server.ImageID != "" {
		imageLink = detailURL(imagesPath, server.ImageID)
	}
	page := DetailPage{
		Fields: []DetailField{
			{Label: "Name", Value: server.Name},
			{Label: "ID", Value: server.ID},
			{Label: "Status", Value: server.Status},
			{Label: "Flavor ID", Value: server.FlavorID},
			{Label: "Image ID", Value: server.ImageID, Link: imageLink},
			{Label: "IP Addresses", Value: strings.Join(server.IPAddresses, ", ")},
			{Label: "Project ID", Value: server.ProjectID},
			{Label: "Created", Value: formatTime(server.CreatedAt)},
		},
		BackURL: instancesPath,
	}
	a.render(w, r, rc, http.StatusOK, pageDetail, "Instance Details: "+server.Name, page)
}

func (a *API) handleRebootInstance(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/instances/:id/reboot")
	rc := a.authenticateWithRules(w, r, horizon.RuleRebootServer)
	if rc == nil {
		return
	}

	id := mux.Vars(r)["id"]
	hard := r.FormValue("hard") == "true"
	kind := "Soft"
	if hard {
		kind = "Hard"
	}

	err := rc.Backend.RebootServer(r.Context(), id, hard)
	if err != nil {
		a.handleError(w, r, rc, err, fmt.Sprintf("Unable to reboot instance %q.", id), instancesPath)
		return
	}
	a.recordAuditEvent(r, rc, horizon.RebootAction, horizon.AuditResource{
		TypeURI: horizon.AuditTypeServer,
		ID:      id,
		Payload: map[string]bool{"hard": hard},
	})
	rc.Session.AddMessage(sessions.LevelSuccess, "%s Rebooted Instance: %s", kind, id)
	a.redirect(w, r, rc, instancesPath)
}

func (a *API) handleDeleteInstances(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/instances/delete")
	a.handleBatchDelete(w, r, batchDelete{
		Rule:       horizon.RuleDeleteServer,
		Noun:       "Instance",
		AuditType:  horizon.AuditTypeServer,
		RedirectTo: instancesPath,
		Delete: func(ctx context.Context, b horizon.Backend, id string) error {
			return b.DeleteServer(ctx, id)
		},
	})
}
