// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/sapcc/go-api-declarations/cadf"
	"github.com/sapcc/go-bits/httpapi"

	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/sessions"
)

const containersPath = "/project/containers/"

var containersTable = Table[horizon.Container]{
	Name:  "containers",
	Title: "Containers",
	Columns: []Column[horizon.Container]{
		{
			Name:  "name",
			Title: "Container Name",
			Value: func(c horizon.Container) string { return c.Name },
			Link:  func(c horizon.Container) string { return detailURL(containersPath, c.Name) },
		},
		{Name: "count", Title: "Objects", Value: func(c horizon.Container) string { return strconv.FormatUint(c.ObjectCount, 10) }},
		{Name: "bytes", Title: "Size", Value: func(c horizon.Container) string { return humanize.IBytes(c.BytesUsed) }},
	},
	BatchActions: []Action{
		{Name: "delete", Title: "Delete Containers", Rules: []string{horizon.RuleDeleteContainer}, URL: containersPath + "delete", Method: http.MethodPost, Danger: true},
	},
	TableActions: []Action{
		{Name: "create", Title: "Create Container", Rules: []string{horizon.RuleCreateContainer}, URL: containersPath + "create", Method: http.MethodGet},
	},
	FilterFields: []string{"prefix"},
}

var objectsTable = Table[horizon.Object]{
	Name:  "objects",
	Title: "Objects",
	Columns: []Column[horizon.Object]{
		{Name: "name", Title: "Object Name", Value: func(o horizon.Object) string { return o.Name }},
		{Name: "size", Title: "Size", Value: func(o horizon.Object) string { return humanize.IBytes(o.SizeBytes) }},
		{Name: "content_type", Title: "Content Type", Value: func(o horizon.Object) string { return o.ContentType }},
		{Name: "last_modified", Title: "Last Modified", Value: func(o horizon.Object) string { return formatTime(o.LastModified) }},
	},
	FilterFields: []string{"prefix"},
}

func (a *API) handleListContainers(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/containers/")
	rc := a.authenticateWithRules(w, r, horizon.RuleListContainers)
	if rc == nil {
		return
	}

	req := horizon.ParseForwardPageRequest(r.URL.Query(), rc.PageSize, containersTable.FilterFields...)
	page, err := rc.Backend.ListContainers(r.Context(), req)
	if err != nil {
		a.handleError(w, r, rc, err, "Unable to retrieve container list.", "")
		page = horizon.Page[horizon.Container]{}
	}
	a.render(w, r, rc, http.StatusOK, pageTable, "Containers", containersTable.Render(r, page, rc.Token))
}

func (a *API) handleListObjects(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/containers/:container/")
	rc := a.authenticateWithRules(w, r, horizon.RuleListObjects)
	if rc == nil {
		return
	}

	containerName := mux.Vars(r)["container"]
	req := horizon.ParseForwardPageRequest(r.URL.Query(), rc.PageSize, objectsTable.FilterFields...)
	page, err := rc.Backend.ListObjects(r.Context(), containerName, req)
	if err != nil {
		a.handleError(w, r, rc, err, fmt.Sprintf("Unable to retrieve objects in container %q.", containerName), "")
		page = horizon.Page[horizon.Object]{}
	}
	a.render(w, r, rc, http.StatusOK, pageTable, "Container: "+containerName, objectsTable.Render(r, page, rc.Token))
}

type containerCreateForm struct {
	Name   string `form:"name" label:"Container Name" validate:"required,max=256,excludesall=/"`
	Public bool   `form:"public" label:"Public Access"`
}

func (a *API) handleCreateContainer(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/containers/create")
	rc := a.authenticateWithRules(w, r, horizon.RuleCreateContainer)
	if rc == nil {
		return
	}
	rf := RenderedForm{Title: "Create Container", SubmitLabel: "Create Container", CancelURL: containersPath}

	var form containerCreateForm
	if r.Method == http.MethodGet {
		a.renderForm(w, r, rc, rf, &form, nil)
		return
	}
	errs, err := parseForm(r, &form)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(errs) > 0 {
		a.renderForm(w, r, rc, rf, &form, errs)
		return
	}

	req := horizon.ContainerCreateRequest{Name: form.Name, Public: form.Public}
	err = rc.Backend.CreateContainer(r.Context(), req)
	if err != nil {
		a.handleError(w, r, rc, err, "Unable to create container.", containersPath)
		return
	}
	a.recordAuditEvent(r, rc, cadf.CreateAction, horizon.AuditResource{
		TypeURI: horizon.AuditTypeContainer,
		ID:      form.Name,
		Name:    form.Name,
		Payload: req,
	})
	rc.Session.AddMessage(sessions.LevelSuccess, "Container %q created.", form.Name)
	a.redirect(w, r, rc, containersPath)
}

func (a *API) handleDeleteContainers(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/containers/delete")
	a.handleBatchDelete(w, r, batchDelete{
		Rule:       horizon.RuleDeleteContainer,
		Noun:       "Container",
		AuditType:  horizon.AuditTypeContainer,
		RedirectTo: containersPath,
		Delete: func(ctx context.Context, b horizon.Backend, name string) error {
			return b.DeleteContainer(ctx, name)
		},
	})
}
