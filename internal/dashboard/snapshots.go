// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"context"
	"net/http"

	"github.com/sapcc/go-bits/httpapi"

	"github.com/sapcc/horizon/internal/horizon"
)

var snapshotsTable = Table[horizon.VolumeSnapshot]{
	Name:  "volume_snapshots",
	Title: "Volume Snapshots",
	Columns: []Column[horizon.VolumeSnapshot]{
		{Name: "name", Title: "Name", Value: func(s horizon.VolumeSnapshot) string { return s.Name }},
		{Name: "description", Title: "Description", Value: func(s horizon.VolumeSnapshot) string { return s.Description }},
		{Name: "size", Title: "Size", Value: func(s horizon.VolumeSnapshot) string { return formatGiB(s.SizeGiB) }},
		{Name: "status", Title: "Status", Value: func(s horizon.VolumeSnapshot) string { return s.Status }},
		{
			Name:  "volume",
			Title: "Volume",
			Value: func(s horizon.VolumeSnapshot) string { return s.VolumeID },
			Link:  func(s horizon.VolumeSnapshot) string { return detailURL(volumesPath, s.VolumeID) },
		},
		{Name: "created", Title: "Created", Value: func(s horizon.VolumeSnapshot) string { return formatTime(s.CreatedAt) }},
	},
	BatchActions: []Action{
		{Name: "delete", Title: "Delete Volume Snapshots", Rules: []string{horizon.RuleDeleteSnapshot}, URL: snapshotsPath + "delete", Method: http.MethodPost, Danger: true},
	},
	FilterFields: []string{"name", "status"},
}

func (a *API) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/snapshots/")
	rc := a.authenticateWithRules(w, r, horizon.RuleListSnapshots)
	if rc == nil {
		return
	}

	req := horizon.ParsePageRequest(r.URL.Query(), rc.PageSize, snapshotsTable.FilterFields...)
	page, err := rc.Backend.ListVolumeSnapshots(r.Context(), req)
	if err != nil {
		a.handleError(w, r, rc, err, "Unable to retrieve volume snapshots.", "")
		page = horizon.Page[horizon.VolumeSnapshot]{}
	}
	a.render(w, r, rc, http.StatusOK, pageTable, "Volume Snapshots", snapshotsTable.Render(r, page, rc.Token))
}

func (a *API) handleDeleteSnapshots(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/snapshots/delete")
	a.handleBatchDelete(w, r, batchDelete{
		Rule:       horizon.RuleDeleteSnapshot,
		Noun:       "Volume Snapshot",
		AuditType:  horizon.AuditTypeSnapshot,
		RedirectTo: snapshotsPath,
		Delete: func(ctx context.Context, b horizon.Backend, id string) error {
			return b.DeleteVolumeSnapshot(ctx, id)
		},
	})
}
