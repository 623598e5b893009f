// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sapcc/go-api-declarations/cadf"
	"github.com/sapcc/go-bits/httpapi"

	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/sessions"
)

const (
	volumesPath   = "/project/volumes/"
	snapshotsPath = "/project/snapshots/"
)

var volumesTable = Table[horizon.Volume]{
	Name:  "volumes",
	Title: "Volumes",
	Columns: []Column[horizon.Volume]{
		{
			Name:  "name",
			Title: "Name",
			Value: func(v horizon.Volume) string { return volumeDisplayName(v) },
			Link:  func(v horizon.Volume) string { return detailURL(volumesPath, v.ID) },
		},
		{Name: "description", Title: "Description", Value: func(v horizon.Volume) string { return v.Description }},
		{Name: "size", Title: "Size", Value: func(v horizon.Volume) string { return formatGiB(v.SizeGiB) }},
		{Name: "status", Title: "Status", Value: func(v horizon.Volume) string { return v.Status }},
		{Name: "volume_type", Title: "Type", Value: func(v horizon.Volume) string { return v.VolumeType }},
		{Name: "attachments", Title: "Attached To", Value: func(v horizon.Volume) string { return strings.Join(v.AttachedTo, ", ") }},
		{Name: "availability_zone", Title: "Availability Zone", Value: func(v horizon.Volume) string { return v.AvailabilityZone }},
		{Name: "bootable", Title: "Bootable", Value: func(v horizon.Volume) string { return formatBool(v.Bootable) }},
	},
	RowActions: []Action{
		{Name: "snapshots", Title: "Create Snapshot", Rules: []string{horizon.RuleCreateSnapshot, horizon.RuleListSnapshots}, URL: volumesPath + "{id}/create_snapshot", Method: http.MethodGet},
		{Name: "backups", Title: "Create Backup", Rules: []string{horizon.RuleCreateBackup}, URL: volumesPath + "{id}/create_backup", Method: http.MethodGet},
	},
	BatchActions: []Action{
		{Name: "delete", Title: "Delete Volumes", Rules: []string{horizon.RuleDeleteVolume}, URL: volumesPath + "delete", Method: http.MethodPost, Danger: true},
	},
	TableActions: []Action{
		{Name: "create", Title: "Create Volume", Rules: []string{horizon.RuleCreateVolume}, URL: volumesPath + "create", Method: http.MethodGet},
	},
	FilterFields: []string{"name", "status"},
}

// volumeDisplayName falls back to the ID for unnamed volumes.
func volumeDisplayName(v horizon.Volume) string {
	if v.Name == "" {
		return v.ID
	}
	return v.Name
}

func (a *API) handleListVolumes(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/volumes/")
	rc := a.authenticateWithRules(w, r, horizon.RuleListVolumes)
	if rc == nil {
		return
	}

	req := horizon.ParsePageRequest(r.URL.Query(), rc.PageSize, volumesTable.FilterFields...)
	page, err := rc.Backend.ListVolumes(r.Context(), req)
	if err != nil {
		a.handleError(w, r, rc, err, "Unable to retrieve volume list.", "")
		page = horizon.Page[horizon.Volume]{}
	}
	a.render(w, r, rc, http.StatusOK, pageTable, "Volumes", volumesTable.Render(r, page, rc.Token))
}

func (a *API) handleShowVolume(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/volumes/:id/")
	rc := a.authenticateWithRules(w, r, horizon.RuleShowVolume)
	if rc == nil {
		return
	}

	id := mux.Vars(r)["id"]
	volume, err := rc.Backend.GetVolume(r.Context(), id)
	if err != nil {
		a.handleDetailError(w, r, rc, err, fmt.Sprintf("Unable to retrieve volume details for %q.", id), volumesPath)
		return
	}

	page := DetailPage{
		Fields: []DetailField{
			{Label: "Name", Value: volume.Name},
			{Label: "ID", Value: volume.ID},
			{Label: "Description", Value: volume.Description},
			{Label: "Status", Value: volume.Status},
			{Label: "Size", Value: formatGiB(volume.SizeGiB)},
			{Label: "Type", Value: volume.VolumeType},
			{Label: "Availability Zone", Value: volume.AvailabilityZone},
			{Label: "Bootable", Value: formatBool(volume.Bootable)},
			{Label: "Attached To", Value: strings.Join(volume.AttachedTo, ", ")},
			{Label: "Created", Value: formatTime(volume.CreatedAt)},
		},
		BackURL: volumesPath,
	}
	a.render(w, r, rc, http.StatusOK, pageDetail, "Volume Details: "+volumeDisplayName(volume), page)
}

type volumeCreateForm struct {
	Name             string `form:"name" label:"Volume Name" validate:"max=255"`
	Description      string `form:"description" label:"Description" input:"textarea" validate:"max=255"`
	SizeGiB          int    `form:"size" label:"Size (GiB)" validate:"required,min=1"`
	VolumeType       string `form:"type" label:"Type"`
	AvailabilityZone string `form:"availability_zone" label:"Availability Zone"`
	SnapshotID       string `form:"snapshot_id" label:"Use snapshot as a source (ID)"`
}

func (a *API) handleCreateVolume(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/volumes/create")
	rc := a.authenticateWithRules(w, r, horizon.RuleCreateVolume)
	if rc == nil {
		return
	}
	rf := RenderedForm{Title: "Create Volume", SubmitLabel: "Create Volume", CancelURL: volumesPath}

	form := volumeCreateForm{SizeGiB: 1}
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

	req := horizon.VolumeCreateRequest{
		Name:             form.Name,
		Description:      form.Description,
		SizeGiB:          form.SizeGiB,
		VolumeType:       form.VolumeType,
		AvailabilityZone: form.AvailabilityZone,
		SnapshotID:       form.SnapshotID,
	}
	volume, err := rc.Backend.CreateVolume(r.Context(), req)
	if err != nil {
		a.handleError(w, r, rc, err, "Unable to create volume.", volumesPath)
		return
	}
	a.recordAuditEvent(r, rc, cadf.CreateAction, horizon.AuditResource{
		TypeURI: horizon.AuditTypeVolume,
		ID:      volume.ID,
		Name:    volume.Name,
		Payload: req,
	})
	rc.Session.AddMessage(sessions.LevelInfo, "Creating volume %q", volumeDisplayName(volume))
	a.redirect(w, r, rc, volumesPath)
}

func (a *API) handleDeleteVolumes(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/volumes/delete")
	a.handleBatchDelete(w, r, batchDelete{
		Rule:       horizon.RuleDeleteVolume,
		Noun:       "Volume",
		AuditType:  horizon.AuditTypeVolume,
		RedirectTo: volumesPath,
		Delete: func(ctx context.Context, b horizon.Backend, id string) error {
			return b.DeleteVolume(ctx, id)
		},
	})
}

type snapshotCreateForm struct {
	Name        string `form:"name" label:"Snapshot Name" validate:"required,max=255"`
	Description string `form:"description" label:"Description" input:"textarea" validate:"max=255"`
}

func (a *API) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/volumes/:id/create_snapshot")
	// the new snapshot is shown on the snapshot list afterwards
	rc := a.authenticateWithRules(w, r, horizon.RuleCreateSnapshot, horizon.RuleListSnapshots)
	if rc == nil {
		return
	}

	id := mux.Vars(r)["id"]
	volume, err := rc.Backend.GetVolume(r.Context(), id)
	if err != nil {
		a.handleDetailError(w, r, rc, err, fmt.Sprintf("Unable to retrieve volume %q.", id), volumesPath)
		return
	}
	rf := RenderedForm{
		Title:       "Create Volume Snapshot: " + volumeDisplayName(volume),
		SubmitLabel: "Create Volume Snapshot",
		CancelURL:   volumesPath,
	}

	var form snapshotCreateForm
	if r.Method == http.MethodGet {
		if volume.Status == "in-use" {
			rc.Session.AddMessage(sessions.LevelWarning, "This volume is currently attached to an instance. In some cases, creating a snapshot from an attached volume can result in a corrupted snapshot.")
		}
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

	req := horizon.SnapshotCreateRequest{
		VolumeID:    volume.ID,
		Name:        form.Name,
		Description: form.Description,
		Force:       volume.Status == "in-use",
	}
	snapshot, err := rc.Backend.CreateVolumeSnapshot(r.Context(), req)
	if err != nil {
		a.handleError(w, r, rc, err, "Unable to create volume snapshot.", volumesPath)
		return
	}
	a.recordAuditEvent(r, rc, cadf.CreateAction, horizon.AuditResource{
		TypeURI: horizon.AuditTypeSnapshot,
		ID:      snapshot.ID,
		Name:    snapshot.Name,
		Payload: req,
	})
	rc.Session.AddMessage(sessions.LevelInfo, "Creating volume snapshot %q.", snapshot.Name)
	a.redirect(w, r, rc, snapshotsPath)
}

type backupCreateForm struct {
	Name        string `form:"name" label:"Backup Name" validate:"required,max=255"`
	Description string `form:"description" label:"Description" input:"textarea" validate:"max=255"`
	Container   string `form:"container" label:"Container Name" validate:"max=255,excludesall=/"`
	Incremental bool   `form:"incremental" label:"Incremental"`
}

func (a *API) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/volumes/:id/create_backup")
	rc := a.authenticateWithRules(w, r, horizon.RuleCreateBackup)
	if rc == nil {
		return
	}

	id := mux.Vars(r)["id"]
	rf := RenderedForm{
		Title:       "Create Volume Backup",
		SubmitLabel: "Create Volume Backup",
		CancelURL:   volumesPath,
	}

	var form backupCreateForm
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

	req := horizon.BackupCreateRequest{
		VolumeID:    id,
		Name:        form.Name,
		Description: form.Description,
		Container:   form.Container,
		Incremental: form.Incremental,
	}
	backup, err := rc.Backend.CreateVolumeBackup(r.Context(), req)
	if err != nil {
		a.handleError(w, r, rc, err, "Unable to create volume backup.", volumesPath)
		return
	}
	a.recordAuditEvent(r, rc, cadf.CreateAction, horizon.AuditResource{
		TypeURI: horizon.AuditTypeBackup,
		ID:      backup.ID,
		Name:    backup.Name,
		Payload: req,
	})
	rc.Session.AddMessage(sessions.LevelSuccess, "Creating volume backup %q.", backup.Name)
	a.redirect(w, r, rc, volumesPath)
}
