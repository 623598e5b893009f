// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/sapcc/go-bits/httpapi"

	"github.com/sapcc/horizon/internal/horizon"
)

const imagesPath = "/project/images/"

func formatImageSize(i horizon.Image) string {
	if i.SizeBytes <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(i.SizeBytes))
}

var imagesTable = Table[horizon.Image]{
	Name:  "images",
	Title: "Images",
	Columns: []Column[horizon.Image]{
		{
			Name:  "name",
			Title: "Image Name",
			Value: func(i horizon.Image) string { return i.Name },
			Link:  func(i horizon.Image) string { return detailURL(imagesPath, i.ID) },
		},
		{Name: "status", Title: "Status", Value: func(i horizon.Image) string { return i.Status }},
		{Name: "visibility", Title: "Visibility", Value: func(i horizon.Image) string { return i.Visibility }},
		{Name: "protected", Title: "Protected", Value: func(i horizon.Image) string { return formatBool(i.Protected) }},
		{Name: "disk_format", Title: "Disk Format", Value: func(i horizon.Image) string { return i.DiskFormat }},
		{Name: "size", Title: "Size", Value: formatImageSize},
	},
	BatchActions: []Action{
		{Name: "delete", Title: "Delete Images", Rules: []string{horizon.RuleDeleteImage}, URL: imagesPath + "delete", Method: http.MethodPost, Danger: true},
	},
	FilterFields: []string{"name"},
}

func (a *API) handleListImages(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/images/")
	rc := a.authenticateWithRules(w, r, horizon.RuleListImages)
	if rc == nil {
		return
	}

	req := horizon.ParsePageRequest(r.URL.Query(), rc.PageSize, imagesTable.FilterFields...)
	page, err := rc.Backend.ListImages(r.Context(), req)
	if err != nil {
		a.handleError(w, r, rc, err, "Unable to retrieve images.", "")
		page = horizon.Page[horizon.Image]{}
	}
	a.render(w, r, rc, http.StatusOK, pageTable, "Images", imagesTable.Render(r, page, rc.Token))
}

func (a *API) handleShowImage(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/images/:id/")
	rc := a.authenticateWithRules(w, r, horizon.RuleShowImage)
	if rc == nil {
		return
	}

	id := mux.Vars(r)["id"]
	image, err := rc.Backend.GetImage(r.Context(), id)
	if err != nil {
		a.handleDetailError(w, r, rc, err, fmt.Sprintf("Unable to retrieve image details for %q.", id), imagesPath)
		return
	}

	page := DetailPage{
		Fields: []DetailField{
			{Label: "Name", Value: image.Name},
			{Label: "ID", Value: image.ID},
			{Label: "Owner", Value: image.OwnerID},
			{Label: "Status", Value: image.Status},
			{Label: "Visibility", Value: image.Visibility},
			{Label: "Protected", Value: formatBool(image.Protected)},
			{Label: "Disk Format", Value: image.DiskFormat},
			{Label: "Container Format", Value: image.ContainerFormat},
			{Label: "Size", Value: formatImageSize(image)},
			{Label: "Min. Disk", Value: formatGiB(image.MinDiskGiB)},
			{Label: "Created", Value: formatTime(image.CreatedAt)},
		},
		BackURL: imagesPath,
	}
	a.render(w, r, rc, http.StatusOK, pageDetail, "Image Details: "+image.Name, page)
}

func (a *API) handleDeleteImages(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/project/images/delete")
	a.handleBatchDelete(w, r, batchDelete{
		Rule:       horizon.RuleDeleteImage,
		Noun:       "Image",
		AuditType:  horizon.AuditTypeImage,
		RedirectTo: imagesPath,
		Delete: func(ctx context.Context, b horizon.Backend, id string) error {
			return b.DeleteImage(ctx, id)
		},
	})
}
