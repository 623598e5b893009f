// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/test"
)

func testImages() []horizon.Image {
	return []horizon.Image{
		{ID: "i1", Name: "ubuntu", Status: "active", Visibility: "public", DiskFormat: "qcow2", SizeBytes: 2 << 30},
		{ID: "i2", Name: "debian", Status: "active", Visibility: "private", DiskFormat: "raw", SizeBytes: 512 << 20},
		{ID: "i3", Name: "ubuntu", Status: "queued", Visibility: "private", Protected: true},
	}
}

func TestImagesList(t *testing.T) {
	s := test.NewSetup(t, test.WithPageSize(2))
	s.Backend.Images = testImages()
	b := s.LoggedInBrowser(t)

	resp := b.Get("/project/images/").ExpectStatus(t, http.StatusOK).ExpectText(t, "2.0 GiB", "512 MiB")
	expectPage(t, resp, []string{"i1", "i2"}, "/project/images/?marker=i2", "")
	resp = b.Get("/project/images/?marker=i2").ExpectStatus(t, http.StatusOK)
	expectPage(t, resp, []string{"i3"}, "", "/project/images/?prev_marker=i3")

	// server-side filter
	resp = b.Get("/project/images/?name=ubuntu").ExpectStatus(t, http.StatusOK)
	expectPage(t, resp, []string{"i1", "i3"}, "", "")

	s.Backend.Errors["ListImages"] = test.ErrBackendDown
	resp = b.Get("/project/images/").ExpectStatus(t, http.StatusOK)
	resp.ExpectMessage(t, "error", "Unable to retrieve images.")
	expectPage(t, resp, nil, "", "")
}

func TestImageDetailAndDelete(t *testing.T) {
	s := test.NewSetup(t)
	s.Backend.Images = testImages()
	b := s.LoggedInBrowser(t)

	b.Get("/project/images/i1/").ExpectStatus(t, http.StatusOK).ExpectText(t, "Image Details: ubuntu", "qcow2")
	b.Get("/project/images/i9/").ExpectStatus(t, http.StatusNotFound)

	// protected images cannot be deleted
	b.PostForm("/project/images/delete", url.Values{"id": {"i2", "i3"}}).ExpectRedirect(t, "/project/images/")
	resp := b.Get("/project/images/").ExpectStatus(t, http.StatusOK)
	resp.ExpectMessage(t, "success", "Scheduled deletion of Image: i2")
	resp.ExpectMessage(t, "error", "Unable to delete Image: i3")
	expectPage(t, resp, []string{"i1", "i3"}, "", "")

	s.AuthDriver.Enforcer.Forbid(horizon.RuleDeleteImage)
	b.Get("/project/images/").ExpectStatus(t, http.StatusOK).ExpectNoText(t, "Delete Images")
	b.PostForm("/project/images/delete", url.Values{"id": {"i1"}}).ExpectStatus(t, http.StatusForbidden)
}
