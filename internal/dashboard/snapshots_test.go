// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboard_test

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/sapcc/go-bits/assert"

	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/test"
)

func makeSnapshots(count int) []horizon.VolumeSnapshot {
	result := make([]horizon.VolumeSnapshot, count)
	for idx := range result {
		result[idx] = horizon.VolumeSnapshot{
			ID:        fmt.Sprintf("snap%d", idx+1),
			Name:      fmt.Sprintf("snapshot%d", idx+1),
			Status:    "available",
			SizeGiB:   10,
			VolumeID:  "v1",
			CreatedAt: time.Unix(int64(1000-idx), 0),
		}
	}
	return result
}

func TestSnapshotsPagination(t *testing.T) {
	s := test.NewSetup(t, test.WithPageSize(2))
	s.Backend.Snapshots = makeSnapshots(5)
	b := s.LoggedInBrowser(t)

	resp := b.Get("/project/snapshots/").ExpectStatus(t, http.StatusOK)
	expectPage(t, resp, []string{"snap1", "snap2"}, "/project/snapshots/?marker=snap2", "")
	resp = b.Get("/project/snapshots/?marker=snap2").ExpectStatus(t, http.StatusOK)
	expectPage(t, resp, []string{"snap3", "snap4"}, "/project/snapshots/?marker=snap4", "/project/snapshots/?prev_marker=snap3")
	resp = b.Get("/project/snapshots/?marker=snap4").ExpectStatus(t, http.StatusOK)
	expectPage(t, resp, []string{"snap5"}, "", "/project/snapshots/?prev_marker=snap5")

	resp = b.Get("/project/snapshots/?prev_marker=snap5").ExpectStatus(t, http.StatusOK)
	expectPage(t, resp, []string{"snap3", "snap4"}, "/project/snapshots/?marker=snap4", "/project/snapshots/?prev_marker=snap3")
	resp = b.Get("/project/snapshots/?prev_marker=snap3").ExpectStatus(t, http.StatusOK)
	expectPage(t, resp, []string{"snap1", "snap2"}, "/project/snapshots/?marker=snap2", "")

	assert.DeepEqual(t, "last page request", s.Backend.PageRequests["ListVolumeSnapshots"], horizon.PageRequest{
		Marker:        "snap3",
		SortDirection: horizon.SortAscending,
		PageSize:      2,
		Filters:       map[string]string{},
	})

	// the HTML view does not let the query string choose the direction
	resp = b.Get("/project/snapshots/?marker=snap2&sort_dir=asc").ExpectStatus(t, http.StatusOK)
	expectPage(t, resp, []string{"snap3", "snap4"}, "/project/snapshots/?marker=snap4", "/project/snapshots/?prev_marker=snap3")
}

func TestSnapshotsPaginationKeepsFilters(t *testing.T) {
	s := test.NewSetup(t, test.WithPageSize(2))
	s.Backend.Snapshots = makeSnapshots(4)
	s.Backend.Snapshots[0].Status = "error"
	b := s.LoggedInBrowser(t)

	resp := b.Get("/project/snapshots/?status=available").ExpectStatus(t, http.StatusOK)
	expectPage(t, resp, []string{"snap2", "snap3"}, "/project/snapshots/?marker=snap3&status=available", "")
	resp = b.Get("/project/snapshots/?marker=snap3&status=available").ExpectStatus(t, http.StatusOK)
	expectPage(t, resp, []string{"snap4"}, "", "/project/snapshots/?prev_marker=snap4&status=available")
	assert.DeepEqual(t, "filters", s.Backend.PageRequests["ListVolumeSnapshots"].Filters, map[string]string{"status": "available"})
}

func TestSnapshotsListSurvivesBackendErrors(t *testing.T) {
	s := test.NewSetup(t)
	s.Backend.Snapshots = makeSnapshots(2)
	s.Backend.Errors["ListVolumeSnapshots"] = test.ErrBackendDown
	b := s.LoggedInBrowser(t)

	resp := b.Get("/project/snapshots/").ExpectStatus(t, http.StatusOK)
	resp.ExpectMessage(t, "error", "Unable to retrieve volume snapshots.")
	resp.ExpectText(t, "No items to display.")
	expectPage(t, resp, nil, "", "")

	// unknown markers end up in the same place
	delete(s.Backend.Errors, "ListVolumeSnapshots")
	resp = b.Get("/project/snapshots/?prev_marker=snap9").ExpectStatus(t, http.StatusOK)
	resp.ExpectMessage(t, "error", "Unable to retrieve volume snapshots.")
	expectPage(t, resp, nil, "", "")

	resp = b.Get("/project/snapshots/").ExpectStatus(t, http.StatusOK)
	resp.ExpectNoText(t, "Unable to retrieve volume snapshots.")
	expectPage(t, resp, []string{"snap1", "snap2"}, "", "")
}

func TestSnapshotsPolicy(t *testing.T) {
	s := test.NewSetup(t)
	s.Backend.Volumes = makeVolumes(1)
	s.Backend.Snapshots = makeSnapshots(1)
	b := s.LoggedInBrowser(t)

	b.Get("/project/snapshots/").ExpectStatus(t, http.StatusOK).
		ExpectText(t, "Delete Volume Snapshots")

	s.AuthDriver.Enforcer.Forbid(horizon.RuleDeleteSnapshot)
	b.Get("/project/snapshots/").ExpectStatus(t, http.StatusOK).
		ExpectNoText(t, "Delete Volume Snapshots")
	b.PostForm("/project/snapshots/delete", url.Values{"id": {"snap1"}}).
		ExpectStatus(t, http.StatusForbidden)
	assert.DeepEqual(t, "snapshot count", len(s.Backend.Snapshots), 1)
	s.Auditor.ExpectEvents(t /*, nothing */)

	// creating a snapshot also needs the list rule, since the user is sent
	// to the snapshot list afterwards
	s.AuthDriver.Enforcer.Forbid(horizon.RuleListSnapshots)
	b.Get("/project/snapshots/").ExpectStatus(t, http.StatusForbidden)
	b.Get("/project/volumes/").ExpectStatus(t, http.StatusOK).
		ExpectNoText(t, "Create Snapshot", "Project: Volume Snapshots")
	b.Get("/project/volumes/v1/create_snapshot").ExpectStatus(t, http.StatusForbidden)
	b.PostForm("/project/volumes/v1/create_snapshot", url.Values{"name": {"snap"}}).
		ExpectStatus(t, http.StatusForbidden)
	assert.DeepEqual(t, "snapshot count", len(s.Backend.Snapshots), 1)
}

func TestDeleteSnapshots(t *testing.T) {
	s := test.NewSetup(t)
	s.Backend.Snapshots = makeSnapshots(3)
	b := s.LoggedInBrowser(t)

	// nothing selected
	b.PostForm("/project/snapshots/delete", url.Values{}).ExpectRedirect(t, "/project/snapshots/")
	b.Get("/project/snapshots/").ExpectMessage(t, "warning", "No volume snapshot selected.")

	// partial failure: snap9 does not exist, but the others are deleted anyway
	b.PostForm("/project/snapshots/delete", url.Values{"id": {"snap1", "snap9", "snap3"}}).
		ExpectRedirect(t, "/project/snapshots/")
	resp := b.Get("/project/snapshots/").ExpectStatus(t, http.StatusOK)
	resp.ExpectMessage(t, "success", "Scheduled deletion of Volume Snapshots: snap1, snap3")
	resp.ExpectMessage(t, "error", "Unable to delete Volume Snapshot: snap9")
	expectPage(t, resp, []string{"snap2"}, "", "")
	s.Auditor.ExpectDeletions(t, "/project/snapshots/delete", horizon.AuditTypeSnapshot, "snap1", "snap3")

	// backend errors are reported without an audit event
	s.Backend.Errors["DeleteVolumeSnapshot"] = test.ErrBackendDown
	b.PostForm("/project/snapshots/delete", url.Values{"id": {"snap2"}}).
		ExpectRedirect(t, "/project/snapshots/")
	resp = b.Get("/project/snapshots/").ExpectStatus(t, http.StatusOK)
	resp.ExpectMessage(t, "error", "Unable to delete Volume Snapshot: snap2")
	expectPage(t, resp, []string{"snap2"}, "", "")
	s.Auditor.ExpectEvents(t /*, nothing */)
}
