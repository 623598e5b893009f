// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/sapcc/go-bits/assert"

	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/test"
)

type listResponse struct {
	Items []struct {
		ID   string `json:"id"`
		// Swift containers are identified by name
		Name string `json:"name"`
	} `json:"items"`
	HasMoreData bool `json:"has_more_data"`
	HasPrevData bool `json:"has_prev_data"`
}

func expectList(t *testing.T, resp test.Response, ids []string, hasMore, hasPrev bool) {
	t.Helper()
	resp.ExpectStatus(t, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("expected JSON response, got Content-Type %q", ct)
	}
	var data listResponse
	err := json.Unmarshal([]byte(resp.Body), &data)
	if err != nil {
		t.Fatalf("cannot decode response body %q: %s", resp.Body, err.Error())
	}
	actualIDs := []string{}
	for _, item := range data.Items {
		if item.ID == "" {
			actualIDs = append(actualIDs, item.Name)
		} else {
			actualIDs = append(actualIDs, item.ID)
		}
	}
	assert.DeepEqual(t, "item IDs", actualIDs, ids)
	assert.DeepEqual(t, "has_more_data", data.HasMoreData, hasMore)
	assert.DeepEqual(t, "has_prev_data", data.HasPrevData, hasPrev)
}

func expectErrorText(t *testing.T, resp test.Response, status int, text string) {
	t.Helper()
	resp.ExpectStatus(t, status)
	assert.DeepEqual(t, "error text", strings.TrimSpace(resp.Body), text)
}

func makeVolumes(count int) []horizon.Volume {
	result := make([]horizon.Volume, count)
	for idx := range count {
		result[idx] = horizon.Volume{
			ID:     fmt.Sprintf("v%d", idx+1),
			Name:   fmt.Sprintf("volume%d", idx+1),
			Status: "available",
		}
	}
	return result
}

func TestListVolumes(t *testing.T) {
	s := test.NewSetup(t, test.WithPageSize(2))
	s.Backend.Volumes = makeVolumes(5)
	b := s.LoggedInBrowser(t)

	expectList(t, b.Get("/api/cinder/volumes/"), []string{"v1", "v2"}, true, false)
	expectList(t, b.Get("/api/cinder/volumes/?marker=v2"), []string{"v3", "v4"}, true, true)
	expectList(t, b.Get("/api/cinder/volumes/?marker=v4"), []string{"v5"}, false, true)
	expectList(t, b.Get("/api/cinder/volumes/?prev_marker=v3"), []string{"v1", "v2"}, true, false)

	// the client can choose its own page size within the configured bounds
	expectList(t, b.Get("/api/cinder/volumes/?limit=4"), []string{"v1", "v2", "v3", "v4"}, true, false)
	expectList(t, b.Get("/api/cinder/volumes/?limit=1000"), []string{"v1", "v2", "v3", "v4", "v5"}, false, false)
	expectErrorText(t, b.Get("/api/cinder/volumes/?limit=-1"), http.StatusBadRequest, `invalid value for limit: "-1"`)
	expectErrorText(t, b.Get("/api/cinder/volumes/?limit=all"), http.StatusBadRequest, `invalid value for limit: "all"`)

	// filters are passed through
	expectList(t, b.Get("/api/cinder/volumes/?name=volume3"), []string{"v3"}, false, false)
	assert.DeepEqual(t, "filters", s.Backend.PageRequests["ListVolumes"].Filters, map[string]string{"name": "volume3"})
}

func TestListSortDirection(t *testing.T) {
	s := test.NewSetup(t, test.WithPageSize(2))
	s.Backend.Volumes = makeVolumes(5)
	b := s.LoggedInBrowser(t)

	// walking backwards, either through prev_marker or an explicit sort_dir
	expectList(t, b.Get("/api/cinder/volumes/?prev_marker=v5"), []string{"v3", "v4"}, true, true)
	expectList(t, b.Get("/api/cinder/volumes/?marker=v4&sort_dir=asc"), []string{"v2", "v3"}, true, true)
	assert.DeepEqual(t, "page request", s.Backend.PageRequests["ListVolumes"], horizon.PageRequest{
		Marker:        "v4",
		SortDirection: horizon.SortAscending,
		PageSize:      2,
		Filters:       map[string]string{},
	})

	// an explicit sort_dir also wins over the direction implied by prev_marker
	expectList(t, b.Get("/api/cinder/volumes/?prev_marker=v3&sort_dir=desc"), []string{"v4", "v5"}, false, true)
	assert.DeepEqual(t, "sort direction", s.Backend.PageRequests["ListVolumes"].SortDirection, horizon.SortDescending)

	// unknown directions are ignored
	expectList(t, b.Get("/api/cinder/volumes/?marker=v2&sort_dir=sideways"), []string{"v3", "v4"}, true, true)
}

func TestListSnapshots(t *testing.T) {
	s := test.NewSetup(t, test.WithPageSize(2))
	for idx := range 3 {
		s.Backend.Snapshots = append(s.Backend.Snapshots, horizon.VolumeSnapshot{
			ID:       fmt.Sprintf("snap%d", idx+1),
			Name:     fmt.Sprintf("snapshot%d", idx+1),
			Status:   "available",
			VolumeID: "v1",
		})
	}
	b := s.LoggedInBrowser(t)

	expectList(t, b.Get("/api/cinder/snapshots/"), []string{"snap1", "snap2"}, true, false)
	expectList(t, b.Get("/api/cinder/snapshots/?marker=snap2"), []string{"snap3"}, false, true)
	expectList(t, b.Get("/api/cinder/snapshots/?prev_marker=snap3"), []string{"snap1", "snap2"}, true, false)
	expectList(t, b.Get("/api/cinder/snapshots/?name=snapshot2"), []string{"snap2"}, false, false)
}

func TestListForwardOnlyResources(t *testing.T) {
	s := test.NewSetup(t, test.WithPageSize(2))
	for idx := range 3 {
		s.Backend.Servers = append(s.Backend.Servers, horizon.Server{
			ID:     fmt.Sprintf("s%d", idx+1),
			Name:   fmt.Sprintf("server%d", idx+1),
			Status: "ACTIVE",
		})
		s.Backend.Containers = append(s.Backend.Containers, horizon.Container{
			Name: fmt.Sprintf("c%d", idx+1),
		})
	}
	b := s.LoggedInBrowser(t)

	expectList(t, b.Get("/api/nova/servers/"), []string{"s1", "s2"}, true, false)
	expectList(t, b.Get("/api/nova/servers/?marker=s2"), []string{"s3"}, false, false)
	// these backends cannot walk backwards, so prev_marker starts over
	expectList(t, b.Get("/api/nova/servers/?prev_marker=s3"), []string{"s1", "s2"}, true, false)
	expectList(t, b.Get("/api/nova/servers/?marker=s1&sort_dir=asc"), []string{"s2", "s3"}, false, false)
	assert.DeepEqual(t, "page request", s.Backend.PageRequests["ListServers"], horizon.PageRequest{
		Marker:        "s1",
		SortDirection: horizon.SortDescending,
		PageSize:      2,
		Filters:       map[string]string{},
	})

	expectList(t, b.Get("/api/swift/containers/"), []string{"c1", "c2"}, true, false)
	expectList(t, b.Get("/api/swift/containers/?marker=c2"), []string{"c3"}, false, false)
	expectList(t, b.Get("/api/swift/containers/?prev_marker=c3"), []string{"c1", "c2"}, true, false)
	expectList(t, b.Get("/api/swift/containers/?prefix=c3"), []string{"c3"}, false, false)
}

func TestListEmpty(t *testing.T) {
	s := test.NewSetup(t)
	b := s.LoggedInBrowser(t)

	resp := b.Get("/api/glance/images/").ExpectStatus(t, http.StatusOK)
	assert.DeepEqual(t, "body", strings.TrimSpace(resp.Body), `{"items":[],"has_more_data":false,"has_prev_data":false}`)
}

func TestListUnpagedResources(t *testing.T) {
	s := test.NewSetup(t, test.WithPageSize(1))
	s.Backend.Users = []horizon.User{{ID: "u1", Name: "alice"}, {ID: "u2", Name: "bob"}}
	s.Backend.Networks = []horizon.Network{{ID: "n1"}, {ID: "n2"}, {ID: "n3"}}
	b := s.LoggedInBrowser(t)

	expectList(t, b.Get("/api/keystone/users/"), []string{"u1", "u2"}, false, false)
	expectList(t, b.Get("/api/neutron/networks/"), []string{"n1", "n2", "n3"}, false, false)
}

func TestListErrors(t *testing.T) {
	s := test.NewSetup(t)
	s.Backend.Volumes = makeVolumes(3)

	// not logged in
	anon := s.NewBrowser(t)
	expectErrorText(t, anon.Get("/api/cinder/volumes/"), http.StatusUnauthorized, "not logged in")

	b := s.LoggedInBrowser(t)
	expectErrorText(t, b.Get("/api/cinder/backups/"), http.StatusNotFound, "no such resource: cinder/backups")

	// forbidden by policy
	s.AuthDriver.Enforcer.Forbid(horizon.RuleListVolumes)
	expectErrorText(t, b.Get("/api/cinder/volumes/"), http.StatusForbidden, "Forbidden")
	s.AuthDriver.Enforcer.Allow(horizon.RuleListVolumes)

	// unknown marker
	expectErrorText(t, b.Get("/api/cinder/volumes/?marker=v9"), http.StatusInternalServerError, "marker [v9] not found")

	// backend errors
	s.Backend.Errors["ListVolumes"] = test.ErrBackendDown
	expectErrorText(t, b.Get("/api/cinder/volumes/"), http.StatusInternalServerError, "ListVolumes failed: service unavailable")
	s.Backend.Errors["ListVolumes"] = fmt.Errorf("no such project: %w", horizon.ErrNotFound)
	expectErrorText(t, b.Get("/api/cinder/volumes/"), http.StatusNotFound, "ListVolumes failed: no such project: not found")
}
