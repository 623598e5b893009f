// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package openstack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/sapcc/go-bits/assert"

	"github.com/sapcc/horizon/internal/horizon"
)

// fakeCinder records the last request and answers with a canned response.
type fakeCinder struct {
	lastPath  string
	lastQuery url.Values
	lastBody  map[string]any
	status    int
	response  string
}

func (f *fakeCinder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.lastPath = r.URL.Path
	f.lastQuery = r.URL.Query()
	f.lastBody = nil
	if r.Method == http.MethodPost {
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = w.Write([]byte(f.response))
}

func setupCinder(t *testing.T, cinderVersion string) (*backend, *fakeCinder) {
	t.Helper()
	fake := &fakeCinder{status: http.StatusOK}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	provider := &gophercloud.ProviderClient{HTTPClient: *srv.Client()}
	provider.SetToken("usertoken")
	provider.EndpointLocator = func(eo gophercloud.EndpointOpts) (string, error) {
		return srv.URL + "/" + eo.Type + "/", nil
	}
	return &backend{provider: provider, cinderVersion: cinderVersion}, fake
}

func TestListVolumesCinderV1(t *testing.T) {
	b, fake := setupCinder(t, horizon.CinderV1)
	fake.response = `{"volumes":[
		{"id":"v2","display_name":"foo-2","display_description":"second","status":"available","size":10,"bootable":"true","created_at":"2024-01-02T03:04:05.000000"},
		{"id":"v1","display_name":"foo-1","status":"in-use","size":5,"bootable":"false","attachments":[{"server_id":"s1"}]}
	]}`

	req := horizon.PageRequest{
		SortDirection: horizon.SortDescending,
		PageSize:      1,
		Filters:       map[string]string{"name": "foo", "status": "available"},
	}
	page, err := b.ListVolumes(context.Background(), req)
	if err != nil {
		t.Fatal(err.Error())
	}

	// v1 does not page, so everything is shown
	assert.DeepEqual(t, "path", fake.lastPath, "/volume/volumes/detail")
	assert.DeepEqual(t, "query", fake.lastQuery, url.Values{
		"display_name": {"foo"},
		"status":       {"available"},
	})
	assert.DeepEqual(t, "HasMore", page.HasMore, false)
	assert.DeepEqual(t, "HasPrev", page.HasPrev, false)
	assert.DeepEqual(t, "len(Items)", len(page.Items), 2)
	assert.DeepEqual(t, "Items[0].Name", page.Items[0].Name, "foo-2")
	assert.DeepEqual(t, "Items[0].Description", page.Items[0].Description, "second")
	assert.DeepEqual(t, "Items[0].Bootable", page.Items[0].Bootable, true)
	assert.DeepEqual(t, "Items[1].AttachedTo", page.Items[1].AttachedTo, []string{"s1"})
}

func TestListVolumesCinderV3WalkingBackwards(t *testing.T) {
	b, fake := setupCinder(t, horizon.CinderV3)
	// ascending order, as requested by sort_dir=asc
	fake.response = `{"volumes":[
		{"id":"v4","name":"four"},
		{"id":"v5","name":"five"},
		{"id":"v6","name":"six"}
	]}`

	req := horizon.PageRequest{
		Marker:        "v3",
		SortDirection: horizon.SortAscending,
		PageSize:      2,
		Filters:       map[string]string{"name": "f"},
	}
	page, err := b.ListVolumes(context.Background(), req)
	if err != nil {
		t.Fatal(err.Error())
	}

	assert.DeepEqual(t, "path", fake.lastPath, "/volumev3/volumes/detail")
	assert.DeepEqual(t, "query", fake.lastQuery, url.Values{
		"name":     {"f"},
		"limit":    {"3"},
		"marker":   {"v3"},
		"sort_key": {"created_at"},
		"sort_dir": {"asc"},
	})
	assert.DeepEqual(t, "HasMore", page.HasMore, true)
	assert.DeepEqual(t, "HasPrev", page.HasPrev, true)
	ids := []string{}
	for _, v := range page.Items {
		ids = append(ids, v.ID)
	}
	assert.DeepEqual(t, "ids", ids, []string{"v5", "v4"})
}

func TestCreateVolumeTranslatesFields(t *testing.T) {
	b, fake := setupCinder(t, horizon.CinderV1)
	fake.status = http.StatusAccepted
	fake.response = `{"volume":{"id":"new","display_name":"data","size":20,"status":"creating"}}`

	vol, err := b.CreateVolume(context.Background(), horizon.VolumeCreateRequest{
		Name:        "data",
		Description: "scratch space",
		SizeGiB:     20,
	})
	if err != nil {
		t.Fatal(err.Error())
	}
	assert.DeepEqual(t, "path", fake.lastPath, "/volume/volumes")
	assert.DeepEqual(t, "body", fake.lastBody, map[string]any{
		"volume": map[string]any{
			"display_name":        "data",
			"display_description": "scratch space",
			"size":                float64(20),
		},
	})
	assert.DeepEqual(t, "vol.ID", vol.ID, "new")
	assert.DeepEqual(t, "vol.Name", vol.Name, "data")
}

func TestGetVolumeNotFound(t *testing.T) {
	b, fake := setupCinder(t, horizon.CinderV3)
	fake.status = http.StatusNotFound
	fake.response = `{"itemNotFound":{"message":"Volume nonexistent could not be found.","code":404}}`

	_, err := b.GetVolume(context.Background(), "nonexistent")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errorIsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %s", err.Error())
	}
}
