// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package horizon

import (
	"encoding/json"
	"maps"
	"strconv"
	"time"
)

// Supported values for Configuration.CinderAPIVersion.
const (
	CinderV1 = "1"
	CinderV2 = "2"
	CinderV3 = "3"
)

// Cinder v1 prefixes the name and description fields with "display_".
var cinderV1FieldNames = map[string]string{
	"name":        "display_name",
	"description": "display_description",
}

// CinderSupportsPagination returns whether the given Cinder API version
// understands the marker/limit/sort_dir query parameters. For Cinder v1, the
// full list has to be retrieved instead.
func CinderSupportsPagination(version string) bool {
	return version != CinderV1
}

// TranslateVolumeFilters renames search options from the v2+ spelling (which
// the dashboard uses everywhere) into the spelling of the given API version.
// The input map is not modified.
func TranslateVolumeFilters(version string, filters map[string]string) map[string]string {
	result := maps.Clone(filters)
	if version != CinderV1 {
		return result
	}
	for v2Name, v1Name := range cinderV1FieldNames {
		if value, exists := result[v2Name]; exists {
			delete(result, v2Name)
			result[v1Name] = value
		}
	}
	return result
}

// TranslateVolumeFields is like TranslateVolumeFilters, but for the request
// body of a create or update request.
func TranslateVolumeFields(version string, fields map[string]any) map[string]any {
	result := maps.Clone(fields)
	if version != CinderV1 {
		return result
	}
	for v2Name, v1Name := range cinderV1FieldNames {
		if value, exists := result[v2Name]; exists {
			delete(result, v2Name)
			result[v1Name] = value
		}
	}
	return result
}

// cinderNames is the part of a Cinder API record that is spelled differently
// between API versions. Both spellings are accepted when decoding.
type cinderNames struct {
	Name               string `json:"name"`
	DisplayName        string `json:"display_name"`
	Description        string `json:"description"`
	DisplayDescription string `json:"display_description"`
}

func (n cinderNames) name() string {
	if n.Name != "" {
		return n.Name
	}
	return n.DisplayName
}

func (n cinderNames) description() string {
	if n.Description != "" {
		return n.Description
	}
	return n.DisplayDescription
}

// VolumeRecord is a volume as returned by any version of the Cinder API.
type VolumeRecord struct {
	Volume
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (r *VolumeRecord) UnmarshalJSON(buf []byte) error {
	var data struct {
		cinderNames
		ID               string `json:"id"`
		Status           string `json:"status"`
		Size             int    `json:"size"`
		VolumeType       string `json:"volume_type"`
		AvailabilityZone string `json:"availability_zone"`
		// Cinder renders this as a string ("true"/"false")
		Bootable    string `json:"bootable"`
		Attachments []struct {
			ServerID string `json:"server_id"`
		} `json:"attachments"`
		CreatedAt string `json:"created_at"`
	}
	err := json.Unmarshal(buf, &data)
	if err != nil {
		return err
	}

	bootable, _ := strconv.ParseBool(data.Bootable)
	r.Volume = Volume{
		ID:               data.ID,
		Name:             data.name(),
		Description:      data.description(),
		Status:           data.Status,
		SizeGiB:          data.Size,
		VolumeType:       data.VolumeType,
		AvailabilityZone: data.AvailabilityZone,
		Bootable:         bootable,
		CreatedAt:        parseCinderTime(data.CreatedAt),
	}
	for _, a := range data.Attachments {
		r.AttachedTo = append(r.AttachedTo, a.ServerID)
	}
	return nil
}

// SnapshotRecord is a volume snapshot as returned by any version of the
// Cinder API.
type SnapshotRecord struct {
	VolumeSnapshot
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (r *SnapshotRecord) UnmarshalJSON(buf []byte) error {
	var data struct {
		cinderNames
		ID        string `json:"id"`
		Status    string `json:"status"`
		Size      int    `json:"size"`
		VolumeID  string `json:"volume_id"`
		CreatedAt string `json:"created_at"`
	}
	err := json.Unmarshal(buf, &data)
	if err != nil {
		return err
	}

	r.VolumeSnapshot = VolumeSnapshot{
		ID:          data.ID,
		Name:        data.name(),
		Description: data.description(),
		Status:      data.Status,
		SizeGiB:     data.Size,
		VolumeID:    data.VolumeID,
		CreatedAt:   parseCinderTime(data.CreatedAt),
	}
	return nil
}

// Cinder does not use a consistent timestamp format across versions.
var cinderTimeFormats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseCinderTime(value string) time.Time {
	for _, format := range cinderTimeFormats {
		t, err := time.Parse(format, value)
		if err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
