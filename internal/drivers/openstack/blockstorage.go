// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package openstack

import (
	"context"
	"net/url"
	"strconv"

	"github.com/sapcc/horizon/internal/horizon"
)

// Cinder is talked to without the Gophercloud resource packages, since those
// only know the v2+ field names. Requests and responses go through the
// translation helpers in package horizon instead.

func (b *backend) cinderListQuery(req horizon.PageRequest) url.Values {
	query := url.Values{}
	for key, value := range horizon.TranslateVolumeFilters(b.cinderVersion, req.Filters) {
		query.Set(key, value)
	}
	if horizon.CinderSupportsPagination(b.cinderVersion) {
		query.Set("limit", strconv.Itoa(req.FetchLimit()))
		query.Set("sort_key", "created_at")
		query.Set("sort_dir", string(req.SortDirection))
		if req.Marker != "" {
			query.Set("marker", req.Marker)
		}
	}
	return query
}

func cinderPage[T horizon.Identifiable](version string, items []T, req horizon.PageRequest) horizon.Page[T] {
	if !horizon.CinderSupportsPagination(version) {
		return horizon.FullListPage(items)
	}
	return horizon.UpdatePagination(items, req)
}

// ListVolumes implements the horizon.Backend interface.
func (b *backend) ListVolumes(ctx context.Context, req horizon.PageRequest) (horizon.Page[horizon.Volume], error) {
	client, err := b.blockStorageClient()
	if err != nil {
		return horizon.Page[horizon.Volume]{}, err
	}

	var data struct {
		Volumes []horizon.VolumeRecord `json:"volumes"`
	}
	listURL := client.ServiceURL("volumes", "detail") + "?" + b.cinderListQuery(req).Encode()
	_, err = client.Get(ctx, listURL, &data, nil)
	if err != nil {
		return horizon.Page[horizon.Volume]{}, wrapError(err, "cannot list volumes")
	}

	result := make([]horizon.Volume, len(data.Volumes))
	for idx, v := range data.Volumes {
		result[idx] = v.Volume
	}
	return cinderPage(b.cinderVersion, result, req), nil
}

// GetVolume implements the horizon.Backend interface.
func (b *backend) GetVolume(ctx context.Context, id string) (horizon.Volume, error) {
	client, err := b.blockStorageClient()
	if err != nil {
		return horizon.Volume{}, err
	}
	var data struct {
		Volume horizon.VolumeRecord `json:"volume"`
	}
	_, err = client.Get(ctx, client.ServiceURL("volumes", id), &data, nil)
	if err != nil {
		return horizon.Volume{}, wrapError(err, "cannot show volume %s", id)
	}
	return data.Volume.Volume, nil
}

// CreateVolume implements the horizon.Backend interface.
func (b *backend) CreateVolume(ctx context.Context, req horizon.VolumeCreateRequest) (horizon.Volume, error) {
	client, err := b.blockStorageClient()
	if err != nil {
		return horizon.Volume{}, err
	}

	fields := map[string]any{
		"name":        req.Name,
		"description": req.Description,
		"size":        req.SizeGiB,
	}
	if req.VolumeType != "" {
		fields["volume_type"] = req.VolumeType
	}
	if req.AvailabilityZone != "" {
		fields["availability_zone"] = req.AvailabilityZone
	}
	if req.SnapshotID != "" {
		fields["snapshot_id"] = req.SnapshotID
	}
	body := map[string]any{"volume": horizon.TranslateVolumeFields(b.cinderVersion, fields)}

	var data struct {
		Volume horizon.VolumeRecord `json:"volume"`
	}
	_, err = client.Post(ctx, client.ServiceURL("volumes"), body, &data, nil)
	if err != nil {
		return horizon.Volume{}, wrapError(err, "cannot create volume %q", req.Name)
	}
	return data.Volume.Volume, nil
}

// DeleteVolume implements the horizon.Backend interface.
func (b *backend) DeleteVolume(ctx context.Context, id string) error {
	client, err := b.blockStorageClient()
	if err != nil {
		return err
	}
	_, err = client.Delete(ctx, client.ServiceURL("volumes", id), nil)
	return wrapError(err, "cannot delete volume %s", id)
}

// ListVolumeSnapshots implements the horizon.Backend interface.
func (b *backend) ListVolumeSnapshots(ctx context.Context, req horizon.PageRequest) (horizon.Page[horizon.VolumeSnapshot], error) {
	client, err := b.blockStorageClient()
	if err != nil {
		return horizon.Page[horizon.VolumeSnapshot]{}, err
	}

	var data struct {
		Snapshots []horizon.SnapshotRecord `json:"snapshots"`
	}
	listURL := client.ServiceURL("snapshots", "detail") + "?" + b.cinderListQuery(req).Encode()
	_, err = client.Get(ctx, listURL, &data, nil)
	if err != nil {
		return horizon.Page[horizon.VolumeSnapshot]{}, wrapError(err, "cannot list volume snapshots")
	}

	result := make([]horizon.VolumeSnapshot, len(data.Snapshots))
	for idx, s := range data.Snapshots {
		result[idx] = s.VolumeSnapshot
	}
	return cinderPage(b.cinderVersion, result, req), nil
}

// CreateVolumeSnapshot implements the horizon.Backend interface.
func (b *backend) CreateVolumeSnapshot(ctx context.Context, req horizon.SnapshotCreateRequest) (horizon.VolumeSnapshot, error) {
	client, err := b.blockStorageClient()
	if err != nil {
		return horizon.VolumeSnapshot{}, err
	}

	fields := map[string]any{
		"volume_id":   req.VolumeID,
		"name":        req.Name,
		"description": req.Description,
		"force":       req.Force,
	}
	body := map[string]any{"snapshot": horizon.TranslateVolumeFields(b.cinderVersion, fields)}

	var data struct {
		Snapshot horizon.SnapshotRecord `json:"snapshot"`
	}
	_, err = client.Post(ctx, client.ServiceURL("snapshots"), body, &data, nil)
	if err != nil {
		return horizon.VolumeSnapshot{}, wrapError(err, "cannot create snapshot of volume %s", req.VolumeID)
	}
	return data.Snapshot.VolumeSnapshot, nil
}

// DeleteVolumeSnapshot implements the horizon.Backend interface.
func (b *backend) DeleteVolumeSnapshot(ctx context.Context, id string) error {
	client, err := b.blockStorageClient()
	if err != nil {
		return err
	}
	_, err = client.Delete(ctx, client.ServiceURL("snapshots", id), nil)
	return wrapError(err, "cannot delete volume snapshot %s", id)
}

// CreateVolumeBackup implements the horizon.Backend interface.
func (b *backend) CreateVolumeBackup(ctx context.Context, req horizon.BackupCreateRequest) (horizon.VolumeBackup, error) {
	client, err := b.blockStorageClient()
	if err != nil {
		return horizon.VolumeBackup{}, err
	}

	// backups were introduced after the v1 rename, so they always use "name"
	fields := map[string]any{
		"volume_id":   req.VolumeID,
		"name":        req.Name,
		"description": req.Description,
		"incremental": req.Incremental,
	}
	if req.Container != "" {
		fields["container"] = req.Container
	}

	var data struct {
		Backup horizon.VolumeBackup `json:"backup"`
	}
	_, err = client.Post(ctx, client.ServiceURL("backups"), map[string]any{"backup": fields}, &data, nil)
	if err != nil {
		return horizon.VolumeBackup{}, wrapError(err, "cannot create backup of volume %s", req.VolumeID)
	}
	if data.Backup.VolumeID == "" {
		data.Backup.VolumeID = req.VolumeID
	}
	return data.Backup, nil
}
