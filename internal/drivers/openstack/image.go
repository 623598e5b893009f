// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package openstack

import (
	"context"

	"github.com/gophercloud/gophercloud/v2/openstack/image/v2/images"
	"github.com/gophercloud/gophercloud/v2/pagination"

	"github.com/sapcc/horizon/internal/horizon"
)

// ListImages implements the horizon.Backend interface.
func (b *backend) ListImages(ctx context.Context, req horizon.PageRequest) (horizon.Page[horizon.Image], error) {
	client, err := b.imageClient()
	if err != nil {
		return horizon.Page[horizon.Image]{}, err
	}

	opts := images.ListOpts{
		Marker:  req.Marker,
		Limit:   req.FetchLimit(),
		SortKey: "created_at",
		SortDir: string(req.SortDirection),
		Name:    req.Filter("name"),
	}
	var result []horizon.Image
	err = firstPage(ctx, images.List(client, opts), func(page pagination.Page) error {
		list, err := images.ExtractImages(page)
		for _, img := range list {
			result = append(result, convertImage(img))
		}
		return err
	})
	if err != nil {
		return horizon.Page[horizon.Image]{}, wrapError(err, "cannot list images")
	}
	return horizon.UpdatePagination(result, req), nil
}

// GetImage implements the horizon.Backend interface.
func (b *backend) GetImage(ctx context.Context, id string) (horizon.Image, error) {
	client, err := b.imageClient()
	if err != nil {
		return horizon.Image{}, err
	}
	img, err := images.Get(ctx, client, id).Extract()
	if err != nil {
		return horizon.Image{}, wrapError(err, "cannot show image %s", id)
	}
	return convertImage(*img), nil
}

// DeleteImage implements the horizon.Backend interface.
func (b *backend) DeleteImage(ctx context.Context, id string) error {
	client, err := b.imageClient()
	if err != nil {
		return err
	}
	err = images.Delete(ctx, client, id).ExtractErr()
	return wrapError(err, "cannot delete image %s", id)
}

func convertImage(img images.Image) horizon.Image {
	return horizon.Image{
		ID:              img.ID,
		Name:            img.Name,
		Status:          string(img.Status),
		Visibility:      string(img.Visibility),
		DiskFormat:      img.DiskFormat,
		ContainerFormat: img.ContainerFormat,
		SizeBytes:       img.SizeBytes,
		MinDiskGiB:      img.MinDiskGigabytes,
		Protected:       img.Protected,
		OwnerID:         img.Owner,
		CreatedAt:       img.CreatedAt,
	}
}
