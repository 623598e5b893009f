// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package openstack

import (
	"context"

	"github.com/gophercloud/gophercloud/v2/openstack/objectstorage/v1/containers"
	"github.com/gophercloud/gophercloud/v2/openstack/objectstorage/v1/objects"
	"github.com/gophercloud/gophercloud/v2/pagination"
	"github.com/majewsky/schwift/v2"

	"github.com/sapcc/horizon/internal/horizon"
)

// Swift listings are sorted by name and can only be walked forwards, so
// PageRequest.SortDirection is ignored here.

// ListContainers implements the horizon.Backend interface.
func (b *backend) ListContainers(ctx context.Context, req horizon.PageRequest) (horizon.Page[horizon.Container], error) {
	client, err := b.objectStoreClient()
	if err != nil {
		return horizon.Page[horizon.Container]{}, err
	}

	opts := containers.ListOpts{
		Limit:  req.FetchLimit(),
		Marker: req.Marker,
		Prefix: req.Filter("prefix"),
	}
	var result []horizon.Container
	err = firstPage(ctx, containers.List(client, opts), func(page pagination.Page) error {
		list, err := containers.ExtractInfo(page)
		for _, c := range list {
			result = append(result, horizon.Container{
				Name:        c.Name,
				ObjectCount: uint64(c.Count),
				BytesUsed:   uint64(c.Bytes),
			})
		}
		return err
	})
	if err != nil {
		return horizon.Page[horizon.Container]{}, wrapError(err, "cannot list containers")
	}
	return horizon.PaginateNextOnly(result, req), nil
}

// CreateContainer implements the horizon.Backend interface.
func (b *backend) CreateContainer(ctx context.Context, req horizon.ContainerCreateRequest) error {
	account, err := b.swiftAccount()
	if err != nil {
		return err
	}
	hdr := schwift.NewContainerHeaders()
	if req.Public {
		hdr.ReadACL().Set(".r:*,.rlistings")
	}
	err = account.Container(req.Name).Create(ctx, hdr.ToOpts())
	return wrapError(err, "cannot create container %q", req.Name)
}

// DeleteContainer implements the horizon.Backend interface.
func (b *backend) DeleteContainer(ctx context.Context, name string) error {
	account, err := b.swiftAccount()
	if err != nil {
		return err
	}
	err = account.Container(name).Delete(ctx, nil)
	return wrapError(err, "cannot delete container %q", name)
}

// ListObjects implements the horizon.Backend interface.
func (b *backend) ListObjects(ctx context.Context, containerName string, req horizon.PageRequest) (horizon.Page[horizon.Object], error) {
	client, err := b.objectStoreClient()
	if err != nil {
		return horizon.Page[horizon.Object]{}, err
	}

	opts := objects.ListOpts{
		Limit:  req.FetchLimit(),
		Marker: req.Marker,
		Prefix: req.Filter("prefix"),
	}
	var result []horizon.Object
	err = firstPage(ctx, objects.List(client, containerName, opts), func(page pagination.Page) error {
		list, err := objects.ExtractInfo(page)
		for _, o := range list {
			result = append(result, horizon.Object{
				Name:         o.Name,
				SizeBytes:    uint64(o.Bytes),
				ContentType:  o.ContentType,
				LastModified: o.LastModified,
			})
		}
		return err
	})
	if err != nil {
		return horizon.Page[horizon.Object]{}, wrapError(err, "cannot list objects in container %q", containerName)
	}
	return horizon.PaginateNextOnly(result, req), nil
}
