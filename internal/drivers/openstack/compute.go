// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package openstack

import (
	"context"
	"slices"

	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/flavors"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/servers"
	"github.com/gophercloud/gophercloud/v2/pagination"

	"github.com/sapcc/horizon/internal/horizon"
)

// ListServers implements the horizon.Backend interface.
func (b *backend) ListServers(ctx context.Context, req horizon.PageRequest) (horizon.Page[horizon.Server], error) {
	client, err := b.computeClient()
	if err != nil {
		return horizon.Page[horizon.Server]{}, err
	}

	opts := servers.ListOpts{
		Marker: req.Marker,
		Limit:  req.FetchLimit(),
		Name:   req.Filter("name"),
		Status: req.Filter("status"),
	}
	var result []horizon.Server
	err = firstPage(ctx, servers.List(client, opts), func(page pagination.Page) error {
		list, err := servers.ExtractServers(page)
		for _, s := range list {
			result = append(result, convertServer(s))
		}
		return err
	})
	if err != nil {
		return horizon.Page[horizon.Server]{}, wrapError(err, "cannot list servers")
	}
	return horizon.PaginateNextOnly(result, req), nil
}

// GetServer implements the horizon.Backend interface.
func (b *backend) GetServer(ctx context.Context, id string) (horizon.Server, error) {
	client, err := b.computeClient()
	if err != nil {
		return horizon.Server{}, err
	}
	s, err := servers.Get(ctx, client, id).Extract()
	if err != nil {
		return horizon.Server{}, wrapError(err, "cannot show server %s", id)
	}
	return convertServer(*s), nil
}

// DeleteServer implements the horizon.Backend interface.
func (b *backend) DeleteServer(ctx context.Context, id string) error {
	client, err := b.computeClient()
	if err != nil {
		return err
	}
	err = servers.Delete(ctx, client, id).ExtractErr()
	return wrapError(err, "cannot delete server %s", id)
}

// RebootServer implements the horizon.Backend interface.
func (b *backend) RebootServer(ctx context.Context, id string, hard bool) error {
	client, err := b.computeClient()
	if err != nil {
		return err
	}
	opts := servers.RebootOpts{Type: servers.SoftReboot}
	if hard {
		opts.Type = servers.HardReboot
	}
	err = servers.Reboot(ctx, client, id, opts).ExtractErr()
	return wrapError(err, "cannot reboot server %s", id)
}

// ListFlavors implements the horizon.Backend interface.
func (b *backend) ListFlavors(ctx context.Context) (horizon.Page[horizon.Flavor], error) {
	client, err := b.computeClient()
	if err != nil {
		return horizon.Page[horizon.Flavor]{}, err
	}
	page, err := flavors.ListDetail(client, flavors.ListOpts{AccessType: flavors.AllAccess}).AllPages(ctx)
	if err != nil {
		return horizon.Page[horizon.Flavor]{}, wrapError(err, "cannot list flavors")
	}
	list, err := flavors.ExtractFlavors(page)
	if err != nil {
		return horizon.Page[horizon.Flavor]{}, wrapError(err, "cannot list flavors")
	}

	result := make([]horizon.Flavor, len(list))
	for idx, f := range list {
		result[idx] = horizon.Flavor{
			ID:       f.ID,
			Name:     f.Name,
			VCPUs:    f.VCPUs,
			RAMMiB:   f.RAM,
			DiskGiB:  f.Disk,
			IsPublic: f.IsPublic,
		}
	}
	return horizon.FullListPage(result), nil
}

func convertServer(s servers.Server) horizon.Server {
	result := horizon.Server{
		ID:        s.ID,
		Name:      s.Name,
		Status:    s.Status,
		ProjectID: s.TenantID,
		CreatedAt: s.Created,
	}
	if id, ok := s.Flavor["id"].(string); ok {
		result.FlavorID = id
	}
	if id, ok := s.Image["id"].(string); ok {
		result.ImageID = id
	}

	// Addresses looks like {"network-name": [{"addr": "10.0.0.1", ...}, ...]}
	for _, addrs := range s.Addresses {
		addrList, ok := addrs.([]any)
		if !ok {
			continue
		}
		for _, addr := range addrList {
			addrMap, ok := addr.(map[string]any)
			if !ok {
				continue
			}
			if ip, ok := addrMap["addr"].(string); ok {
				result.IPAddresses = append(result.IPAddresses, ip)
			}
		}
	}
	slices.Sort(result.IPAddresses)
	return result
}
