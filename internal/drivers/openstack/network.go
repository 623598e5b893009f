// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package openstack

import (
	"context"

	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/extensions/external"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/networks"

	"github.com/sapcc/horizon/internal/horizon"
)

type networkWithExternalExt struct {
	networks.Network
	external.NetworkExternalExt
}

// ListNetworks implements the horizon.Backend interface.
func (b *backend) ListNetworks(ctx context.Context) (horizon.Page[horizon.Network], error) {
	client, err := b.networkClient()
	if err != nil {
		return horizon.Page[horizon.Network]{}, err
	}
	page, err := networks.List(client, networks.ListOpts{}).AllPages(ctx)
	if err != nil {
		return horizon.Page[horizon.Network]{}, wrapError(err, "cannot list networks")
	}
	var list []networkWithExternalExt
	err = networks.ExtractNetworksInto(page, &list)
	if err != nil {
		return horizon.Page[horizon.Network]{}, wrapError(err, "cannot list networks")
	}

	result := make([]horizon.Network, len(list))
	for idx, n := range list {
		result[idx] = convertNetwork(n)
	}
	return horizon.FullListPage(result), nil
}

// GetNetwork implements the horizon.Backend interface.
func (b *backend) GetNetwork(ctx context.Context, id string) (horizon.Network, error) {
	client, err := b.networkClient()
	if err != nil {
		return horizon.Network{}, err
	}
	var n networkWithExternalExt
	err = networks.Get(ctx, client, id).ExtractInto(&n)
	if err != nil {
		return horizon.Network{}, wrapError(err, "cannot show network %s", id)
	}
	return convertNetwork(n), nil
}

func convertNetwork(n networkWithExternalExt) horizon.Network {
	return horizon.Network{
		ID:           n.ID,
		Name:         n.Name,
		Status:       n.Status,
		Shared:       n.Shared,
		External:     n.External,
		AdminStateUp: n.AdminStateUp,
		SubnetIDs:    n.Subnets,
		ProjectID:    n.ProjectID,
	}
}
