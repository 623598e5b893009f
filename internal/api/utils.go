// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"

	"github.com/sapcc/horizon/internal/horizon"
)

// lister describes one list endpoint, e.g. "cinder/volumes".
type lister struct {
	// Rule is the policy rule for this list, same as in the dashboard.
	Rule        string
	Filters     []string
	// ForwardOnly is set for backends that cannot page backwards.
	ForwardOnly bool
	List        func(ctx context.Context, b horizon.Backend, req horizon.PageRequest) (ListResponse, error)
}

var listers = map[string]lister{
	"nova/servers": {
		Rule:        horizon.RuleListServers,
		Filters:     []string{"name", "status"},
		ForwardOnly: true,
		List: func(ctx context.Context, b horizon.Backend, req horizon.PageRequest) (ListResponse, error) {
			return toListResponse(b.ListServers(ctx, req))
		},
	},
	"cinder/volumes": {
		Rule:    horizon.RuleListVolumes,
		Filters: []string{"name", "status"},
		List: func(ctx context.Context, b horizon.Backend, req horizon.PageRequest) (ListResponse, error) {
			return toListResponse(b.ListVolumes(ctx, req))
		},
	},
	"cinder/snapshots": {
		Rule:    horizon.RuleListSnapshots,
		Filters: []string{"name", "status"},
		List: func(ctx context.Context, b horizon.Backend, req horizon.PageRequest) (ListResponse, error) {
			return toListResponse(b.ListVolumeSnapshots(ctx, req))
		},
	},
	"glance/images": {
		Rule:    horizon.RuleListImages,
		Filters: []string{"name"},
		List: func(ctx context.Context, b horizon.Backend, req horizon.PageRequest) (ListResponse, error) {
			return toListResponse(b.ListImages(ctx, req))
		},
	},
	"swift/containers": {
		Rule:        horizon.RuleListContainers,
		Filters:     []string{"prefix"},
		ForwardOnly: true,
		List: func(ctx context.Context, b horizon.Backend, req horizon.PageRequest) (ListResponse, error) {
			return toListResponse(b.ListContainers(ctx, req))
		},
	},
	"neutron/networks": {
		Rule: horizon.RuleListNetworks,
		List: func(ctx context.Context, b horizon.Backend, _ horizon.PageRequest) (ListResponse, error) {
			return toListResponse(b.ListNetworks(ctx))
		},
	},
	"keystone/users": {
		Rule: horizon.RuleListUsers,
		List: func(ctx context.Context, b horizon.Backend, _ horizon.PageRequest) (ListResponse, error) {
			return toListResponse(b.ListUsers(ctx))
		},
	},
}

func toListResponse[T horizon.Identifiable](page horizon.Page[T], err error) (ListResponse, error) {
	if err != nil {
		return ListResponse{}, err
	}
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse{
		Items:       items,
		HasMoreData: page.HasMore,
		HasPrevData: page.HasPrev,
	}, nil
}
