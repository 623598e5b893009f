// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package horizon

import (
	"context"
	"errors"

	"github.com/sapcc/go-bits/gopherpolicy"
	"github.com/sapcc/go-bits/pluggable"
)

// ErrNotFound is returned (possibly wrapped) by Backend methods when the
// requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ComputeBackend wraps the Nova API.
type ComputeBackend interface {
	// ListServers only supports paging forward, so Page.HasPrev is always false.
	ListServers(ctx context.Context, req PageRequest) (Page[Server], error)
	GetServer(ctx context.Context, id string) (Server, error)
	DeleteServer(ctx context.Context, id string) error
	RebootServer(ctx context.Context, id string, hard bool) error
	ListFlavors(ctx context.Context) (Page[Flavor], error)
}

// BlockStorageBackend wraps the Cinder API.
type BlockStorageBackend interface {
	ListVolumes(ctx context.Context, req PageRequest) (Page[Volume], error)
	GetVolume(ctx context.Context, id string) (Volume, error)
	CreateVolume(ctx context.Context, req VolumeCreateRequest) (Volume, error)
	DeleteVolume(ctx context.Context, id string) error
	ListVolumeSnapshots(ctx context.Context, req PageRequest) (Page[VolumeSnapshot], error)
	CreateVolumeSnapshot(ctx context.Context, req SnapshotCreateRequest) (VolumeSnapshot, error)
	DeleteVolumeSnapshot(ctx context.Context, id string) error
	CreateVolumeBackup(ctx context.Context, req BackupCreateRequest) (VolumeBackup, error)
}

// ImageBackend wraps the Glance API.
type ImageBackend interface {
	ListImages(ctx context.Context, req PageRequest) (Page[Image], error)
	GetImage(ctx context.Context, id string) (Image, error)
	DeleteImage(ctx context.Context, id string) error
}

// NetworkBackend wraps the Neutron API. Neutron lists are not paged.
type NetworkBackend interface {
	ListNetworks(ctx context.Context) (Page[Network], error)
	GetNetwork(ctx context.Context, id string) (Network, error)
}

// IdentityBackend wraps the Keystone API. Keystone lists are not paged.
type IdentityBackend interface {
	ListUsers(ctx context.Context) (Page[User], error)
	GetUser(ctx context.Context, id string) (User, error)
	ListProjects(ctx context.Context) (Page[Project], error)
}

// ObjectStorageBackend wraps the Swift API. Swift listings only support
// paging forward.
type ObjectStorageBackend interface {
	ListContainers(ctx context.Context, req PageRequest) (Page[Container], error)
	CreateContainer(ctx context.Context, req ContainerCreateRequest) error
	DeleteContainer(ctx context.Context, name string) error
	ListObjects(ctx context.Context, containerName string, req PageRequest) (Page[Object], error)
}

// Backend is the set of OpenStack APIs that the dashboard talks to. A Backend
// instance always acts on behalf of one specific user token.
type Backend interface {
	ComputeBackend
	BlockStorageBackend
	ImageBackend
	NetworkBackend
	IdentityBackend
	ObjectStorageBackend
}

// BackendDriver produces Backend instances for authenticated users.
type BackendDriver interface {
	pluggable.Plugin
	// Init is called before any other interface methods, and allows the plugin
	// to perform first-time initialization.
	Init(ctx context.Context, cfg Configuration) error
	// Connect returns a Backend that uses the given token to talk to OpenStack.
	// The token has already been validated by the AuthDriver.
	Connect(ctx context.Context, token *gopherpolicy.Token) (Backend, error)
}

// BackendDriverRegistry is a pluggable.Registry for BackendDriver implementations.
var BackendDriverRegistry pluggable.Registry[BackendDriver]

// NewBackendDriver creates a new BackendDriver using one of the plugins
// registered with BackendDriverRegistry.
//
// The supplied config must be a JSON string like `{"type":"openstack","params":{...}}`.
func NewBackendDriver(ctx context.Context, configJSON string, cfg Configuration) (BackendDriver, error) {
	return newDriver("backend driver", BackendDriverRegistry, configJSON, func(d BackendDriver) error {
		return d.Init(ctx, cfg)
	})
}
