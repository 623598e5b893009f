// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sapcc/go-bits/gopherpolicy"

	"github.com/sapcc/horizon/internal/horizon"
)

// BackendDriver (driver ID "unittest") is a horizon.BackendDriver that hands
// out the same in-memory Backend to every user.
type BackendDriver struct {
	Backend *Backend
}

func init() {
	horizon.BackendDriverRegistry.Add(func() horizon.BackendDriver { return &BackendDriver{} })
}

// PluginTypeID implements the horizon.BackendDriver interface.
func (d *BackendDriver) PluginTypeID() string { return "unittest" }

// Init implements the horizon.BackendDriver interface.
func (d *BackendDriver) Init(ctx context.Context, cfg horizon.Configuration) error {
	d.Backend = NewBackend()
	return nil
}

// Connect implements the horizon.BackendDriver interface.
func (d *BackendDriver) Connect(ctx context.Context, token *gopherpolicy.Token) (horizon.Backend, error) {
	if token.Err != nil {
		return nil, token.Err
	}
	return d.Backend, nil
}

// Backend is an in-memory horizon.Backend. All lists are kept in display
// order (newest first). Paging behaves like the respective OpenStack service:
// Cinder and Glance page in both directions, Nova and Swift only forwards,
// Keystone and Neutron not at all.
type Backend struct {
	Servers    []horizon.Server
	Flavors    []horizon.Flavor
	Volumes    []horizon.Volume
	Snapshots  []horizon.VolumeSnapshot
	Backups    []horizon.VolumeBackup
	Images     []horizon.Image
	Networks   []horizon.Network
	Users      []horizon.User
	Projects   []horizon.Project
	Containers []horizon.Container
	Objects    map[string][]horizon.Object
	// PublicContainers records which containers were created with a public ACL.
	PublicContainers map[string]bool
	// RebootedServers records "id" for soft reboots and "id:hard" for hard reboots.
	RebootedServers []string

	// Errors contains errors that shall be returned by the method of the same
	// name (e.g. "ListVolumes") instead of doing anything.
	Errors map[string]error
	// PageRequests records the PageRequest of each list call, by method name.
	PageRequests map[string]horizon.PageRequest

	idCounter int
}

var _ horizon.Backend = &Backend{}

// NewBackend creates an empty Backend.
func NewBackend() *Backend {
	return &Backend{
		Objects:          make(map[string][]horizon.Object),
		PublicContainers: make(map[string]bool),
		Errors:           make(map[string]error),
		PageRequests:     make(map[string]horizon.PageRequest),
	}
}

// ErrBackendDown is a generic error for use with Backend.Errors.
var ErrBackendDown = errors.New("service unavailable")

func (b *Backend) forcedError(method string) error {
	err := b.Errors[method]
	if err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}
	return nil
}

func (b *Backend) nextID(prefix string) string {
	b.idCounter++
	return fmt.Sprintf("%s-%d", prefix, b.idCounter)
}

type pagingMode int

const (
	pagingBidirectional pagingMode = iota
	pagingNextOnly
)

// listPage emulates a list call with limit/marker/sort_dir on the given list.
func listPage[T horizon.Identifiable](all []T, req horizon.PageRequest, mode pagingMode, match func(T) bool) (horizon.Page[T], error) {
	var filtered []T
	for _, item := range all {
		if match == nil || match(item) {
			filtered = append(filtered, item)
		}
	}

	walkBackwards := mode == pagingBidirectional && req.SortDirection == horizon.SortAscending
	var candidates []T
	switch {
	case req.Marker == "":
		candidates = filtered
		if walkBackwards {
			candidates = slices.Clone(filtered)
			slices.Reverse(candidates)
		}
	default:
		idx := slices.IndexFunc(filtered, func(item T) bool { return item.GetID() == req.Marker })
		if idx < 0 {
			// this is what Nova and Cinder do for unknown markers
			return horizon.Page[T]{}, fmt.Errorf("marker [%s] not found", req.Marker)
		}
		if walkBackwards {
			candidates = slices.Clone(filtered[:idx])
			slices.Reverse(candidates)
		} else {
			candidates = filtered[idx+1:]
		}
	}

	if len(candidates) > req.FetchLimit() {
		candidates = candidates[:req.FetchLimit()]
	}
	if mode == pagingNextOnly {
		return horizon.PaginateNextOnly(candidates, req), nil
	}
	return horizon.UpdatePagination(candidates, req), nil
}

func matchField(req horizon.PageRequest, name, value string) bool {
	expected := req.Filter(name)
	return expected == "" || expected == value
}

func findByID[T horizon.Identifiable](list []T, id string) (T, int, error) {
	idx := slices.IndexFunc(list, func(item T) bool { return item.GetID() == id })
	if idx < 0 {
		var zero T
		return zero, -1, fmt.Errorf("no such object %q: %w", id, horizon.ErrNotFound)
	}
	return list[idx], idx, nil
}

func deleteByID[T horizon.Identifiable](list []T, id string) ([]T, error) {
	_, idx, err := findByID(list, id)
	if err != nil {
		return list, err
	}
	return slices.Delete(list, idx, idx+1), nil
}

////////////////////////////////////////////////////////////////////////////////
// compute

// ListServers implements the horizon.Backend interface.
func (b *Backend) ListServers(ctx context.Context, req horizon.PageRequest) (horizon.Page[horizon.Server], error) {
	b.PageRequests["ListServers"] = req
	if err := b.forcedError("ListServers"); err != nil {
		return horizon.Page[horizon.Server]{}, err
	}
	return listPage(b.Servers, req, pagingNextOnly, func(s horizon.Server) bool {
		return matchField(req, "name", s.Name) && matchField(req, "status", s.Status)
	})
}

// GetServer implements the horizon.Backend interface.
func (b *Backend) GetServer(ctx context.Context, id string) (horizon.Server, error) {
	if err := b.forcedError("GetServer"); err != nil {
		return horizon.Server{}, err
	}
	s, _, err := findByID(b.Servers, id)
	return s, err
}

// DeleteServer implements the horizon.Backend interface.
func (b *Backend) DeleteServer(ctx context.Context, id string) error {
	if err := b.forcedError("DeleteServer"); err != nil {
		return err
	}
	var err error
	b.Servers, err = deleteByID(b.Servers, id)
	return err
}

// RebootServer implements the horizon.Backend interface.
func (b *Backend) RebootServer(ctx context.Context, id string, hard bool) error {
	if err := b.forcedError("RebootServer"); err != nil {
		return err
	}
	_, _, err := findByID(b.Servers, id)
	if err != nil {
		return err
	}
	if hard {
		id += ":hard"
	}
	b.RebootedServers = append(b.RebootedServers, id)
	return nil
}

// ListFlavors implements the horizon.Backend interface.
func (b *Backend) ListFlavors(ctx context.Context) (horizon.Page[horizon.Flavor], error) {
	if err := b.forcedError("ListFlavors"); err != nil {
		return horizon.Page[horizon.Flavor]{}, err
	}
	return horizon.FullListPage(b.Flavors), nil
}

////////////////////////////////////////////////////////////////////////////////
// block storage

// ListVolumes implements the horizon.Backend interface.
func (b *Backend) ListVolumes(ctx context.Context, req horizon.PageRequest) (horizon.Page[horizon.Volume], error) {
	b.PageRequests["ListVolumes"] = req
	if err := b.forcedError("ListVolumes"); err != nil {
		return horizon.Page[horizon.Volume]{}, err
	}
	return listPage(b.Volumes, req, pagingBidirectional, func(v horizon.Volume) bool {
		return matchField(req, "name", v.Name) && matchField(req, "status", v.Status)
	})
}

// GetVolume implements the horizon.Backend interface.
func (b *Backend) GetVolume(ctx context.Context, id string) (horizon.Volume, error) {
	if err := b.forcedError("GetVolume"); err != nil {
		return horizon.Volume{}, err
	}
	v, _, err := findByID(b.Volumes, id)
	return v, err
}

// CreateVolume implements the horizon.Backend interface.
func (b *Backend) CreateVolume(ctx context.Context, req horizon.VolumeCreateRequest) (horizon.Volume, error) {
	if err := b.forcedError("CreateVolume"); err != nil {
		return horizon.Volume{}, err
	}
	v := horizon.Volume{
		ID:               b.nextID("volume"),
		Name:             req.Name,
		Description:      req.Description,
		Status:           "creating",
		SizeGiB:          req.SizeGiB,
		VolumeType:       req.VolumeType,
		AvailabilityZone: req.AvailabilityZone,
	}
	b.Volumes = slices.Insert(b.Volumes, 0, v)
	return v, nil
}

// DeleteVolume implements the horizon.Backend interface.
func (b *Backend) DeleteVolume(ctx context.Context, id string) error {
	if err := b.forcedError("DeleteVolume"); err != nil {
		return err
	}
	var err error
	b.Volumes, err = deleteByID(b.Volumes, id)
	return err
}

// ListVolumeSnapshots implements the horizon.Backend interface.
func (b *Backend) ListVolumeSnapshots(ctx context.Context, req horizon.PageRequest) (horizon.Page[horizon.VolumeSnapshot], error) {
	b.PageRequests["ListVolumeSnapshots"] = req
	if err := b.forcedError("ListVolumeSnapshots"); err != nil {
		return horizon.Page[horizon.VolumeSnapshot]{}, err
	}
	return listPage(b.Snapshots, req, pagingBidirectional, func(s horizon.VolumeSnapshot) bool {
		return matchField(req, "name", s.Name) && matchField(req, "status", s.Status)
	})
}

// CreateVolumeSnapshot implements the horizon.Backend interface.
func (b *Backend) CreateVolumeSnapshot(ctx context.Context, req horizon.SnapshotCreateRequest) (horizon.VolumeSnapshot, error) {
	if err := b.forcedError("CreateVolumeSnapshot"); err != nil {
		return horizon.VolumeSnapshot{}, err
	}
	v, _, err := findByID(b.Volumes, req.VolumeID)
	if err != nil {
		return horizon.VolumeSnapshot{}, err
	}
	if len(v.AttachedTo) > 0 && !req.Force {
		return horizon.VolumeSnapshot{}, fmt.Errorf("volume %s is attached, use force to snapshot it anyway", v.ID)
	}
	s := horizon.VolumeSnapshot{
		ID:          b.nextID("snapshot"),
		Name:        req.Name,
		Description: req.Description,
		Status:      "creating",
		SizeGiB:     v.SizeGiB,
		VolumeID:    v.ID,
	}
	b.Snapshots = slices.Insert(b.Snapshots, 0, s)
	return s, nil
}

// DeleteVolumeSnapshot implements the horizon.Backend interface.
func (b *Backend) DeleteVolumeSnapshot(ctx context.Context, id string) error {
	if err := b.forcedError("DeleteVolumeSnapshot"); err != nil {
		return err
	}
	var err error
	b.Snapshots, err = deleteByID(b.Snapshots, id)
	return err
}

// CreateVolumeBackup implements the horizon.Backend interface.
func (b *Backend) CreateVolumeBackup(ctx context.Context, req horizon.BackupCreateRequest) (horizon.VolumeBackup, error) {
	if err := b.forcedError("CreateVolumeBackup"); err != nil {
		return horizon.VolumeBackup{}, err
	}
	_, _, err := findByID(b.Volumes, req.VolumeID)
	if err != nil {
		return horizon.VolumeBackup{}, err
	}
	container := req.Container
	if container == "" {
		container = "volumebackups"
	}
	backup := horizon.VolumeBackup{
		ID:        b.nextID("backup"),
		Name:      req.Name,
		VolumeID:  req.VolumeID,
		Status:    "creating",
		Container: container,
	}
	b.Backups = slices.Insert(b.Backups, 0, backup)
	return backup, nil
}

////////////////////////////////////////////////////////////////////////////////
// image

// ListImages implements the horizon.Backend interface.
func (b *Backend) ListImages(ctx context.Context, req horizon.PageRequest) (horizon.Page[horizon.Image], error) {
	b.PageRequests["ListImages"] = req
	if err := b.forcedError("ListImages"); err != nil {
		return horizon.Page[horizon.Image]{}, err
	}
	return listPage(b.Images, req, pagingBidirectional, func(img horizon.Image) bool {
		return matchField(req, "name", img.Name)
	})
}

// GetImage implements the horizon.Backend interface.
func (b *Backend) GetImage(ctx context.Context, id string) (horizon.Image, error) {
	if err := b.forcedError("GetImage"); err != nil {
		return horizon.Image{}, err
	}
	img, _, err := findByID(b.Images, id)
	return img, err
}

// DeleteImage implements the horizon.Backend interface.
func (b *Backend) DeleteImage(ctx context.Context, id string) error {
	if err := b.forcedError("DeleteImage"); err != nil {
		return err
	}
	img, _, err := findByID(b.Images, id)
	if err != nil {
		return err
	}
	if img.Protected {
		return fmt.Errorf("image %s is protected", id)
	}
	b.Images, err = deleteByID(b.Images, id)
	return err
}

////////////////////////////////////////////////////////////////////////////////
// network

// ListNetworks implements the horizon.Backend interface.
func (b *Backend) ListNetworks(ctx context.Context) (horizon.Page[horizon.Network], error) {
	if err := b.forcedError("ListNetworks"); err != nil {
		return horizon.Page[horizon.Network]{}, err
	}
	return horizon.FullListPage(b.Networks), nil
}

// GetNetwork implements the horizon.Backend interface.
func (b *Backend) GetNetwork(ctx context.Context, id string) (horizon.Network, error) {
	if err := b.forcedError("GetNetwork"); err != nil {
		return horizon.Network{}, err
	}
	n, _, err := findByID(b.Networks, id)
	return n, err
}

////////////////////////////////////////////////////////////////////////////////
// identity

// ListUsers implements the horizon.Backend interface.
func (b *Backend) ListUsers(ctx context.Context) (horizon.Page[horizon.User], error) {
	if err := b.forcedError("ListUsers"); err != nil {
		return horizon.Page[horizon.User]{}, err
	}
	return horizon.FullListPage(b.Users), nil
}

// GetUser implements the horizon.Backend interface.
func (b *Backend) GetUser(ctx context.Context, id string) (horizon.User, error) {
	if err := b.forcedError("GetUser"); err != nil {
		return horizon.User{}, err
	}
	u, _, err := findByID(b.Users, id)
	return u, err
}

// ListProjects implements the horizon.Backend interface.
func (b *Backend) ListProjects(ctx context.Context) (horizon.Page[horizon.Project], error) {
	if err := b.forcedError("ListProjects"); err != nil {
		return horizon.Page[horizon.Project]{}, err
	}
	return horizon.FullListPage(b.Projects), nil
}

////////////////////////////////////////////////////////////////////////////////
// object storage

// ListContainers implements the horizon.Backend interface.
func (b *Backend) ListContainers(ctx context.Context, req horizon.PageRequest) (horizon.Page[horizon.Container], error) {
	b.PageRequests["ListContainers"] = req
	if err := b.forcedError("ListContainers"); err != nil {
		return horizon.Page[horizon.Container]{}, err
	}
	return listPage(b.Containers, req, pagingNextOnly, func(c horizon.Container) bool {
		return strings.HasPrefix(c.Name, req.Filter("prefix"))
	})
}

// CreateContainer implements the horizon.Backend interface.
func (b *Backend) CreateContainer(ctx context.Context, req horizon.ContainerCreateRequest) error {
	if err := b.forcedError("CreateContainer"); err != nil {
		return err
	}
	if slices.ContainsFunc(b.Containers, func(c horizon.Container) bool { return c.Name == req.Name }) {
		return fmt.Errorf("container %q already exists", req.Name)
	}
	// Swift lists containers in lexicographical order
	b.Containers = append(b.Containers, horizon.Container{Name: req.Name})
	slices.SortFunc(b.Containers, func(lhs, rhs horizon.Container) int {
		return strings.Compare(lhs.Name, rhs.Name)
	})
	b.PublicContainers[req.Name] = req.Public
	return nil
}

// DeleteContainer implements the horizon.Backend interface.
func (b *Backend) DeleteContainer(ctx context.Context, name string) error {
	if err := b.forcedError("DeleteContainer"); err != nil {
		return err
	}
	if len(b.Objects[name]) > 0 {
		return fmt.Errorf("container %q is not empty", name)
	}
	var err error
	b.Containers, err = deleteByID(b.Containers, name)
	delete(b.PublicContainers, name)
	return err
}

// ListObjects implements the horizon.Backend interface.
func (b *Backend) ListObjects(ctx context.Context, containerName string, req horizon.PageRequest) (horizon.Page[horizon.Object], error) {
	b.PageRequests["ListObjects"] = req
	if err := b.forcedError("ListObjects"); err != nil {
		return horizon.Page[horizon.Object]{}, err
	}
	_, _, err := findByID(b.Containers, containerName)
	if err != nil {
		return horizon.Page[horizon.Object]{}, err
	}
	return listPage(b.Objects[containerName], req, pagingNextOnly, func(o horizon.Object) bool {
		return strings.HasPrefix(o.Name, req.Filter("prefix"))
	})
}
