// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package horizon

import "time"

// The types in this file are read-through proxies for the resources returned
// by the OpenStack APIs. They only contain the fields that the dashboard
// renders.

// Server is a Nova instance.
type Server struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	FlavorID    string    `json:"flavor_id"`
	ImageID     string    `json:"image_id"`
	IPAddresses []string  `json:"ip_addresses"`
	ProjectID   string    `json:"project_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetID implements the Identifiable interface.
func (s Server) GetID() string { return s.ID }

// Flavor is a Nova flavor.
type Flavor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	VCPUs    int    `json:"vcpus"`
	RAMMiB   int    `json:"ram"`
	DiskGiB  int    `json:"disk"`
	IsPublic bool   `json:"is_public"`
}

// GetID implements the Identifiable interface.
func (f Flavor) GetID() string { return f.ID }

// Volume is a Cinder volume.
type Volume struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Status           string    `json:"status"`
	SizeGiB          int       `json:"size"`
	VolumeType       string    `json:"volume_type"`
	AvailabilityZone string    `json:"availability_zone"`
	Bootable         bool      `json:"bootable"`
	AttachedTo       []string  `json:"attached_to"`
	CreatedAt        time.Time `json:"created_at"`
}

// GetID implements the Identifiable interface.
func (v Volume) GetID() string { return v.ID }

// VolumeSnapshot is a Cinder snapshot.
type VolumeSnapshot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	SizeGiB     int       `json:"size"`
	VolumeID    string    `json:"volume_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetID implements the Identifiable interface.
func (s VolumeSnapshot) GetID() string { return s.ID }

// VolumeBackup is a Cinder backup.
type VolumeBackup struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	VolumeID  string `json:"volume_id"`
	Status    string `json:"status"`
	Container string `json:"container"`
}

// GetID implements the Identifiable interface.
func (b VolumeBackup) GetID() string { return b.ID }

// Image is a Glance image.
type Image struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	Visibility      string    `json:"visibility"`
	DiskFormat      string    `json:"disk_format"`
	ContainerFormat string    `json:"container_format"`
	SizeBytes       int64     `json:"size"`
	MinDiskGiB      int       `json:"min_disk"`
	Protected       bool      `json:"protected"`
	OwnerID         string    `json:"owner"`
	CreatedAt       time.Time `json:"created_at"`
}

// GetID implements the Identifiable interface.
func (i Image) GetID() string { return i.ID }

// Network is a Neutron network.
type Network struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	Shared       bool     `json:"shared"`
	External     bool     `json:"router:external"`
	AdminStateUp bool     `json:"admin_state_up"`
	SubnetIDs    []string `json:"subnets"`
	ProjectID    string   `json:"project_id"`
}

// GetID implements the Identifiable interface.
func (n Network) GetID() string { return n.ID }

// User is a Keystone user.
type User struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	DomainID         string `json:"domain_id"`
	DefaultProjectID string `json:"default_project_id"`
	Enabled          bool   `json:"enabled"`
}

// GetID implements the Identifiable interface.
func (u User) GetID() string { return u.ID }

// Project is a Keystone project.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DomainID    string `json:"domain_id"`
	Enabled     bool   `json:"enabled"`
}

// GetID implements the Identifiable interface.
func (p Project) GetID() string { return p.ID }

// Container is a Swift container. Swift identifies containers by name.
type Container struct {
	Name        string `json:"name"`
	ObjectCount uint64 `json:"count"`
	BytesUsed   uint64 `json:"bytes"`
}

// GetID implements the Identifiable interface.
func (c Container) GetID() string { return c.Name }

// Object is a Swift object.
type Object struct {
	Name         string    `json:"name"`
	SizeBytes    uint64    `json:"bytes"`
	ContentType  string    `json:"content_type"`
	LastModified time.Time `json:"last_modified"`
}

// GetID implements the Identifiable interface.
func (o Object) GetID() string { return o.Name }

////////////////////////////////////////////////////////////////////////////////
// create requests

// VolumeCreateRequest contains the parameters for Backend.CreateVolume.
type VolumeCreateRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	SizeGiB          int    `json:"size"`
	VolumeType       string `json:"volume_type,omitempty"`
	AvailabilityZone string `json:"availability_zone,omitempty"`
	SnapshotID       string `json:"snapshot_id,omitempty"`
}

// SnapshotCreateRequest contains the parameters for Backend.CreateVolumeSnapshot.
type SnapshotCreateRequest struct {
	VolumeID    string `json:"volume_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Force allows snapshotting volumes that are attached to a server.
	Force bool `json:"force"`
}

// BackupCreateRequest contains the parameters for Backend.CreateVolumeBackup.
type BackupCreateRequest struct {
	VolumeID    string `json:"volume_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Container   string `json:"container,omitempty"`
	Incremental bool   `json:"incremental"`
}

// ContainerCreateRequest contains the parameters for Backend.CreateContainer.
type ContainerCreateRequest struct {
	Name   string `json:"name"`
	Public bool   `json:"public"`
}
