// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package openstack

import (
	"context"

	"github.com/gophercloud/gophercloud/v2/openstack/identity/v3/projects"
	"github.com/gophercloud/gophercloud/v2/openstack/identity/v3/users"

	"github.com/sapcc/horizon/internal/horizon"
)

// ListUsers implements the horizon.Backend interface.
func (b *backend) ListUsers(ctx context.Context) (horizon.Page[horizon.User], error) {
	client, err := b.identityClient()
	if err != nil {
		return horizon.Page[horizon.User]{}, err
	}
	page, err := users.List(client, users.ListOpts{}).AllPages(ctx)
	if err != nil {
		return horizon.Page[horizon.User]{}, wrapError(err, "cannot list users")
	}
	list, err := users.ExtractUsers(page)
	if err != nil {
		return horizon.Page[horizon.User]{}, wrapError(err, "cannot list users")
	}

	result := make([]horizon.User, len(list))
	for idx, u := range list {
		result[idx] = convertUser(u)
	}
	return horizon.FullListPage(result), nil
}

// GetUser implements the horizon.Backend interface.
func (b *backend) GetUser(ctx context.Context, id string) (horizon.User, error) {
	client, err := b.identityClient()
	if err != nil {
		return horizon.User{}, err
	}
	u, err := users.Get(ctx, client, id).Extract()
	if err != nil {
		return horizon.User{}, wrapError(err, "cannot show user %s", id)
	}
	return convertUser(*u), nil
}

// ListProjects implements the horizon.Backend interface.
func (b *backend) ListProjects(ctx context.Context) (horizon.Page[horizon.Project], error) {
	client, err := b.identityClient()
	if err != nil {
		return horizon.Page[horizon.Project]{}, err
	}
	page, err := projects.List(client, projects.ListOpts{}).AllPages(ctx)
	if err != nil {
		return horizon.Page[horizon.Project]{}, wrapError(err, "cannot list projects")
	}
	list, err := projects.ExtractProjects(page)
	if err != nil {
		return horizon.Page[horizon.Project]{}, wrapError(err, "cannot list projects")
	}

	result := make([]horizon.Project, len(list))
	for idx, p := range list {
		result[idx] = horizon.Project{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			DomainID:    p.DomainID,
			Enabled:     p.Enabled,
		}
	}
	return horizon.FullListPage(result), nil
}

func convertUser(u users.User) horizon.User {
	result := horizon.User{
		ID:               u.ID,
		Name:             u.Name,
		DomainID:         u.DomainID,
		DefaultProjectID: u.DefaultProjectID,
		Enabled:          u.Enabled,
	}
	// Keystone stores the email address as an unstructured extra attribute
	if email, ok := u.Extra["email"].(string); ok {
		result.Email = email
	}
	return result
}
