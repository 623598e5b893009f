// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

// Package openstack contains:
//
//   - the AuthDriver "keystone": Users log in with their Keystone credentials.
//     The resulting token is kept in the session and revalidated on every request.
//
//   - the BackendDriver "openstack": All OpenStack API calls are made with the
//     token of the logged-in user, using the service catalog from that token.
package openstack

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack"
	"github.com/gophercloud/gophercloud/v2/openstack/identity/v3/tokens"
	"github.com/redis/go-redis/v9"
	"github.com/sapcc/go-bits/gopherpolicy"
	"github.com/sapcc/go-bits/logg"
	"gopkg.in/yaml.v2"

	"github.com/sapcc/horizon/internal/horizon"
)

type keystoneDriver struct {
	// configuration
	AuthURL string `json:"auth_url"`

	// state
	IdentityV3     *gophercloud.ServiceClient `json:"-"`
	TokenValidator *gopherpolicy.TokenValidator `json:"-"`
	cacher         *redisCacher
}

func init() {
	horizon.AuthDriverRegistry.Add(func() horizon.AuthDriver { return &keystoneDriver{} })
}

// PluginTypeID implements the horizon.AuthDriver interface.
func (d *keystoneDriver) PluginTypeID() string { return "keystone" }

// Init implements the horizon.AuthDriver interface.
func (d *keystoneDriver) Init(ctx context.Context, cfg horizon.Configuration, rc *redis.Client) error {
	if d.AuthURL == "" {
		return errors.New(`missing required parameter "auth_url"`)
	}

	provider, err := openstack.NewClient(d.AuthURL)
	if err != nil {
		return fmt.Errorf("cannot initialize OpenStack client for %s: %w", d.AuthURL, err)
	}
	// use http.DefaultClient, esp. to pick up the HORIZON_INSECURE flag
	provider.HTTPClient = *http.DefaultClient

	// the dashboard does not have a service user, so the Keystone endpoint
	// comes straight from the auth URL instead of from a service catalog
	d.IdentityV3, err = openstack.NewIdentityV3(provider, gophercloud.EndpointOpts{})
	if err != nil {
		return fmt.Errorf("cannot find Keystone V3 API: %w", err)
	}

	d.TokenValidator = &gopherpolicy.TokenValidator{IdentityV3: d.IdentityV3}
	err = d.TokenValidator.LoadPolicyFile(cfg.PolicyPath, yaml.Unmarshal)
	if err != nil {
		return err
	}
	if rc != nil {
		c := newRedisCacher(rc)
		d.cacher = &c
		d.TokenValidator.Cacher = c
	}
	return nil
}

// Returns a copy of d.IdentityV3 that acts with the given token. A fresh
// ServiceClient is also needed for tokens.Create(): otherwise, a 401 would
// make Gophercloud try to reauthenticate.
func (d *keystoneDriver) identityClient(tokenID string) *gophercloud.ServiceClient {
	provider := &gophercloud.ProviderClient{
		IdentityBase:     d.IdentityV3.IdentityBase,
		IdentityEndpoint: d.IdentityV3.IdentityEndpoint,
		HTTPClient:       d.IdentityV3.HTTPClient,
		UserAgent:        d.IdentityV3.UserAgent,
	}
	if tokenID != "" {
		provider.SetToken(tokenID)
	}
	return &gophercloud.ServiceClient{
		ProviderClient: provider,
		Endpoint:       d.IdentityV3.Endpoint,
		Type:           d.IdentityV3.Type,
	}
}

// Login implements the horizon.AuthDriver interface.
func (d *keystoneDriver) Login(ctx context.Context, creds horizon.Credentials) (horizon.LoginResult, error) {
	authOpts := gophercloud.AuthOptions{
		IdentityEndpoint: d.IdentityV3.Endpoint,
		Username:         creds.UserName,
		DomainName:       creds.UserDomainName,
		Password:         creds.Password,
	}
	// without an explicit scope, Keystone scopes the token to the user's
	// default project (if any)
	if creds.ProjectName != "" {
		authOpts.Scope = &gophercloud.AuthScope{
			ProjectName: creds.ProjectName,
			DomainName:  creds.UserDomainName,
		}
	}

	result := tokens.Create(ctx, d.identityClient(""), &authOpts)
	if result.Err != nil {
		if gophercloud.ResponseCodeIs(result.Err, http.StatusUnauthorized) {
			return horizon.LoginResult{}, fmt.Errorf("cannot log in as %s@%s: %w",
				creds.UserName, creds.UserDomainName, horizon.ErrInvalidCredentials)
		}
		return horizon.LoginResult{}, fmt.Errorf("cannot obtain token from Keystone: %w", result.Err)
	}

	t := d.TokenValidator.TokenFromGophercloudResult(result)
	if t.Err != nil {
		return horizon.LoginResult{}, fmt.Errorf("cannot parse token from Keystone: %w", t.Err)
	}
	token, err := result.Extract()
	if err != nil {
		return horizon.LoginResult{}, fmt.Errorf("cannot parse token from Keystone: %w", err)
	}

	logg.Debug("user %s@%s logged in (project scope %q)", t.UserName(), t.UserDomainName(), t.ProjectScopeName())
	return horizon.LoginResult{
		TokenID:     token.ID,
		ExpiresAt:   token.ExpiresAt,
		UserName:    t.UserName(),
		ProjectName: t.ProjectScopeName(),
	}, nil
}

// CheckToken implements the horizon.AuthDriver interface.
func (d *keystoneDriver) CheckToken(ctx context.Context, tokenID string) *gopherpolicy.Token {
	// Keystone allows every token to validate itself, so we do not need a
	// service user for this
	client := d.identityClient(tokenID)
	t := d.TokenValidator.CheckCredentials(ctx, tokenID, func() gopherpolicy.TokenResult {
		return tokens.Get(ctx, client, tokenID)
	})
	t.Context.Logger = logg.Debug
	if t.Context.Request == nil {
		t.Context.Request = make(map[string]string)
	}
	return t
}

// Logout implements the horizon.AuthDriver interface.
func (d *keystoneDriver) Logout(ctx context.Context, tokenID string) error {
	if d.cacher != nil {
		d.cacher.forgetToken(ctx, tokenID)
	}
	err := tokens.Revoke(ctx, d.identityClient(tokenID), tokenID).ExtractErr()
	if err != nil && !gophercloud.ResponseCodeIs(err, http.StatusNotFound) {
		return fmt.Errorf("cannot revoke token: %w", err)
	}
	return nil
}
