// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package test

import (
	"context"
	"errors"
	"fmt"
	"time"

	policy "github.com/databus23/goslo.policy"
	"github.com/redis/go-redis/v9"
	"github.com/sapcc/go-bits/gopherpolicy"
	"github.com/sapcc/go-bits/mock"

	"github.com/sapcc/horizon/internal/horizon"
)

// Well-known credentials for the AuthDriver.
const (
	UserName       = "alice"
	UserDomainName = "Default"
	UserPassword   = "swordfish"
	UserID         = "uuid-for-alice"
	ProjectName    = "demo"
	ProjectID      = "uuid-for-demo"
	DomainID       = "uuid-for-default"
)

// ErrTokenInvalid is reported by AuthDriver.CheckToken for unknown or revoked tokens.
var ErrTokenInvalid = errors.New("the request you have made requires authentication")

// AuthDriver (driver ID "unittest") is a horizon.AuthDriver that accepts
// exactly one user and issues tokens with a configurable lifetime.
type AuthDriver struct {
	Enforcer *mock.Enforcer
	// TokenLifetime defaults to 24 hours.
	TokenLifetime time.Duration
	// LoginError, if set, is returned by Login for the correct credentials.
	LoginError error

	timeNow      func() time.Time
	validTokens  map[string]bool
	tokenCounter int
}

func init() {
	horizon.AuthDriverRegistry.Add(func() horizon.AuthDriver { return &AuthDriver{} })
}

// PluginTypeID implements the horizon.AuthDriver interface.
func (d *AuthDriver) PluginTypeID() string { return "unittest" }

// Init implements the horizon.AuthDriver interface.
func (d *AuthDriver) Init(ctx context.Context, cfg horizon.Configuration, rc *redis.Client) error {
	d.Enforcer = mock.NewEnforcer()
	d.TokenLifetime = 24 * time.Hour
	d.timeNow = time.Now
	d.validTokens = make(map[string]bool)
	return nil
}

// OverrideTimeNow replaces time.Now with a test double.
func (d *AuthDriver) OverrideTimeNow(timeNow func() time.Time) *AuthDriver {
	d.timeNow = timeNow
	return d
}

// Login implements the horizon.AuthDriver interface.
func (d *AuthDriver) Login(ctx context.Context, creds horizon.Credentials) (horizon.LoginResult, error) {
	if creds.UserName != UserName || creds.UserDomainName != UserDomainName || creds.Password != UserPassword {
		return horizon.LoginResult{}, fmt.Errorf("cannot log in as %s@%s: %w",
			creds.UserName, creds.UserDomainName, horizon.ErrInvalidCredentials)
	}
	if creds.ProjectName != "" && creds.ProjectName != ProjectName {
		return horizon.LoginResult{}, fmt.Errorf("cannot log in as %s@%s: %w",
			creds.UserName, creds.UserDomainName, horizon.ErrInvalidCredentials)
	}
	if d.LoginError != nil {
		return horizon.LoginResult{}, d.LoginError
	}

	d.tokenCounter++
	tokenID := fmt.Sprintf("token-%d", d.tokenCounter)
	d.validTokens[tokenID] = true
	return horizon.LoginResult{
		TokenID:     tokenID,
		ExpiresAt:   d.timeNow().Add(d.TokenLifetime),
		UserName:    UserName,
		ProjectName: ProjectName,
	}, nil
}

// CheckToken implements the horizon.AuthDriver interface.
func (d *AuthDriver) CheckToken(ctx context.Context, tokenID string) *gopherpolicy.Token {
	if !d.validTokens[tokenID] {
		return &gopherpolicy.Token{Err: ErrTokenInvalid}
	}
	return &gopherpolicy.Token{
		Enforcer: d.Enforcer,
		Context: policy.Context{
			Auth: map[string]string{
				"user_id":             UserID,
				"user_name":           UserName,
				"user_domain_id":      DomainID,
				"user_domain_name":    UserDomainName,
				"project_id":          ProjectID,
				"project_name":        ProjectName,
				"project_domain_id":   DomainID,
				"project_domain_name": UserDomainName,
			},
			Roles:   []string{"member"},
			Request: map[string]string{},
		},
	}
}

// Logout implements the horizon.AuthDriver interface.
func (d *AuthDriver) Logout(ctx context.Context, tokenID string) error {
	delete(d.validTokens, tokenID)
	return nil
}

// RevokeAllTokens invalidates all tokens, as if they had expired in Keystone.
func (d *AuthDriver) RevokeAllTokens() {
	d.validTokens = make(map[string]bool)
}
