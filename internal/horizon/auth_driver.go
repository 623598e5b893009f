// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package horizon

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sapcc/go-bits/gopherpolicy"
	"github.com/sapcc/go-bits/pluggable"
)

// ErrInvalidCredentials is returned by AuthDriver.Login when Keystone rejects
// the supplied credentials.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials is what the user enters into the login form.
type Credentials struct {
	UserName       string
	UserDomainName string
	Password       string
	// ProjectName is optional. If empty, the token is scoped to the user's
	// default project.
	ProjectName string
}

// LoginResult describes a token that was issued by AuthDriver.Login.
type LoginResult struct {
	TokenID     string
	ExpiresAt   time.Time
	UserName    string
	ProjectName string
}

// AuthDriver represents the Keystone authentication backend. Sessions only
// store the token ID; every request revalidates that token through
// CheckToken, which also produces the policy context for authorization.
type AuthDriver interface {
	pluggable.Plugin
	// Init is called before any other interface methods, and allows the plugin
	// to perform first-time initialization. The supplied *redis.Client can be
	// stored for caching validated tokens, but only if it is non-nil.
	Init(ctx context.Context, cfg Configuration, rc *redis.Client) error

	// Login exchanges the given credentials for a token. If Keystone rejects
	// the credentials, ErrInvalidCredentials shall be returned (possibly
	// wrapped).
	Login(ctx context.Context, creds Credentials) (LoginResult, error)
	// CheckToken validates the given token. As with gopherpolicy, any errors
	// are deferred into the Err field of the returned token.
	CheckToken(ctx context.Context, tokenID string) *gopherpolicy.Token
	// Logout revokes the given token.
	Logout(ctx context.Context, tokenID string) error
}

// AuthDriverRegistry is a pluggable.Registry for AuthDriver implementations.
var AuthDriverRegistry pluggable.Registry[AuthDriver]

// NewAuthDriver creates a new AuthDriver using one of the plugins registered
// with AuthDriverRegistry.
//
// The supplied config must be a JSON string like `{"type":"keystone","params":{...}}`.
func NewAuthDriver(ctx context.Context, configJSON string, cfg Configuration, rc *redis.Client) (AuthDriver, error) {
	return newDriver("auth driver", AuthDriverRegistry, configJSON, func(ad AuthDriver) error {
		return ad.Init(ctx, cfg, rc)
	})
}
