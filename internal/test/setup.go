// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package test

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sapcc/go-bits/easypg"
	"github.com/sapcc/go-bits/httpapi"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/mock"
	"github.com/sapcc/go-bits/osext"

	"github.com/sapcc/horizon/internal/api"
	"github.com/sapcc/horizon/internal/dashboard"
	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/sessions"
)

type setupParams struct {
	SessionBackend   string
	CinderAPIVersion string
	PageSize         int
}

// SetupOption is an option that can be given to test.Setup().
type SetupOption func(*setupParams)

// WithSessionBackend is a SetupOption that selects a different session
// backend than the default "cookie". The "database" backend requires
// easypg.WithTestDB() in the TestMain of the respective package.
func WithSessionBackend(backend string) SetupOption {
	return func(params *setupParams) {
		params.SessionBackend = backend
	}
}

// WithCinderAPIVersion is a SetupOption that sets Configuration.CinderAPIVersion.
func WithCinderAPIVersion(version string) SetupOption {
	return func(params *setupParams) {
		params.CinderAPIVersion = version
	}
}

// WithPageSize is a SetupOption that sets Configuration.DefaultPageSize.
func WithPageSize(pageSize int) SetupOption {
	return func(params *setupParams) {
		params.PageSize = pageSize
	}
}

// Setup contains all the pieces that are needed for most tests.
type Setup struct {
	// fields that are always set
	Ctx        context.Context //nolint:containedctx // only used in tests
	Config     horizon.Configuration
	Clock      *mock.Clock
	AuthDriver *AuthDriver
	Backend    *Backend
	Auditor    *Auditor
	Sessions   sessions.Store
	Handler    http.Handler
	// only set for the "database" session backend
	DB *sessions.DB
}

// NewSetup prepares most or all pieces of Horizon for a test.
func NewSetup(t *testing.T, opts ...SetupOption) Setup {
	t.Helper()
	logg.ShowDebug = osext.GetenvBool("HORIZON_DEBUG")
	params := setupParams{
		SessionBackend:   horizon.CookieSessionBackend,
		CinderAPIVersion: horizon.CinderV3,
		PageSize:         20,
	}
	for _, option := range opts {
		option(&params)
	}

	s := Setup{
		Ctx: context.Background(),
		Config: horizon.Configuration{
			DefaultPageSize:  params.PageSize,
			MaxPageSize:      100,
			CinderAPIVersion: params.CinderAPIVersion,
			PolicyPath:       os.DevNull,
			SessionBackend:   params.SessionBackend,
			SessionTimeout:   time.Hour,
			SessionHashKey:   []byte(strings.Repeat("k", 32)),
			SecureCookies:    true,
		},
		Clock:   mock.NewClock(),
		Auditor: &Auditor{},
	}
	if errs := s.Config.Validate(); !errs.IsEmpty() {
		t.Fatal(errs.Join(", "))
	}

	// setup drivers
	ad, err := horizon.NewAuthDriver(s.Ctx, `{"type":"unittest"}`, s.Config, nil)
	mustDo(t, err)
	s.AuthDriver = ad.(*AuthDriver)
	s.AuthDriver.OverrideTimeNow(s.Clock.Now)
	bd, err := horizon.NewBackendDriver(s.Ctx, `{"type":"unittest"}`, s.Config)
	mustDo(t, err)
	s.Backend = bd.(*BackendDriver).Backend

	// setup session store
	switch params.SessionBackend {
	case horizon.CookieSessionBackend:
		s.Sessions = sessions.NewCookieStore(s.Config).OverrideTimeNow(s.Clock.Now)
	case horizon.DatabaseSessionBackend:
		dbConn := easypg.ConnectForTest(t, sessions.DBConfiguration(), easypg.ClearTables("sessions"))
		s.DB = sessions.InitORM(dbConn)
		s.Sessions = sessions.NewDatabaseStore(s.Config, s.DB).OverrideTimeNow(s.Clock.Now)
	default:
		t.Fatalf("unknown session backend: %q", params.SessionBackend)
	}

	// setup HTTP API
	s.Handler = httpapi.Compose(
		dashboard.NewAPI(s.Config, ad, bd, s.Sessions, s.Auditor).OverrideTimeNow(s.Clock.Now),
		api.NewAPI(s.Config, ad, bd, s.Sessions),
		httpapi.WithoutLogging(),
	)
	return s
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err.Error())
	}
}
