// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package dashboardcmd

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dlmiddlecote/sqlstats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sapcc/go-bits/easypg"
	"github.com/sapcc/go-bits/httpapi"
	"github.com/sapcc/go-bits/httpapi/pprofapi"
	"github.com/sapcc/go-bits/httpext"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/must"
	"github.com/sapcc/go-bits/osext"
	"github.com/spf13/cobra"

	"github.com/sapcc/horizon/internal/api"
	"github.com/sapcc/horizon/internal/dashboard"
	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/sessions"
)

// AddCommandTo mounts this command into the command hierarchy.
func AddCommandTo(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Run the dashboard server component.",
		Long:  "Run the dashboard server component. Configuration is read from environment variables as described in README.md.",
		Args:  cobra.NoArgs,
		Run:   run,
	}
	parent.AddCommand(cmd)
}

func run(cmd *cobra.Command, args []string) {
	_, _ = cmd, args

	horizon.SetTaskName("dashboard")

	cfg := horizon.ParseConfiguration()
	ctx := httpext.ContextWithSIGINT(cmd.Context(), 10*time.Second)
	auditor := must.Return(horizon.InitAuditTrail(ctx))

	// the database is only needed for server-side sessions
	var (
		dbConn *sql.DB
		db     *sessions.DB
	)
	if cfg.SessionBackend == horizon.DatabaseSessionBackend {
		dbURL, dbName := horizon.GetDatabaseURLFromEnvironment()
		dbConn = must.Return(easypg.Connect(dbURL, sessions.DBConfiguration()))
		prometheus.MustRegister(sqlstats.NewStatsCollector(dbName, dbConn))
		db = sessions.InitORM(dbConn)
	}
	store := must.Return(sessions.NewStore(cfg, db))

	rc := must.Return(initRedis())
	ad := must.Return(horizon.NewAuthDriver(ctx, osext.MustGetenv("HORIZON_DRIVER_AUTH"), cfg, rc))
	bd := must.Return(horizon.NewBackendDriver(ctx, osext.MustGetenv("HORIZON_DRIVER_BACKEND"), cfg))

	// wire up HTTP handlers
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   strings.Fields(os.Getenv("HORIZON_CORS_ALLOWED_ORIGINS")),
		AllowedMethods:   []string{"HEAD", "GET"},
		AllowedHeaders:   []string{"Content-Type", "User-Agent"},
		AllowCredentials: true,
	})
	handler := httpapi.Compose(
		dashboard.NewAPI(cfg, ad, bd, store, auditor),
		api.NewAPI(cfg, ad, bd, store),
		httpapi.HealthCheckAPI{
			SkipRequestLog: true,
			Check: func() error {
				if dbConn == nil {
					return nil
				}
				return dbConn.PingContext(ctx)
			},
		},
		httpapi.WithGlobalMiddleware(setSecurityHeaders),
		httpapi.WithGlobalMiddleware(corsMiddleware.Handler),
		pprofapi.API{IsAuthorized: pprofapi.IsRequestFromLocalhost},
	)
	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", promhttp.Handler())

	// start HTTP server
	listenAddress := osext.GetenvOrDefault("HORIZON_LISTEN_ADDRESS", ":8080")
	logg.Info("listening on %s", listenAddress)
	must.Succeed(httpext.ListenAndServeContext(ctx, listenAddress, mux))
}

// Note that, since Redis is optional, this may return (nil, nil).
func initRedis() (*redis.Client, error) {
	if !osext.GetenvBool("HORIZON_REDIS_ENABLE") {
		return nil, nil
	}
	logg.Debug("initializing Redis connection...")

	opts, err := horizon.GetRedisOptions("HORIZON_REDIS")
	if err != nil {
		return nil, fmt.Errorf("cannot parse Redis options: %w", err)
	}
	return redis.NewClient(opts), nil
}

func setSecurityHeaders(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// pages show data of the logged-in user, so they must neither be
		// cached by proxies nor embedded into other sites
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		inner.ServeHTTP(w, r)
	})
}
