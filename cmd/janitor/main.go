// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package janitorcmd

import (
	"net/http"
	"time"

	"github.com/dlmiddlecote/sqlstats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sapcc/go-bits/easypg"
	"github.com/sapcc/go-bits/httpapi"
	"github.com/sapcc/go-bits/httpext"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/must"
	"github.com/sapcc/go-bits/osext"
	"github.com/spf13/cobra"

	"github.com/sapcc/horizon/internal/horizon"
	"github.com/sapcc/horizon/internal/sessions"
)

// AddCommandTo mounts this command into the command hierarchy.
func AddCommandTo(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "janitor",
		Short: "Run the janitor server component.",
		Long:  "Run the janitor server component, which cleans up expired server-side sessions. Configuration is read from environment variables as described in README.md.",
		Args:  cobra.NoArgs,
		Run:   run,
	}
	parent.AddCommand(cmd)
}

func run(cmd *cobra.Command, args []string) {
	_, _ = cmd, args

	horizon.SetTaskName("janitor")

	cfg := horizon.ParseConfiguration()
	if cfg.SessionBackend != horizon.DatabaseSessionBackend {
		logg.Fatal("the janitor is only needed with HORIZON_SESSION_BACKEND=%s", horizon.DatabaseSessionBackend)
	}
	ctx := httpext.ContextWithSIGINT(cmd.Context(), 10*time.Second)

	dbURL, dbName := horizon.GetDatabaseURLFromEnvironment()
	dbConn := must.Return(easypg.Connect(dbURL, sessions.DBConfiguration()))
	prometheus.MustRegister(sqlstats.NewStatsCollector(dbName, dbConn))
	db := sessions.InitORM(dbConn)

	// start task loops
	janitor := sessions.NewJanitor(db)
	go janitor.ExpiredSessionPurgeJob(nil).Run(ctx)

	// start HTTP server for Prometheus metrics and health check
	handler := httpapi.Compose(httpapi.HealthCheckAPI{
		SkipRequestLog: true,
		Check: func() error {
			return dbConn.PingContext(ctx)
		},
	})
	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", promhttp.Handler())
	listenAddress := osext.GetenvOrDefault("HORIZON_JANITOR_LISTEN_ADDRESS", ":8081")
	must.Succeed(httpext.ListenAndServeContext(ctx, listenAddress, mux))
}
