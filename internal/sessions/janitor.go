// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sapcc/go-bits/jobloop"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/sqlext"
)

var purgeExpiredSessionsQuery = sqlext.SimplifyWhitespace(`
	DELETE FROM sessions WHERE expires_at <= $1
`)

// Janitor contains the background jobs of the `horizon server janitor` process.
type Janitor struct {
	db *DB
	// non-pure functions that can be replaced by deterministic doubles for unit tests
	timeNow func() time.Time
}

// NewJanitor creates a new Janitor.
func NewJanitor(db *DB) *Janitor {
	return &Janitor{db, time.Now}
}

// OverrideTimeNow replaces time.Now with a test double.
func (j *Janitor) OverrideTimeNow(timeNow func() time.Time) *Janitor {
	j.timeNow = timeNow
	return j
}

// ExpiredSessionPurgeJob is a job. Each task deletes all sessions whose
// lifetime has ended. This is only relevant for the database session backend.
func (j *Janitor) ExpiredSessionPurgeJob(registerer prometheus.Registerer) jobloop.Job {
	return (&jobloop.CronJob{
		Metadata: jobloop.JobMetadata{
			ReadableName: "purge expired sessions",
			CounterOpts: prometheus.CounterOpts{
				Name: "horizon_expired_session_purges",
				Help: "Counter for purges of expired sessions.",
			},
		},
		Interval:     5 * time.Minute,
		InitialDelay: 10 * time.Second,
		Task:         j.purgeExpiredSessions,
	}).Setup(registerer)
}

func (j *Janitor) purgeExpiredSessions(ctx context.Context, _ prometheus.Labels) error {
	result, err := j.db.WithContext(ctx).Exec(purgeExpiredSessionsQuery, j.timeNow())
	if err != nil {
		return fmt.Errorf("cannot purge expired sessions: %w", err)
	}
	rowsDeleted, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsDeleted > 0 {
		logg.Info("purged %d expired sessions", rowsDeleted)
	}
	return nil
}
