// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sapcc/go-bits/assert"
	"github.com/sapcc/go-bits/mock"
)

func TestExpiredSessionPurge(t *testing.T) {
	db := setupDB(t)
	clock := mock.NewClock()
	clock.StepBy(24 * time.Hour)
	store := NewDatabaseStore(testConfig("database"), db).OverrideTimeNow(clock.Now)
	job := NewJanitor(db).OverrideTimeNow(clock.Now).ExpiredSessionPurgeJob(prometheus.NewPedanticRegistry())
	ctx := context.Background()

	// create one session now, and another one 45 minutes later
	saveAndReload(t, store, testSession())
	clock.StepBy(45 * time.Minute)
	saveAndReload(t, store, testSession())
	assert.DeepEqual(t, "session count", countSessions(t, db), int64(2))

	// nothing has expired yet
	if err := job.ProcessOne(ctx); err != nil {
		t.Fatal(err.Error())
	}
	assert.DeepEqual(t, "session count", countSessions(t, db), int64(2))

	// after 30 more minutes, the first session is expired
	clock.StepBy(30 * time.Minute)
	if err := job.ProcessOne(ctx); err != nil {
		t.Fatal(err.Error())
	}
	assert.DeepEqual(t, "session count", countSessions(t, db), int64(1))

	// and eventually, both are gone
	clock.StepBy(time.Hour)
	if err := job.ProcessOne(ctx); err != nil {
		t.Fatal(err.Error())
	}
	assert.DeepEqual(t, "session count", countSessions(t, db), int64(0))
}
