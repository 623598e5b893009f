// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package sessions

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-gorp/gorp/v3"
	"github.com/sapcc/go-bits/easypg"
	"github.com/sapcc/go-bits/sqlext"

	"github.com/sapcc/horizon/internal/horizon"
)

var sqlMigrations = map[string]string{
	"001_initial.up.sql": `
		CREATE TABLE sessions (
			id         TEXT        NOT NULL PRIMARY KEY,
			payload    TEXT        NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX sessions_expires_at_idx ON sessions (expires_at);
	`,
	"001_initial.down.sql": `
		DROP TABLE sessions;
	`,
}

// DB adds convenience functions on top of gorp.DbMap.
type DB struct {
	gorp.DbMap
}

// DBConfiguration returns the easypg.Configuration object that func InitDB() needs to pass to easypg.Connect().
// It's mostly identical to what InitDB() uses, but some tests need to run against a DB that is not fully migrated.
func DBConfiguration() easypg.Configuration {
	return easypg.Configuration{
		Migrations: sqlMigrations,
	}
}

// InitORM wraps a database connection into a DB instance.
func InitORM(dbConn *sql.DB) *DB {
	result := &DB{DbMap: gorp.DbMap{Db: dbConn, Dialect: gorp.PostgresDialect{}}}
	result.AddTableWithName(sessionRow{}, "sessions").SetKeys(false, "id")
	return result
}

// sessionRow is how a Session is stored in the database.
type sessionRow struct {
	ID        string    `db:"id"`
	Payload   string    `db:"payload"`
	ExpiresAt time.Time `db:"expires_at"`
}

var upsertSessionQuery = sqlext.SimplifyWhitespace(`
	INSERT INTO sessions (id, payload, expires_at) VALUES ($1, $2, $3)
	ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at
`)

////////////////////////////////////////////////////////////////////////////////
// DatabaseStore

// DatabaseStore is a Store that keeps sessions in the database. The cookie
// only carries the signed session ID.
type DatabaseStore struct {
	codec cookieCodec
	db    *DB
	// non-pure functions that can be replaced by deterministic doubles for unit tests
	timeNow func() time.Time
}

// NewDatabaseStore builds a new DatabaseStore.
func NewDatabaseStore(cfg horizon.Configuration, db *DB) *DatabaseStore {
	return &DatabaseStore{newCookieCodec(cfg), db, time.Now}
}

// OverrideTimeNow replaces time.Now with a test double.
func (s *DatabaseStore) OverrideTimeNow(timeNow func() time.Time) *DatabaseStore {
	s.timeNow = timeNow
	return s
}

// Load implements the Store interface.
func (s *DatabaseStore) Load(r *http.Request) (*Session, error) {
	var sessionID string
	if !s.codec.read(r, &sessionID) {
		return nil, nil
	}

	var row sessionRow
	err := s.db.WithContext(r.Context()).SelectOne(&row,
		`SELECT * FROM sessions WHERE id = $1 AND expires_at > $2`, sessionID, s.timeNow())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load session: %w", err)
	}

	var sess Session
	err = json.Unmarshal([]byte(row.Payload), &sess)
	if err != nil {
		return nil, fmt.Errorf("cannot decode session %s: %w", row.ID, err)
	}
	sess.ID = row.ID
	sess.ExpiresAt = row.ExpiresAt
	return &sess, nil
}

// Save implements the Store interface.
func (s *DatabaseStore) Save(w http.ResponseWriter, r *http.Request, sess *Session) error {
	sess.ExpiresAt = s.timeNow().Add(s.codec.timeout).UTC()
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	_, err = s.db.WithContext(r.Context()).Exec(upsertSessionQuery, sess.ID, string(payload), sess.ExpiresAt)
	if err != nil {
		return fmt.Errorf("cannot save session: %w", err)
	}
	return s.codec.write(w, sess.ID, sess.ExpiresAt)
}

// Delete implements the Store interface.
func (s *DatabaseStore) Delete(w http.ResponseWriter, r *http.Request, sess *Session) error {
	s.codec.clear(w)
	_, err := s.db.WithContext(r.Context()).Exec(`DELETE FROM sessions WHERE id = $1`, sess.ID)
	if err != nil {
		return fmt.Errorf("cannot delete session: %w", err)
	}
	return nil
}
