// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

// Package sessions contains the session store of the dashboard. A session
// holds the user's Keystone token ID, their display preferences, and the
// queue of flash messages that are shown on the next rendered page.
package sessions

import (
	"fmt"
	"net/http"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/sapcc/horizon/internal/horizon"
)

// CookieName is the name of the cookie that carries the session (or, for the
// database backend, the session ID).
const CookieName = "horizon_session"

// MessageLevel is the severity of a flash message.
type MessageLevel string

// Known values for MessageLevel.
const (
	LevelSuccess MessageLevel = "success"
	LevelInfo    MessageLevel = "info"
	LevelWarning MessageLevel = "warning"
	LevelError   MessageLevel = "error"
)

// Message is a flash message that is displayed once on the next rendered page.
type Message struct {
	Level MessageLevel `json:"level"`
	Text  string       `json:"text"`
}

// Session is the server-side state of a logged-in user.
type Session struct {
	ID             string    `json:"id"`
	TokenID        string    `json:"token"`
	UserName       string    `json:"user_name"`
	UserDomainName string    `json:"user_domain_name"`
	ProjectName    string    `json:"project_name"`
	PageSize       int       `json:"page_size,omitempty"`
	Messages       []Message `json:"messages,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// New creates a session for a freshly issued token.
func New(login horizon.LoginResult, userDomainName string) *Session {
	return &Session{
		ID:             uuid.NewV4().String(),
		TokenID:        login.TokenID,
		UserName:       login.UserName,
		UserDomainName: userDomainName,
		ProjectName:    login.ProjectName,
	}
}

// AddMessage queues a flash message.
func (s *Session) AddMessage(level MessageLevel, format string, args ...any) {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	s.Messages = append(s.Messages, Message{Level: level, Text: text})
}

// PopMessages returns all queued flash messages and clears the queue.
func (s *Session) PopMessages() []Message {
	msgs := s.Messages
	s.Messages = nil
	return msgs
}

// IsExpired returns whether this session may no longer be used.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Store is the interface for session backends.
type Store interface {
	// Load returns the session belonging to this request, or nil if there is
	// no valid session. Tampered or expired sessions are reported as nil, not
	// as errors.
	Load(r *http.Request) (*Session, error)
	// Save persists the session and extends its lifetime.
	Save(w http.ResponseWriter, r *http.Request, s *Session) error
	// Delete destroys the session.
	Delete(w http.ResponseWriter, r *http.Request, s *Session) error
}

// NewStore chooses the session backend according to cfg.SessionBackend. The
// database connection is only required for the database backend.
func NewStore(cfg horizon.Configuration, db *DB) (Store, error) {
	switch cfg.SessionBackend {
	case horizon.CookieSessionBackend:
		return NewCookieStore(cfg), nil
	case horizon.DatabaseSessionBackend:
		if db == nil {
			return nil, fmt.Errorf("session backend %q requires a database connection", cfg.SessionBackend)
		}
		return NewDatabaseStore(cfg, db), nil
	default:
		return nil, fmt.Errorf("unknown session backend: %q", cfg.SessionBackend)
	}
}
