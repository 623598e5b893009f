// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package sessions

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/sapcc/go-bits/logg"

	"github.com/sapcc/horizon/internal/horizon"
)

// cookieCodec signs (and, if a block key is configured, encrypts) cookie
// values. It is shared by both session backends.
type cookieCodec struct {
	sc      *securecookie.SecureCookie
	timeout time.Duration
	secure  bool
}

func newCookieCodec(cfg horizon.Configuration) cookieCodec {
	var blockKey []byte
	if len(cfg.SessionBlockKey) > 0 {
		blockKey = cfg.SessionBlockKey
	}
	sc := securecookie.New(cfg.SessionHashKey, blockKey).
		MaxAge(int(cfg.SessionTimeout / time.Second)).
		SetSerializer(securecookie.JSONEncoder{})
	return cookieCodec{sc, cfg.SessionTimeout, cfg.SecureCookies}
}

// read decodes the session cookie into `dst`. Returns false if there is no
// cookie, or if the cookie does not pass validation.
func (c cookieCodec) read(r *http.Request, dst any) bool {
	cookie, err := r.Cookie(CookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return false
	}
	if err != nil {
		logg.Debug("cannot read session cookie: %s", err.Error())
		return false
	}
	err = c.sc.Decode(CookieName, cookie.Value, dst)
	if err != nil {
		logg.Debug("rejecting session cookie: %s", err.Error())
		return false
	}
	return true
}

func (c cookieCodec) write(w http.ResponseWriter, value any, expiresAt time.Time) error {
	encoded, err := c.sc.Encode(CookieName, value)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(c.timeout / time.Second),
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (c cookieCodec) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

////////////////////////////////////////////////////////////////////////////////
// CookieStore

// CookieStore is a Store that keeps the entire session in a signed cookie.
type CookieStore struct {
	codec cookieCodec
	// non-pure functions that can be replaced by deterministic doubles for unit tests
	timeNow func() time.Time
}

// NewCookieStore builds a new CookieStore.
func NewCookieStore(cfg horizon.Configuration) *CookieStore {
	return &CookieStore{newCookieCodec(cfg), time.Now}
}

// OverrideTimeNow replaces time.Now with a test double.
func (s *CookieStore) OverrideTimeNow(timeNow func() time.Time) *CookieStore {
	s.timeNow = timeNow
	return s
}

// Load implements the Store interface.
func (s *CookieStore) Load(r *http.Request) (*Session, error) {
	var sess Session
	if !s.codec.read(r, &sess) {
		return nil, nil
	}
	if sess.IsExpired(s.timeNow()) {
		return nil, nil
	}
	return &sess, nil
}

// Save implements the Store interface.
func (s *CookieStore) Save(w http.ResponseWriter, r *http.Request, sess *Session) error {
	sess.ExpiresAt = s.timeNow().Add(s.codec.timeout).UTC()
	return s.codec.write(w, sess, sess.ExpiresAt)
}

// Delete implements the Store interface.
func (s *CookieStore) Delete(w http.ResponseWriter, r *http.Request, sess *Session) error {
	s.codec.clear(w)
	return nil
}
