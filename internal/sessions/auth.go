// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company
// SPDX-License-Identifier: Apache-2.0

package sessions

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sapcc/go-bits/gopherpolicy"
	"github.com/sapcc/go-bits/logg"

	"github.com/sapcc/horizon/internal/horizon"
)

// ErrNotLoggedIn is returned by Authenticator.Authenticate when the request
// does not belong to a valid session.
var ErrNotLoggedIn = errors.New("not logged in")

// UserContext is everything that a request handler needs to know about the
// logged-in user.
type UserContext struct {
	Session *Session
	Token   *gopherpolicy.Token
	Backend horizon.Backend
}

// Authenticator ties the session store to the auth and backend drivers. It is
// shared by the HTML views and the JSON API.
type Authenticator struct {
	Store         Store
	AuthDriver    horizon.AuthDriver
	BackendDriver horizon.BackendDriver
}

// Authenticate loads the session of this request and revalidates its token.
// If the token is no longer valid, the session is destroyed and
// ErrNotLoggedIn is returned.
func (a Authenticator) Authenticate(w http.ResponseWriter, r *http.Request) (*UserContext, error) {
	sess, err := a.Store.Load(r)
	if err != nil {
		return nil, fmt.Errorf("cannot load session: %w", err)
	}
	if sess == nil {
		return nil, ErrNotLoggedIn
	}

	token := a.AuthDriver.CheckToken(r.Context(), sess.TokenID)
	if token.Err != nil {
		logg.Info("discarding session of %s@%s: %s", sess.UserName, sess.UserDomainName, token.Err.Error())
		err := a.Store.Delete(w, r, sess)
		if err != nil {
			return nil, fmt.Errorf("cannot delete session: %w", err)
		}
		return nil, ErrNotLoggedIn
	}
	// policy rules like "project_id:%(project_id)s" refer to the resources of
	// the current project
	if token.Context.Request == nil {
		token.Context.Request = make(map[string]string)
	}
	token.Context.Request["project_id"] = token.ProjectScopeUUID()

	backend, err := a.BackendDriver.Connect(r.Context(), token)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to OpenStack: %w", err)
	}
	return &UserContext{sess, token, backend}, nil
}
