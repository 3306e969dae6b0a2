// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/hashicorp/cap-line/line"
)

// Session is a line.Session which is persisted to the user agent by Save.
type Session interface {
	line.Session

	// Save writes the session to the response.  It must be called before
	// anything is written to the response body.
	Save() error
}

// SessionFunc returns the Session of the user agent making the request.
//
// Implementations must be concurrently safe, since the func will likely be
// used within a concurrent http.Handler
type SessionFunc func(w http.ResponseWriter, req *http.Request) (Session, error)

// GorillaSession adapts a gorilla/sessions session to the Session interface.
// Only string values are visible through it.
type GorillaSession struct {
	session *sessions.Session
	w       http.ResponseWriter
	req     *http.Request
}

// ensure that GorillaSession implements the Session interface
var _ Session = (*GorillaSession)(nil)

// NewGorillaSessionFunc returns a SessionFunc which loads the session name
// from store.
func NewGorillaSessionFunc(store sessions.Store, name string) (SessionFunc, error) {
	const op = "callback.NewGorillaSessionFunc"
	switch {
	case store == nil:
		return nil, fmt.Errorf("%s: session store is nil: %w", op, line.ErrNilParameter)
	case name == "":
		return nil, fmt.Errorf("%s: session name is empty: %w", op, line.ErrInvalidParameter)
	}
	return func(w http.ResponseWriter, req *http.Request) (Session, error) {
		s, err := store.Get(req, name)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to get session %q: %w", op, name, err)
		}
		return &GorillaSession{session: s, w: w, req: req}, nil
	}, nil
}

// Get implements the Session.Get() interface function
func (s *GorillaSession) Get(key string) (string, bool) {
	v, ok := s.session.Values[key].(string)
	return v, ok
}

// Set implements the Session.Set() interface function
func (s *GorillaSession) Set(key, value string) {
	s.session.Values[key] = value
}

// Delete implements the Session.Delete() interface function
func (s *GorillaSession) Delete(key string) {
	delete(s.session.Values, key)
}

// Save implements the Session.Save() interface function
func (s *GorillaSession) Save() error {
	return s.session.Save(s.req, s.w)
}
