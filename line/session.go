// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package line

import "sync"

const (
	// SessionStateKey is the session key holding the pending oauth2 state.
	SessionStateKey = "omniauth.state"

	// SessionNonceKey is the session key holding the pending oidc nonce.
	SessionNonceKey = "omniauth.nonce"
)

// Session is the per user agent key/value store that binds an authorization
// request to its callback.  It's owned by the caller (typically a cookie
// session) and only ever holds the pending state and nonce for this package.
type Session interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// consume reads key from s and removes it.  The value is returned at most once.
func consume(s Session, key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	s.Delete(key)
	return v, true
}

// MapSession is an in-memory Session.  It is concurrently safe.
type MapSession struct {
	mu     sync.Mutex
	values map[string]string
}

// ensure that MapSession implements the Session interface
var _ Session = (*MapSession)(nil)

// NewMapSession creates a MapSession with optional initial values.
func NewMapSession(values map[string]string) *MapSession {
	s := &MapSession{values: make(map[string]string, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Get implements the Session.Get() interface function
func (s *MapSession) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set implements the Session.Set() interface function
func (s *MapSession) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[key] = value
}

// Delete implements the Session.Delete() interface function
func (s *MapSession) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}
