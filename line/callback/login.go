// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"fmt"
	"net/http"

	"github.com/hashicorp/cap-line/line"
)

// DefaultCallbackPath is the conventional path of the AuthCode callback.
const DefaultCallbackPath = "/auth/line/callback"

// Login creates a handler which starts a LINE login.  The request's query
// parameters may carry any of line.AuthorizeOptions.  The state and nonce are
// saved to the session before the user agent is redirected to LINE.
//
// When the provider's config has no RedirectURL, the callback URL is the
// request's host plus callbackPath.
func Login(p *line.Provider, callbackPath string, sFn SessionFunc, eFn ErrorResponseFunc) (http.HandlerFunc, error) {
	const op = "callback.Login"
	switch {
	case p == nil:
		return nil, fmt.Errorf("%s: provider is empty: %w", op, line.ErrInvalidParameter)
	case sFn == nil:
		return nil, fmt.Errorf("%s: session func is empty: %w", op, line.ErrInvalidParameter)
	case eFn == nil:
		return nil, fmt.Errorf("%s: error response func is empty: %w", op, line.ErrInvalidParameter)
	}
	if callbackPath == "" {
		callbackPath = DefaultCallbackPath
	}
	return func(w http.ResponseWriter, req *http.Request) {
		s, err := sFn(w, req)
		if err != nil {
			eFn("", nil, fmt.Errorf("%s: %w", op, err), w, req)
			return
		}
		redirectURL := p.Config().CallbackURL(fullHost(req), callbackPath)
		authURL, err := p.AuthURL(req.Context(), redirectURL, req.URL.Query(), s)
		if err != nil {
			eFn("", nil, fmt.Errorf("%s: unable to create auth url: %w", op, err), w, req)
			return
		}
		if err := s.Save(); err != nil {
			eFn("", nil, fmt.Errorf("%s: unable to save session: %w", op, err), w, req)
			return
		}
		http.Redirect(w, req, authURL, http.StatusFound)
	}, nil
}

// fullHost returns the scheme and host the request was made to.
func fullHost(req *http.Request) string {
	scheme := "http"
	switch {
	case req.TLS != nil:
		scheme = "https"
	case req.Header.Get("X-Forwarded-Proto") == "https":
		scheme = "https"
	}
	host := req.Host
	if fwd := req.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}
