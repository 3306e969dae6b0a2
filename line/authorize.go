// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package line

import (
	"fmt"
	"net/url"
	"strings"
)

// AuthorizeOptions is the allow-list of login request parameters that are
// copied verbatim onto the authorization request.
var AuthorizeOptions = []string{"scope", "state", "nonce", "prompt", "bot_prompt"}

// AuthorizeParams are the parameters of an authorization request.
type AuthorizeParams map[string]string

// Values returns the params as url.Values
func (p AuthorizeParams) Values() url.Values {
	v := make(url.Values, len(p))
	for k, val := range p {
		v.Set(k, val)
	}
	return v
}

// BuildAuthorizeParams assembles the parameters of an authorization request
// for the login request's parameters (reqParams) and binds its state and
// nonce to the session s.
//
// Non-empty reqParams named in AuthorizeOptions override the defaults.  They
// aren't validated: LINE will reject values it doesn't understand.  The
// response_type is always "code".
func BuildAuthorizeParams(c *Config, redirectURL string, reqParams url.Values, s Session) (AuthorizeParams, error) {
	const op = "line.BuildAuthorizeParams"
	switch {
	case c == nil:
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	case s == nil:
		return nil, fmt.Errorf("%s: session is nil: %w", op, ErrNilParameter)
	}

	state, err := NewID()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate state: %w", op, err)
	}
	params := AuthorizeParams{
		"client_id": c.ChannelID,
		"state":     state,
	}
	if redirectURL != "" {
		params["redirect_uri"] = redirectURL
	}
	if len(c.UILocales) > 0 {
		locales := make([]string, 0, len(c.UILocales))
		for _, t := range c.UILocales {
			locales = append(locales, t.String())
		}
		params["ui_locales"] = strings.Join(locales, " ")
	}

	for _, k := range AuthorizeOptions {
		if v := reqParams.Get(k); !IsEmpty(v) {
			params[k] = v
		}
	}
	if params["scope"] == "" {
		params["scope"] = c.Scope()
	}
	if params["nonce"] == "" {
		nonce, err := NewID()
		if err != nil {
			return nil, fmt.Errorf("%s: unable to generate nonce: %w", op, err)
		}
		params["nonce"] = nonce
	}
	params["response_type"] = "code"

	if v := params["state"]; v != "" {
		s.Set(SessionStateKey, v)
	}
	if v := params["nonce"]; v != "" {
		s.Set(SessionNonceKey, v)
	}
	return params, nil
}
