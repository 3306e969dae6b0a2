// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/hashicorp/cap-line/line"
)

// AuthCode creates a LINE authorization code callback handler.  The
// response's "state" parameter must match the state pending in the user
// agent's session, which is consumed.  The authorization code is then
// exchanged, the returned id_token verified and the user's line.Identity
// projected.
//
// The SuccessResponseFunc is used to create a response when callback is
// successful. The ErrorResponseFunc is to create a response when the callback
// fails.
func AuthCode(p *line.Provider, sFn SessionFunc, successFn SuccessResponseFunc, eFn ErrorResponseFunc) (http.HandlerFunc, error) {
	const op = "callback.AuthCode"
	switch {
	case p == nil:
		return nil, fmt.Errorf("%s: provider is empty: %w", op, line.ErrInvalidParameter)
	case sFn == nil:
		return nil, fmt.Errorf("%s: session func is empty: %w", op, line.ErrInvalidParameter)
	case successFn == nil:
		return nil, fmt.Errorf("%s: success response func is empty: %w", op, line.ErrInvalidParameter)
	case eFn == nil:
		return nil, fmt.Errorf("%s: error response func is empty: %w", op, line.ErrInvalidParameter)
	}
	return func(w http.ResponseWriter, req *http.Request) {
		// get parameters from either the body or query parameters.
		// FormValue prioritizes body values, if found
		reqState := req.FormValue("state")

		s, err := sFn(w, req)
		if err != nil {
			eFn(reqState, nil, fmt.Errorf("%s: %w", op, err), w, req)
			return
		}

		// the pending state is single use, whatever the outcome
		pending, ok := s.Get(line.SessionStateKey)
		s.Delete(line.SessionStateKey)

		if errCode := req.FormValue("error"); errCode != "" {
			s.Delete(line.SessionNonceKey)
			_ = s.Save()
			reqError := &AuthenErrorResponse{
				Error:       errCode,
				Description: req.FormValue("error_description"),
				Uri:         req.FormValue("error_uri"),
			}
			eFn(reqState, reqError, nil, w, req)
			return
		}

		if !ok || reqState == "" || subtle.ConstantTimeCompare([]byte(reqState), []byte(pending)) != 1 {
			s.Delete(line.SessionNonceKey)
			_ = s.Save()
			eFn(reqState, nil, fmt.Errorf("%s: authen state and response state are not equal: %w", op, line.ErrResponseStateInvalid), w, req)
			return
		}

		redirectURL := p.Config().CallbackURL(fullHost(req), req.URL.Path)
		id, err := p.Callback(req.Context(), redirectURL, req.FormValue("code"), s)
		s.Delete(line.SessionNonceKey)
		if saveErr := s.Save(); saveErr != nil && err == nil {
			err = fmt.Errorf("unable to save session: %w", saveErr)
		}
		if err != nil {
			eFn(reqState, nil, fmt.Errorf("%s: %w", op, err), w, req)
			return
		}
		successFn(reqState, id, w, req)
	}, nil
}
