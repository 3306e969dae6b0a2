// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hashicorp/cap-line/line"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthCode(t *testing.T) {
	tp := line.StartTestProvider(t, 0)
	p := testNewProvider(t, tp)
	sFn := testSessionFunc(&testSession{MapSession: line.NewMapSession(nil)})

	tests := []struct {
		name      string
		p         *line.Provider
		sFn       SessionFunc
		successFn SuccessResponseFunc
		eFn       ErrorResponseFunc
		wantErr   bool
	}{
		{"valid", p, sFn, testSuccessFn, testFailFn, false},
		{"nil-p", nil, sFn, testSuccessFn, testFailFn, true},
		{"nil-sFn", p, nil, testSuccessFn, testFailFn, true},
		{"nil-successFn", p, sFn, nil, testFailFn, true},
		{"nil-eFn", p, sFn, testSuccessFn, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := AuthCode(tt.p, tt.sFn, tt.successFn, tt.eFn)
			if tt.wantErr {
				require.Error(err)
				assert.ErrorIs(err, line.ErrInvalidParameter)
				return
			}
			require.NoError(err)
			assert.NotNil(got)
		})
	}
}

func Test_AuthCodeResponses(t *testing.T) {
	const (
		validState = "valid-state"
		validNonce = "valid-nonce"
	)
	tp := line.StartTestProvider(t, 0)
	tp.SetExpectedAuthCode("valid-code")
	tp.SetExpectedAuthNonce(validNonce)
	p := testNewProvider(t, tp)

	tests := []struct {
		name                string
		session             map[string]string
		query               url.Values
		wantStatusCode      int
		wantError           bool
		wantRespError       string
		wantRespDescription string
	}{
		{
			name:           "basic",
			session:        map[string]string{line.SessionStateKey: validState, line.SessionNonceKey: validNonce},
			query:          url.Values{"state": {validState}, "code": {"valid-code"}},
			wantStatusCode: http.StatusOK,
		},
		{
			name:                "provider-error",
			session:             map[string]string{line.SessionStateKey: validState, line.SessionNonceKey: validNonce},
			query:               url.Values{"state": {validState}, "error": {"access_denied"}, "error_description": {"user canceled"}},
			wantStatusCode:      http.StatusUnauthorized,
			wantError:           true,
			wantRespError:       "access_denied",
			wantRespDescription: "user canceled",
		},
		{
			name:                "state-not-matching",
			session:             map[string]string{line.SessionStateKey: validState, line.SessionNonceKey: validNonce},
			query:               url.Values{"state": {"not-matching"}, "code": {"valid-code"}},
			wantStatusCode:      http.StatusInternalServerError,
			wantError:           true,
			wantRespError:       "internal-callback-error",
			wantRespDescription: "not equal",
		},
		{
			name:                "no-pending-state",
			session:             map[string]string{line.SessionNonceKey: validNonce},
			query:               url.Values{"state": {validState}, "code": {"valid-code"}},
			wantStatusCode:      http.StatusInternalServerError,
			wantError:           true,
			wantRespError:       "internal-callback-error",
			wantRespDescription: "not equal",
		},
		{
			name:                "missing-state",
			session:             map[string]string{line.SessionStateKey: validState, line.SessionNonceKey: validNonce},
			query:               url.Values{"code": {"valid-code"}},
			wantStatusCode:      http.StatusInternalServerError,
			wantError:           true,
			wantRespError:       "internal-callback-error",
			wantRespDescription: "not equal",
		},
		{
			name:                "bad-exchange",
			session:             map[string]string{line.SessionStateKey: validState, line.SessionNonceKey: validNonce},
			query:               url.Values{"state": {validState}, "code": {"bad-code"}},
			wantStatusCode:      http.StatusInternalServerError,
			wantError:           true,
			wantRespError:       "internal-callback-error",
			wantRespDescription: "unable to exchange auth code",
		},
		{
			name:                "bad-nonce",
			session:             map[string]string{line.SessionStateKey: validState, line.SessionNonceKey: "bad-nonce"},
			query:               url.Values{"state": {validState}, "code": {"valid-code"}},
			wantStatusCode:      http.StatusInternalServerError,
			wantError:           true,
			wantRespError:       "internal-callback-error",
			wantRespDescription: "Invalid IdToken Nonce.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			s := &testSession{MapSession: line.NewMapSession(tt.session)}
			h, err := AuthCode(p, testSessionFunc(s), testSuccessFn, testFailFn)
			require.NoError(err)

			req := httptest.NewRequest(http.MethodGet, "https://example.com"+DefaultCallbackPath+"?"+tt.query.Encode(), nil)
			rec := httptest.NewRecorder()
			h(rec, req)
			resp := rec.Result()
			defer resp.Body.Close()
			contents, err := io.ReadAll(resp.Body)
			require.NoError(err)

			assert.Equal(tt.wantStatusCode, resp.StatusCode)
			_, ok := s.Get(line.SessionStateKey)
			assert.False(ok, "state must be consumed")
			_, ok = s.Get(line.SessionNonceKey)
			assert.False(ok, "nonce must be consumed")
			assert.Equal(1, s.saves)

			if tt.wantError {
				var errResp AuthenErrorResponse
				require.NoError(json.Unmarshal(contents, &errResp))
				assert.Equal(tt.wantRespError, errResp.Error)
				if tt.wantRespDescription != "" {
					assert.Contains(errResp.Description, tt.wantRespDescription)
				}
				return
			}
			assert.Equal("login successful: U1234567890abcdef1234567890abcdef", string(contents))
		})
	}
}
