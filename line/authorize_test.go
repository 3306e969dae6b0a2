// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package line

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func testConfig(t *testing.T, opt ...Option) *Config {
	t.Helper()
	c, err := NewConfig("1234", "secret", "https://example.com/auth/line/callback", opt...)
	require.NoError(t, err)
	return c
}

func TestBuildAuthorizeParams(t *testing.T) {
	t.Parallel()
	const redirect = "https://example.com/auth/line/callback"

	tests := []struct {
		name        string
		config      *Config
		redirectURL string
		reqParams   url.Values
		want        map[string]string
		wantKeys    []string
	}{
		{
			name:        "defaults",
			config:      testConfig(t),
			redirectURL: redirect,
			want: map[string]string{
				"client_id":     "1234",
				"redirect_uri":  redirect,
				"scope":         DefaultScope,
				"response_type": "code",
			},
			wantKeys: []string{"client_id", "redirect_uri", "scope", "response_type", "state", "nonce"},
		},
		{
			name:        "request-overrides",
			config:      testConfig(t),
			redirectURL: redirect,
			reqParams: url.Values{
				"scope":      {"openid"},
				"state":      {"12345abcde"},
				"nonce":      {"my-nonce"},
				"prompt":     {"consent"},
				"bot_prompt": {"aggressive"},
			},
			want: map[string]string{
				"client_id":     "1234",
				"redirect_uri":  redirect,
				"scope":         "openid",
				"state":         "12345abcde",
				"nonce":         "my-nonce",
				"prompt":        "consent",
				"bot_prompt":    "aggressive",
				"response_type": "code",
			},
		},
		{
			name:        "ignores-unlisted-and-empty",
			config:      testConfig(t),
			redirectURL: redirect,
			reqParams: url.Values{
				"response_type": {"token"},
				"client_id":     {"evil"},
				"redirect_uri":  {"https://evil.com"},
				"foo":           {"bar"},
				"prompt":        {""},
				"scope":         {""},
			},
			want: map[string]string{
				"client_id":     "1234",
				"redirect_uri":  redirect,
				"scope":         DefaultScope,
				"response_type": "code",
			},
			wantKeys: []string{"client_id", "redirect_uri", "scope", "response_type", "state", "nonce"},
		},
		{
			name:        "configured-scopes-and-locales",
			config:      testConfig(t, WithScopes("openid", "profile", "openid"), WithUILocales(language.Japanese, language.AmericanEnglish)),
			redirectURL: redirect,
			want: map[string]string{
				"client_id":     "1234",
				"redirect_uri":  redirect,
				"scope":         "openid profile",
				"ui_locales":    "ja en-US",
				"response_type": "code",
			},
		},
		{
			name:   "no-redirect",
			config: testConfig(t),
			want: map[string]string{
				"client_id":     "1234",
				"scope":         DefaultScope,
				"response_type": "code",
			},
			wantKeys: []string{"client_id", "scope", "response_type", "state", "nonce"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			s := NewMapSession(nil)
			got, err := BuildAuthorizeParams(tt.config, tt.redirectURL, tt.reqParams, s)
			require.NoError(err)
			for k, v := range tt.want {
				assert.Equalf(v, got[k], "param %s", k)
			}
			if tt.wantKeys != nil {
				assert.Len(got, len(tt.wantKeys))
				for _, k := range tt.wantKeys {
					assert.Containsf(got, k, "param %s", k)
				}
			}
			assert.NotEmpty(got["state"])
			assert.NotEmpty(got["nonce"])

			state, ok := s.Get(SessionStateKey)
			assert.True(ok)
			assert.Equal(got["state"], state)
			nonce, ok := s.Get(SessionNonceKey)
			assert.True(ok)
			assert.Equal(got["nonce"], nonce)
		})
	}
	t.Run("fresh-nonce-and-state", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c := testConfig(t)
		first, err := BuildAuthorizeParams(c, redirect, nil, NewMapSession(nil))
		require.NoError(err)
		second, err := BuildAuthorizeParams(c, redirect, nil, NewMapSession(nil))
		require.NoError(err)
		assert.NotEqual(first["nonce"], second["nonce"])
		assert.NotEqual(first["state"], second["state"])
	})
	t.Run("replaces-pending-nonce", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		s := NewMapSession(map[string]string{SessionNonceKey: "stale", SessionStateKey: "stale"})
		got, err := BuildAuthorizeParams(testConfig(t), redirect, nil, s)
		require.NoError(err)
		nonce, _ := s.Get(SessionNonceKey)
		assert.Equal(got["nonce"], nonce)
		assert.NotEqual("stale", nonce)
	})
	t.Run("nil-params", func(t *testing.T) {
		assert := assert.New(t)
		_, err := BuildAuthorizeParams(nil, redirect, nil, NewMapSession(nil))
		assert.ErrorIs(err, ErrNilParameter)
		_, err = BuildAuthorizeParams(testConfig(t), redirect, nil, nil)
		assert.ErrorIs(err, ErrNilParameter)
	})
}

func TestAuthorizeParams_Values(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	p := AuthorizeParams{"scope": "openid", "response_type": "code"}
	assert.Equal(url.Values{"scope": {"openid"}, "response_type": {"code"}}, p.Values())
	assert.Equal(url.Values{}, AuthorizeParams(nil).Values())
}
