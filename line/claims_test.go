// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package line

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClaimsJSON = `{
	"iss": "https://access.line.me",
	"sub": "U1234567890abcdefghijklmnopqrstuvwxyz",
	"aud": "1234567890",
	"exp": 1504169092,
	"iat": 1504263657,
	"auth_time": 1504263657,
	"nonce": "0987654asdf",
	"amr": ["pwd"],
	"name": "Test User",
	"picture": "https://profile.line-scdn.net/avatar.jpg",
	"email": "user@example.com"
}`

func TestDecodeClaimSet(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		data      string
		want      ClaimSet
		wantErr   bool
		wantIsErr error
	}{
		{
			name: "valid",
			data: `{"sub":"U123","exp":1504169092,"amr":["pwd"]}`,
			want: ClaimSet{
				"sub": "U123",
				"exp": json.Number("1504169092"),
				"amr": []interface{}{"pwd"},
			},
		},
		{
			name:      "null",
			data:      `null`,
			wantErr:   true,
			wantIsErr: ErrInvalidParameter,
		},
		{
			name:    "not-an-object",
			data:    `["sub"]`,
			wantErr: true,
		},
		{
			name:    "not-json",
			data:    `<html>bad gateway</html>`,
			wantErr: true,
		},
		{
			name:    "empty",
			data:    ``,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			got, err := DecodeClaimSet([]byte(tt.data))
			if tt.wantErr {
				require.Error(err)
				if tt.wantIsErr != nil {
					assert.ErrorIs(err, tt.wantIsErr)
				}
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}

func TestClaimSet_accessors(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	cs, err := DecodeClaimSet([]byte(testClaimsJSON))
	require.NoError(err)

	sub, ok := cs.Subject()
	assert.True(ok)
	assert.Equal("U1234567890abcdefghijklmnopqrstuvwxyz", sub)

	name, ok := cs.Name()
	assert.True(ok)
	assert.Equal("Test User", name)

	pic, ok := cs.Picture()
	assert.True(ok)
	assert.Equal("https://profile.line-scdn.net/avatar.jpg", pic)

	email, ok := cs.Email()
	assert.True(ok)
	assert.Equal("user@example.com", email)

	iss, ok := cs.Issuer()
	assert.True(ok)
	assert.Equal("https://access.line.me", iss)

	nonce, ok := cs.Nonce()
	assert.True(ok)
	assert.Equal("0987654asdf", nonce)

	aud, ok := cs.Audience()
	assert.True(ok)
	assert.Equal([]string{"1234567890"}, aud)

	amr, ok := cs.Amr()
	assert.True(ok)
	assert.Equal([]string{"pwd"}, amr)

	exp, ok := cs.Expiry()
	assert.True(ok)
	assert.Equal(time.Unix(1504169092, 0), exp)

	iat, ok := cs.IssuedAt()
	assert.True(ok)
	assert.Equal(time.Unix(1504263657, 0), iat)

	authTime, ok := cs.AuthTime()
	assert.True(ok)
	assert.Equal(time.Unix(1504263657, 0), authTime)
}

func TestClaimSet_missing(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	cs := ClaimSet{
		"sub": 42,
		"aud": []interface{}{"a", 1},
		"exp": "tomorrow",
		"amr": "pwd",
	}
	_, ok := cs.Subject()
	assert.False(ok)
	_, ok = cs.Email()
	assert.False(ok)
	_, ok = cs.Audience()
	assert.False(ok)
	_, ok = cs.Expiry()
	assert.False(ok)
	_, ok = cs.Amr()
	assert.False(ok)

	var nilSet ClaimSet
	_, ok = nilSet.Subject()
	assert.False(ok)
}

func TestClaimSet_Audience_list(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	cs := ClaimSet{"aud": []interface{}{"1234567890", "0987654321"}}
	got, ok := cs.Audience()
	assert.True(ok)
	assert.Equal([]string{"1234567890", "0987654321"}, got)
}
