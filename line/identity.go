// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package line

import (
	"fmt"

	"golang.org/x/oauth2"
)

// TokenInfo is the id_token returned by the code exchange and, once verified,
// its claims.  Decoded is only set when Raw is set and verification succeeded.
type TokenInfo struct {
	Raw     IdToken
	Decoded ClaimSet
}

// Credentials are the oauth2 credentials of an Identity.  ExpiresAt is only
// set when Expires is true, RefreshToken only when LINE issued one.
type Credentials struct {
	Token        AccessToken  `json:"token"`
	Expires      bool         `json:"expires"`
	ExpiresAt    *int64       `json:"expires_at,omitempty"`
	RefreshToken RefreshToken `json:"refresh_token,omitempty"`
}

// Identity is the normalized result of a successful authentication.  The
// tokens it carries are held as IdToken, AccessToken and RefreshToken, so its
// JSON form redacts them; hosts persisting an Identity must copy the token
// values out of Credentials and Extra themselves.
type Identity struct {
	// UID is the user's LINE id (the "sub" claim)
	UID string `json:"uid"`

	// Info holds "name", "nickname", "image" and "email" when present
	Info map[string]interface{} `json:"info"`

	Credentials Credentials `json:"credentials"`

	// Extra holds the raw "id_token" and its verified claims as "id_info"
	Extra map[string]interface{} `json:"extra"`
}

// NewIdentity projects a TokenInfo and the oauth2 token it came from into an
// Identity.  Empty values are pruned from Info and Extra.
func NewIdentity(ti *TokenInfo, tk *oauth2.Token) (*Identity, error) {
	const op = "line.NewIdentity"
	switch {
	case ti == nil:
		return nil, fmt.Errorf("%s: token info is nil: %w", op, ErrNilParameter)
	case tk == nil:
		return nil, fmt.Errorf("%s: oauth2 token is nil: %w", op, ErrNilParameter)
	}

	id := &Identity{
		Info:        map[string]interface{}{},
		Credentials: NewCredentials(tk),
		Extra:       map[string]interface{}{},
	}
	if ti.Decoded != nil {
		id.UID, _ = ti.Decoded.Subject()
		id.Info = Prune(map[string]interface{}{
			"name":     ti.Decoded["name"],
			"nickname": ti.Decoded["sub"],
			"image":    ti.Decoded["picture"],
			"email":    ti.Decoded["email"],
		})
	}
	if ti.Raw != "" {
		id.Extra["id_token"] = ti.Raw
	}
	if ti.Decoded != nil {
		id.Extra["id_info"] = ti.Decoded.Clone()
	}
	Prune(id.Extra)
	return id, nil
}

// NewCredentials returns the Credentials for an oauth2 token.  A token
// expires when LINE returned an expires_in for it.
func NewCredentials(tk *oauth2.Token) Credentials {
	c := Credentials{
		Token:        AccessToken(tk.AccessToken),
		Expires:      !tk.Expiry.IsZero(),
		RefreshToken: RefreshToken(tk.RefreshToken),
	}
	if c.Expires {
		at := tk.Expiry.Unix()
		c.ExpiresAt = &at
	}
	return c
}
