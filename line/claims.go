// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package line

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ClaimSet is the set of claims returned by the id_token verification
// endpoint.  LINE may add claims at any time, so the set is an open map; the
// accessors cover the claims this package knows about.  Numbers are decoded as
// json.Number so integer claims like "exp" keep their exact value.
type ClaimSet map[string]interface{}

// DecodeClaimSet decodes a JSON object into a ClaimSet.  A JSON null or any
// non-object value is an error.
func DecodeClaimSet(data []byte) (ClaimSet, error) {
	const op = "line.DecodeClaimSet"
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var cs ClaimSet
	if err := dec.Decode(&cs); err != nil {
		return nil, fmt.Errorf("%s: unable to decode claims: %w", op, err)
	}
	if cs == nil {
		return nil, fmt.Errorf("%s: claims are null: %w", op, ErrInvalidParameter)
	}
	return cs, nil
}

func (c ClaimSet) Subject() (string, bool) { return c.StringClaim("sub") }
func (c ClaimSet) Name() (string, bool)    { return c.StringClaim("name") }
func (c ClaimSet) Picture() (string, bool) { return c.StringClaim("picture") }
func (c ClaimSet) Email() (string, bool)   { return c.StringClaim("email") }
func (c ClaimSet) Issuer() (string, bool)  { return c.StringClaim("iss") }
func (c ClaimSet) Nonce() (string, bool)   { return c.StringClaim("nonce") }

// Audience returns the "aud" claim, which may be either a single string or a
// list of strings.
func (c ClaimSet) Audience() ([]string, bool) {
	switch v := c["aud"].(type) {
	case string:
		return []string{v}, true
	case []interface{}:
		return toStrings(v)
	default:
		return nil, false
	}
}

// Amr returns the authentication methods references, for example ["pwd"].
func (c ClaimSet) Amr() ([]string, bool) {
	v, ok := c["amr"].([]interface{})
	if !ok {
		return nil, false
	}
	return toStrings(v)
}

func (c ClaimSet) Expiry() (time.Time, bool)   { return c.NumericDate("exp") }
func (c ClaimSet) IssuedAt() (time.Time, bool) { return c.NumericDate("iat") }
func (c ClaimSet) AuthTime() (time.Time, bool) { return c.NumericDate("auth_time") }

// StringClaim returns the named claim if it's present and is a string.
func (c ClaimSet) StringClaim(name string) (string, bool) {
	s, ok := c[name].(string)
	return s, ok
}

// NumericDate returns a NumericDate claim (seconds since the epoch) as a time.Time.
func (c ClaimSet) NumericDate(name string) (time.Time, bool) {
	var secs int64
	switch v := c[name].(type) {
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			f, err := strconv.ParseFloat(string(v), 64)
			if err != nil {
				return time.Time{}, false
			}
			i = int64(f)
		}
		secs = i
	case float64:
		secs = int64(v)
	case int64:
		secs = v
	case int:
		secs = int64(v)
	default:
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}

func toStrings(in []interface{}) ([]string, bool) {
	out := make([]string, 0, len(in))
	for _, v := range in {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Clone returns a deep copy of the claim set, so it can be pruned or modified
// without touching the original.
func (c ClaimSet) Clone() ClaimSet {
	if c == nil {
		return nil
	}
	return ClaimSet(cloneMap(c))
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneMap(t)
	case ClaimSet:
		return t.Clone()
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
