// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package line

import (
	"fmt"

	"github.com/hashicorp/cap-line/sdk/id"
)

// DefaultIDLength is the length of an id generated by NewID without a prefix:
// 24 random bytes, hex encoded.
const DefaultIDLength = id.DefaultSize * 2

// NewID generates an unguessable id suitable for use as an oauth2 "state" or
// an oidc "nonce".  Supports the WithPrefix option.
func NewID(opt ...Option) (string, error) {
	const op = "line.NewID"
	opts := getIDOpts(opt...)
	v, err := id.New(id.DefaultSize)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrIdGeneratorFailed, err)
	}
	if opts.withPrefix != "" {
		return fmt.Sprintf("%s_%s", opts.withPrefix, v), nil
	}
	return v, nil
}

// idOptions is the set of available options.
type idOptions struct {
	withPrefix string
}

// idDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func idDefaults() idOptions {
	return idOptions{}
}

// getIDOpts gets the defaults and applies the opt overrides passed
// in.
func getIDOpts(opt ...Option) idOptions {
	opts := idDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithPrefix provides an optional prefix for a new ID.  When this options is
// provided, NewID will prepend the prefix and an underscore to the new
// identifier.
//
// Valid for: NewID
func WithPrefix(prefix string) Option {
	return func(o interface{}) {
		if o, ok := o.(*idOptions); ok {
			o.withPrefix = prefix
		}
	}
}
