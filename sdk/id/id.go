// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package id

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/hashicorp/go-uuid"
)

// DefaultSize is the number of random bytes used when New is given a size of
// zero.
const DefaultSize = 24

// New generates a hex encoded id from size bytes read from crypto/rand.  The
// result is 2*size characters long.
func New(size int) (string, error) {
	if size < 0 {
		return "", errors.New("size must not be negative")
	}
	if size == 0 {
		size = DefaultSize
	}
	b, err := uuid.GenerateRandomBytes(size)
	if err != nil {
		return "", fmt.Errorf("unable to generate id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
