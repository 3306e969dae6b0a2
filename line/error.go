// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package line

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter          = errors.New("invalid parameter")
	ErrNilParameter              = errors.New("nil parameter")
	ErrInvalidCACert             = errors.New("invalid CA certificate")
	ErrIdGeneratorFailed         = errors.New("id generation failed")
	ErrResponseStateInvalid      = errors.New("invalid response state")
	ErrIdTokenVerificationFailed = errors.New("id_token verification failed")
	ErrLoginFailed               = errors.New("login failed")
)

// VerificationError is returned when an id_token could not be verified.  Code
// and Description are set when the verification endpoint rejected the token.
// Wrapped is set when the request itself failed (transport errors, unexpected
// responses, etc).
//
// errors.Is(err, ErrIdTokenVerificationFailed) is true for every
// VerificationError.
type VerificationError struct {
	Code        string
	Description string
	Wrapped     error
}

func (e *VerificationError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("%s: %s: %s", ErrIdTokenVerificationFailed, e.Code, e.Description)
	case e.Code != "":
		return fmt.Sprintf("%s: %s", ErrIdTokenVerificationFailed, e.Code)
	case e.Wrapped != nil:
		return fmt.Sprintf("%s: %s", ErrIdTokenVerificationFailed, e.Wrapped)
	default:
		return ErrIdTokenVerificationFailed.Error()
	}
}

// Unwrap supports errors.Is and errors.As for both
// ErrIdTokenVerificationFailed and the wrapped cause.
func (e *VerificationError) Unwrap() []error {
	if e.Wrapped == nil {
		return []error{ErrIdTokenVerificationFailed}
	}
	return []error{ErrIdTokenVerificationFailed, e.Wrapped}
}
