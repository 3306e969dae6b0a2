// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package line

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// Authentication is a single callback's view of the flow.  It must not be
// shared across callbacks: the id_token is verified at most once per
// Authentication and the result, successful or not, is kept for its lifetime.
type Authentication struct {
	provider *Provider
	token    *oauth2.Token
	session  Session

	once sync.Once
	info *TokenInfo
	err  error
}

// Token returns the oauth2 token being authenticated.
func (a *Authentication) Token() *oauth2.Token { return a.token }

// IdTokenInfo returns the token's id_token and its verified claims.
//
// When the token response carried no id_token, the TokenInfo is empty and no
// verification request is made.  When verification fails, the TokenInfo holds
// only the raw id_token and the error is a *VerificationError.
func (a *Authentication) IdTokenInfo(ctx context.Context) (*TokenInfo, error) {
	a.once.Do(func() {
		a.info, a.err = a.idTokenInfo(ctx)
	})
	return a.info, a.err
}

func (a *Authentication) idTokenInfo(ctx context.Context) (*TokenInfo, error) {
	const op = "Authentication.IdTokenInfo"
	raw, _ := a.token.Extra("id_token").(string)
	if raw == "" {
		a.provider.logger.Debug("token response has no id_token", "op", op)
		return &TokenInfo{}, nil
	}
	info := &TokenInfo{Raw: IdToken(raw)}
	claims, err := a.provider.VerifyIdToken(ctx, info.Raw, a.session)
	if err != nil {
		return info, fmt.Errorf("%s: %w", op, err)
	}
	info.Decoded = claims
	return info, nil
}

// Identity returns the authenticated Identity.  No Identity is returned when
// the id_token failed verification.
func (a *Authentication) Identity(ctx context.Context) (*Identity, error) {
	const op = "Authentication.Identity"
	info, err := a.IdTokenInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	id, err := NewIdentity(info, a.token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}
