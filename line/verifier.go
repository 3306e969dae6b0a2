// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package line

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// maxVerifyResponseSize caps how much of a verification response is read.
const maxVerifyResponseSize = 1 << 20

// Verifier verifies id_tokens with the provider's verification endpoint.  No
// signature, audience or nonce checks are done locally: the endpoint's reply
// is trusted.
type Verifier struct {
	client    *http.Client
	verifyURL string
	channelID string
	logger    hclog.Logger
}

// NewVerifier creates a Verifier which POSTs to verifyURL using client.
func NewVerifier(client *http.Client, verifyURL, channelID string, logger hclog.Logger) (*Verifier, error) {
	const op = "line.NewVerifier"
	switch {
	case client == nil:
		return nil, fmt.Errorf("%s: http client is nil: %w", op, ErrNilParameter)
	case verifyURL == "":
		return nil, fmt.Errorf("%s: verify URL is empty: %w", op, ErrInvalidParameter)
	case channelID == "":
		return nil, fmt.Errorf("%s: channel id is empty: %w", op, ErrInvalidParameter)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Verifier{
		client:    client,
		verifyURL: verifyURL,
		channelID: channelID,
		logger:    logger,
	}, nil
}

// Verify sends the id_token to the verification endpoint and returns its
// claims.  A pending nonce in s is consumed and sent along with the token, so
// it can only ever be used for one verification.
//
// Every failure to verify the token is returned as a *VerificationError.
func (v *Verifier) Verify(ctx context.Context, t IdToken, s Session) (ClaimSet, error) {
	const op = "Verifier.Verify"
	if t == "" {
		return nil, fmt.Errorf("%s: id_token is empty: %w", op, ErrInvalidParameter)
	}
	if s == nil {
		return nil, fmt.Errorf("%s: session is nil: %w", op, ErrNilParameter)
	}

	pairs := [][2]string{
		{"id_token", string(t)},
		{"client_id", v.channelID},
	}
	if nonce, ok := consume(s, SessionNonceKey); ok {
		pairs = append(pairs, [2]string{"nonce", nonce})
	}

	claims, err := v.post(ctx, encodeForm(pairs))
	if err != nil {
		v.logger.Error("id_token verification failed", "op", op, "error", err)
		return nil, err
	}
	v.logger.Debug("id_token verified", "op", op)
	return claims, nil
}

func (v *Verifier) post(ctx context.Context, body string) (ClaimSet, error) {
	const op = "Verifier.post"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(body))
	if err != nil {
		return nil, &VerificationError{Wrapped: fmt.Errorf("%s: unable to create request: %w", op, err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, &VerificationError{Wrapped: fmt.Errorf("%s: request failed: %w", op, err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxVerifyResponseSize))
	if err != nil {
		return nil, &VerificationError{Wrapped: fmt.Errorf("%s: unable to read response: %w", op, err)}
	}
	claims, err := DecodeClaimSet(data)
	if err != nil {
		return nil, &VerificationError{Wrapped: fmt.Errorf("%s: unexpected response (status %d): %w", op, resp.StatusCode, err)}
	}
	if code, ok := claims["error"]; ok && code != nil && code != false {
		desc, _ := claims.StringClaim("error_description")
		return nil, &VerificationError{Code: fmt.Sprint(code), Description: desc}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &VerificationError{Wrapped: fmt.Errorf("%s: unexpected status %d: %w", op, resp.StatusCode, ErrLoginFailed)}
	}
	return claims, nil
}

// encodeForm is url.Values.Encode without the key sorting: pairs are encoded
// in the order given.
func encodeForm(pairs [][2]string) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p[0]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[1]))
	}
	return b.String()
}
