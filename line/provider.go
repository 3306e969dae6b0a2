// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package line

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

// Provider provides integration with LINE using the 3-legged authorization
// code flow.  It's immutable once created and safe for concurrent use.
type Provider struct {
	config   *Config
	client   *http.Client
	verifier *Verifier
	logger   hclog.Logger
}

// NewProvider creates and initializes a Provider.  No requests are made to
// LINE: its endpoints are fixed, so there's nothing to discover.
//
// See Provider.Done() which should be called to release provider resources.
func NewProvider(c *Config) (*Provider, error) {
	const op = "line.NewProvider"
	if c == nil {
		return nil, fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: provider config is invalid: %w", op, err)
	}
	client, err := c.HttpClient()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
	}
	logger := c.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	v, err := NewVerifier(client, c.VerifyURL, c.ChannelID, logger.Named("verifier"))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create verifier: %w", op, err)
	}
	return &Provider{
		config:   c,
		client:   client,
		verifier: v,
		logger:   logger,
	}, nil
}

// Done releases the provider's idle connections.
func (p *Provider) Done() {
	if p == nil || p.client == nil {
		return
	}
	p.client.CloseIdleConnections()
}

// Config returns the provider's configuration.
func (p *Provider) Config() *Config { return p.config }

// AuthURL will generate a URL the caller can use to kick off the
// authorization code flow with LINE.  The redirectURL is the URL LINE should
// redirect to once the user is done (see Config.CallbackURL).  reqParams are
// the login request's parameters, see BuildAuthorizeParams for the ones that
// are honored.  The state and nonce are stored in the session s.
func (p *Provider) AuthURL(ctx context.Context, redirectURL string, reqParams url.Values, s Session) (string, error) {
	const op = "Provider.AuthURL"
	if redirectURL == "" {
		return "", fmt.Errorf("%s: redirect URL is empty: %w", op, ErrInvalidParameter)
	}
	params, err := BuildAuthorizeParams(p.config, redirectURL, reqParams, s)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	opts := make([]oauth2.AuthCodeOption, 0, len(params))
	for k, v := range params {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	p.logger.Debug("auth url created", "op", op, "redirect_uri", redirectURL, "scope", params["scope"])
	return p.config.oauth2Config(redirectURL).AuthCodeURL(params["state"], opts...), nil
}

// Exchange will request a token from the token endpoint for the
// authorizationCode received by the callback.  redirectURL must be the same
// one used to create the auth URL.  The returned token's id_token is not
// verified, see Authentication.
func (p *Provider) Exchange(ctx context.Context, redirectURL, authorizationCode string) (*oauth2.Token, error) {
	const op = "Provider.Exchange"
	if authorizationCode == "" {
		return nil, fmt.Errorf("%s: authorization code is empty: %w", op, ErrInvalidParameter)
	}
	tk, err := p.config.oauth2Config(redirectURL).Exchange(HttpClientContext(ctx, p.client), authorizationCode)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to exchange auth code with provider: %w", op, err)
	}
	return tk, nil
}

// VerifyIdToken verifies t with LINE's verification endpoint, consuming the
// nonce pending in s.  See Verifier.Verify.
func (p *Provider) VerifyIdToken(ctx context.Context, t IdToken, s Session) (ClaimSet, error) {
	const op = "Provider.VerifyIdToken"
	claims, err := p.verifier.Verify(ctx, t, s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return claims, nil
}

// NewAuthentication returns the Authentication for one callback: tk is the
// token returned by Exchange and s is the user agent's session.
func (p *Provider) NewAuthentication(tk *oauth2.Token, s Session) (*Authentication, error) {
	const op = "Provider.NewAuthentication"
	switch {
	case tk == nil:
		return nil, fmt.Errorf("%s: token is nil: %w", op, ErrNilParameter)
	case s == nil:
		return nil, fmt.Errorf("%s: session is nil: %w", op, ErrNilParameter)
	}
	return &Authentication{
		provider: p,
		token:    tk,
		session:  s,
	}, nil
}

// Callback completes an authentication: it exchanges the authorization code,
// verifies the returned id_token and projects the Identity.
func (p *Provider) Callback(ctx context.Context, redirectURL, authorizationCode string, s Session) (*Identity, error) {
	const op = "Provider.Callback"
	tk, err := p.Exchange(ctx, redirectURL, authorizationCode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a, err := p.NewAuthentication(tk, s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	id, err := a.Identity(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}
