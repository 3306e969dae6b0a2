// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package line

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/cap-line/line/internal/strutils"
	sdkHttp "github.com/hashicorp/cap-line/sdk/http"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/oauth2"
	"golang.org/x/text/language"
)

const (
	// DefaultSite is LINE's authorization server.
	DefaultSite = "https://access.line.me"

	// DefaultAuthPath is the path of the authorization endpoint on DefaultSite.
	DefaultAuthPath = "/oauth2/v2.1/authorize"

	// DefaultTokenURL is LINE's token endpoint.
	DefaultTokenURL = "https://api.line.me/oauth2/v2.1/token"

	// DefaultVerifyURL is LINE's id_token verification endpoint.
	DefaultVerifyURL = "https://api.line.me/oauth2/v2.1/verify"

	// DefaultScope is requested when neither the config nor the login request
	// provide a scope.
	DefaultScope = "profile openid email"

	// DefaultTimeout bounds every request made to LINE.
	DefaultTimeout = 10 * time.Second
)

// ClientSecret is an oauth client Secret.  LINE calls it the channel secret.
type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret.
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret.
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret.
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Config represents the configuration for the LINE authorization code flow.
type Config struct {
	// ChannelID is the relying party id (the oauth2 client_id)
	ChannelID string

	// ChannelSecret is the relying party secret (the oauth2 client_secret)
	ChannelSecret ClientSecret

	// RedirectURL is the optional callback URL registered with LINE.  When
	// it's empty the callback URL is derived from the inbound request (see
	// CallbackURL).
	RedirectURL string

	// Scopes to request when the login request doesn't provide its own.
	// Defaults to DefaultScope.
	Scopes []string

	// AuthURL, TokenURL and VerifyURL are the provider's endpoints.  They
	// default to LINE's and are only overridden for testing.
	AuthURL   string
	TokenURL  string
	VerifyURL string

	// UILocales is an optional list of preferred languages for LINE's login
	// screens, sent as the "ui_locales" parameter.
	UILocales []language.Tag

	// ProviderCA is an optional CA cert to use when sending requests to the provider.
	ProviderCA string

	// Timeout bounds each request made to the provider.
	Timeout time.Duration

	// Logger is used for the provider's logging.  Defaults to a null logger.
	Logger hclog.Logger
}

// NewConfig composes a new config for the LINE provider.  The redirectURL may
// be empty, see CallbackURL.
//
// Supported options:
//   - WithScopes
//   - WithUILocales
//   - WithProviderCA
//   - WithTimeout
//   - WithLogger
//   - WithAuthURL
//   - WithTokenURL
//   - WithVerifyURL
func NewConfig(channelID string, channelSecret ClientSecret, redirectURL string, opt ...Option) (*Config, error) {
	const op = "line.NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		ChannelID:     channelID,
		ChannelSecret: channelSecret,
		RedirectURL:   redirectURL,
		Scopes:        opts.withScopes,
		AuthURL:       opts.withAuthURL,
		TokenURL:      opts.withTokenURL,
		VerifyURL:     opts.withVerifyURL,
		UILocales:     opts.withUILocales,
		ProviderCA:    opts.withProviderCA,
		Timeout:       opts.withTimeout,
		Logger:        opts.withLogger,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid provider config: %w", op, err)
	}
	return c, nil
}

// Validate the provider configuration.  Every problem found is reported.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	}
	var errs *multierror.Error
	if c.ChannelID == "" {
		errs = multierror.Append(errs, fmt.Errorf("%s: channel id is empty: %w", op, ErrInvalidParameter))
	}
	if c.ChannelSecret == "" {
		errs = multierror.Append(errs, fmt.Errorf("%s: channel secret is empty: %w", op, ErrInvalidParameter))
	}
	if c.RedirectURL != "" {
		if err := validateURL(c.RedirectURL); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: redirect URL: %w", op, err))
		}
	}
	endpoints := []struct{ name, url string }{
		{"auth", c.AuthURL},
		{"token", c.TokenURL},
		{"verify", c.VerifyURL},
	}
	for _, e := range endpoints {
		name, u := e.name, e.url
		if u == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: %s URL is empty: %w", op, name, ErrInvalidParameter))
			continue
		}
		if err := validateURL(u); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %s URL: %w", op, name, err))
		}
	}
	if len(c.Scopes) > 0 && !strutils.StrListContains(c.Scopes, oidc.ScopeOpenID) {
		errs = multierror.Append(errs, fmt.Errorf("%s: scopes must include %q: %w", op, oidc.ScopeOpenID, ErrInvalidParameter))
	}
	if c.Timeout < 0 {
		errs = multierror.Append(errs, fmt.Errorf("%s: timeout is negative: %w", op, ErrInvalidParameter))
	}
	return errs.ErrorOrNil()
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w: %w", s, ErrInvalidParameter, err)
	}
	if !strutils.StrListContains([]string{"https", "http"}, u.Scheme) {
		return fmt.Errorf("%s scheme %q is not http or https: %w", s, u.Scheme, ErrInvalidParameter)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %w", s, ErrInvalidParameter)
	}
	return nil
}

// Scope returns the configured scopes as a space delimited scope parameter.
func (c *Config) Scope() string {
	if len(c.Scopes) == 0 {
		return DefaultScope
	}
	return strings.Join(c.Scopes, " ")
}

// CallbackURL returns the configured RedirectURL, or when there isn't one, the
// callback URL of the host serving the request.
func (c *Config) CallbackURL(fullHost, callbackPath string) string {
	if c.RedirectURL != "" {
		return c.RedirectURL
	}
	return fullHost + callbackPath
}

// Endpoint returns the provider's oauth2 endpoint.  LINE expects the client
// credentials in the token request's body.
func (c *Config) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   c.AuthURL,
		TokenURL:  c.TokenURL,
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// oauth2Config returns the oauth2 client configuration for redirectURL.
// Scopes are deliberately left out, since scope is rendered by
// BuildAuthorizeParams.
func (c *Config) oauth2Config(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ChannelID,
		ClientSecret: string(c.ChannelSecret),
		RedirectURL:  redirectURL,
		Endpoint:     c.Endpoint(),
	}
}

// HttpClient is a helper function that creates a new http client for the
// provider configured
func (c *Config) HttpClient() (*http.Client, error) {
	const op = "Config.HttpClient"
	client, err := sdkHttp.NewClient(c.ProviderCA, c.Timeout)
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value successfully: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
	}
	return client, nil
}

// HttpClientContext is a helper function that returns a new Context that
// carries the provided HTTP client. This method sets the same context key used
// by the github.com/coreos/go-oidc and golang.org/x/oauth2 packages, so the
// returned context works for those packages as well.
func HttpClientContext(ctx context.Context, client *http.Client) context.Context {
	return sdkHttp.OidcClientContext(ctx, client)
}

// configOptions is the set of available options
type configOptions struct {
	withScopes     []string
	withAuthURL    string
	withTokenURL   string
	withVerifyURL  string
	withUILocales  []language.Tag
	withProviderCA string
	withTimeout    time.Duration
	withLogger     hclog.Logger
}

// configDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func configDefaults() configOptions {
	return configOptions{
		withScopes:    strings.Fields(DefaultScope),
		withAuthURL:   DefaultSite + DefaultAuthPath,
		withTokenURL:  DefaultTokenURL,
		withVerifyURL: DefaultVerifyURL,
		withTimeout:   DefaultTimeout,
		withLogger:    hclog.NewNullLogger(),
	}
}

// getConfigOpts gets the defaults and applies the opt overrides passed
// in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithScopes provides an optional list of scopes, replacing DefaultScope.
// Duplicates are removed.
func WithScopes(scopes ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withScopes = strutils.RemoveDuplicatesStable(scopes, false)
		}
	}
}

// WithUILocales provides an optional list of preferred languages for the
// login screens.
func WithUILocales(tags ...language.Tag) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withUILocales = tags
		}
	}
}

// WithProviderCA provides an optional CA cert for the provider's config
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}

// WithTimeout provides an optional timeout for requests made to the provider.
// Zero disables the client side timeout.
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withTimeout = d
		}
	}
}

// WithLogger provides an optional logger for the provider's config
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithAuthURL overrides the authorization endpoint.
func WithAuthURL(u string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withAuthURL = u
		}
	}
}

// WithTokenURL overrides the token endpoint.
func WithTokenURL(u string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withTokenURL = u
		}
	}
}

// WithVerifyURL overrides the id_token verification endpoint.
func WithVerifyURL(u string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withVerifyURL = u
		}
	}
}
