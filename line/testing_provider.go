// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package line

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/cap-line/line/internal/strutils"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2/jwt"
)

const (
	// TestAuthPath, TestTokenPath and TestVerifyPath are the TestProvider's
	// endpoints, which mirror LINE's.
	TestAuthPath   = "/oauth2/v2.1/authorize"
	TestTokenPath  = "/oauth2/v2.1/token"
	TestVerifyPath = "/oauth2/v2.1/verify"

	// TestDefaultExpiresIn is the expires_in of the TestProvider's access
	// tokens.
	TestDefaultExpiresIn = 2592000
)

// TestProvider is a local server that stands in for LINE's authorization,
// token and id_token verification endpoints, which makes writing tests much
// easier.
//
// The verification endpoint checks the id_token's signature, expiry and
// audience, plus its nonce when one is sent, and replies with the same errors
// LINE does.
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string

	allowedRedirectURIs []string
	replySubject        string
	replyClaims         map[string]interface{}

	mu                sync.Mutex
	clientID          string
	clientSecret      string
	expectedAuthCode  string
	expectedAuthNonce string
	lastAuthNonce     string
	customClaims      map[string]interface{}
	customAudience    string
	expiresIn         int
	omitIDToken       bool
	omitRefreshToken  bool
	verifyErrCode     string
	verifyErrDesc     string
	verifyCount       int
	lastVerifyForm    string

	ecdsaPublicKey  string
	ecdsaPrivateKey string
	publicKey       crypto.PublicKey

	t *testing.T
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// StartTestProvider creates a disposable TestProvider.  A port of zero picks
// any free port.
func StartTestProvider(t *testing.T, port int) *TestProvider {
	t.Helper()
	require := require.New(t)

	p := &TestProvider{
		allowedRedirectURIs: []string{
			"https://example.com/auth/line/callback",
		},
		replySubject: "U1234567890abcdef1234567890abcdef",
		replyClaims: map[string]interface{}{
			"name":    "Test User",
			"picture": "https://profile.line-scdn.net/test",
			"email":   "test@example.com",
			"amr":     []string{"linesso"},
		},
		clientID:     "test-channel-id",
		clientSecret: "test-channel-secret",
		expiresIn:    TestDefaultExpiresIn,
		t:            t,
	}
	p.ecdsaPublicKey, p.ecdsaPrivateKey = TestGenerateKeys(t)
	p.publicKey = testParsePublicKey(t, p.ecdsaPublicKey)

	p.httpServer = httptestNewUnstartedServerWithPort(t, p, port)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	cert := p.httpServer.Certificate()

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	require.NoError(err)
	p.caCert = buf.String()

	return p
}

// SetClientCreds is for configuring the channel id and secret the provider
// accepts.
func (p *TestProvider) SetClientCreds(clientID, clientSecret string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clientID = clientID
	p.clientSecret = clientSecret
}

// ClientCreds returns the channel id and secret the provider accepts.
func (p *TestProvider) ClientCreds() (string, ClientSecret) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clientID, ClientSecret(p.clientSecret)
}

// SetExpectedAuthCode configures the auth code to return from the
// authorization endpoint and the allowed auth code for the token endpoint.
func (p *TestProvider) SetExpectedAuthCode(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedAuthCode = code
}

// SetExpectedAuthNonce configures the nonce embedded in issued id_tokens.  If
// it's not set, the nonce of the last authorization request is used.
func (p *TestProvider) SetExpectedAuthNonce(nonce string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expectedAuthNonce = nonce
}

// SetAllowedRedirectURIs allows you to configure the allowed redirect URIs.
// If not configured "https://example.com/auth/line/callback" is used.
func (p *TestProvider) SetAllowedRedirectURIs(uris []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowedRedirectURIs = uris
}

// SetCustomClaims lets you set claims to add to (or override in) the
// id_tokens issued.
func (p *TestProvider) SetCustomClaims(customClaims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customClaims = customClaims
}

// SetCustomAudience configures what audience value to embed in issued
// id_tokens.
func (p *TestProvider) SetCustomAudience(customAudience string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customAudience = customAudience
}

// SetExpiresIn configures the expires_in of issued access tokens.  Zero omits
// it from the token response.
func (p *TestProvider) SetExpiresIn(seconds int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expiresIn = seconds
}

// OmitIDTokens forces the token endpoint to not return an id_token.
func (p *TestProvider) OmitIDTokens() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitIDToken = true
}

// OmitRefreshTokens forces the token endpoint to not return a refresh_token.
func (p *TestProvider) OmitRefreshTokens() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitRefreshToken = true
}

// SetVerifyError forces the verification endpoint to fail with the error
// code and description.  An empty code restores normal verification.
func (p *TestProvider) SetVerifyError(code, desc string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verifyErrCode = code
	p.verifyErrDesc = desc
}

// VerifyCount returns the number of requests made to the verification
// endpoint.
func (p *TestProvider) VerifyCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.verifyCount
}

// LastVerifyForm returns the raw body of the last verification request.
func (p *TestProvider) LastVerifyForm() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastVerifyForm
}

// Addr returns the current base URL for the test provider's running webserver.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// CACert returns the pem-encoded CA certificate used by the test provider's
// HTTPS server.
func (p *TestProvider) CACert() string { return p.caCert }

// SigningKeys returns the test provider's pem-encoded keys used to sign JWTs.
func (p *TestProvider) SigningKeys() (pub, priv string) {
	return p.ecdsaPublicKey, p.ecdsaPrivateKey
}

// ConfigOptions returns the Config options which point a Config at the test
// provider.
func (p *TestProvider) ConfigOptions() []Option {
	return []Option{
		WithAuthURL(p.Addr() + TestAuthPath),
		WithTokenURL(p.Addr() + TestTokenPath),
		WithVerifyURL(p.Addr() + TestVerifyPath),
		WithProviderCA(p.CACert()),
	}
}

// IssueIdToken returns an id_token signed by the provider for its channel,
// with the nonce when it's not empty.
func (p *TestProvider) IssueIdToken(nonce string, expireIn time.Duration) IdToken {
	p.mu.Lock()
	defer p.mu.Unlock()
	return IdToken(p.signIdToken(nonce, expireIn))
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, out interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

func (p *TestProvider) writeAuthErrorResponse(w http.ResponseWriter, req *http.Request, errorCode, errorMessage string) {
	qv := req.URL.Query()

	redirectURI := qv.Get("redirect_uri") +
		"?state=" + url.QueryEscape(qv.Get("state")) +
		"&error=" + url.QueryEscape(errorCode)

	if errorMessage != "" {
		redirectURI += "&error_description=" + url.QueryEscape(errorMessage)
	}

	http.Redirect(w, req, redirectURI, http.StatusFound)
}

func (p *TestProvider) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, errorMessage string) error {
	body := struct {
		Code string `json:"error"`
		Desc string `json:"error_description,omitempty"`
	}{
		Code: errorCode,
		Desc: errorMessage,
	}
	w.WriteHeader(statusCode)
	return p.writeJSON(w, &body)
}

// signIdToken requires the lock to be held.
func (p *TestProvider) signIdToken(nonce string, expireIn time.Duration) string {
	now := time.Now()
	stdClaims := jwt.Claims{
		Subject:  p.replySubject,
		Issuer:   DefaultSite,
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(expireIn)),
		Audience: jwt.Audience{p.clientID},
	}
	if p.customAudience != "" {
		stdClaims.Audience = jwt.Audience{p.customAudience}
	}
	privateClaims := map[string]interface{}{
		"auth_time": now.Unix(),
	}
	if nonce != "" {
		privateClaims["nonce"] = nonce
	}
	for k, v := range p.replyClaims {
		privateClaims[k] = v
	}
	for k, v := range p.customClaims {
		privateClaims[k] = v
	}
	return TestSignJWT(p.t, p.ecdsaPrivateKey, stdClaims, privateClaims)
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.t.Helper()

	w.Header().Set("Content-Type", "application/json")

	switch req.URL.Path {
	case TestAuthPath:
		if req.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		qv := req.URL.Query()

		if qv.Get("response_type") != "code" {
			p.writeAuthErrorResponse(w, req, "unsupported_response_type", "")
			return
		}
		if !strutils.StrListContains(strings.Fields(qv.Get("scope")), "openid") {
			p.writeAuthErrorResponse(w, req, "invalid_scope", "")
			return
		}
		if qv.Get("client_id") != p.clientID {
			p.writeAuthErrorResponse(w, req, "unauthorized_client", "")
			return
		}

		if p.expectedAuthCode == "" {
			p.writeAuthErrorResponse(w, req, "access_denied", "")
			return
		}

		state := qv.Get("state")
		if state == "" {
			p.writeAuthErrorResponse(w, req, "invalid_request", "missing state parameter")
			return
		}

		redirectURI := qv.Get("redirect_uri")
		if redirectURI == "" {
			p.writeAuthErrorResponse(w, req, "invalid_request", "missing redirect_uri parameter")
			return
		}
		p.lastAuthNonce = qv.Get("nonce")

		redirectURI += "?state=" + url.QueryEscape(state) +
			"&code=" + url.QueryEscape(p.expectedAuthCode)

		http.Redirect(w, req, redirectURI, http.StatusFound)

		return

	case TestTokenPath:
		if req.Method != "POST" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		switch {
		case req.FormValue("grant_type") != "authorization_code":
			_ = p.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "bad grant_type")
			return
		case req.FormValue("client_id") != p.clientID || req.FormValue("client_secret") != p.clientSecret:
			_ = p.writeErrorResponse(w, http.StatusUnauthorized, "invalid_client", "invalid client credentials")
			return
		case !strutils.StrListContains(p.allowedRedirectURIs, req.FormValue("redirect_uri")):
			_ = p.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "redirect_uri is not allowed")
			return
		case req.FormValue("code") != p.expectedAuthCode:
			_ = p.writeErrorResponse(w, http.StatusBadRequest, "invalid_grant", "unexpected auth code")
			return
		}

		nonce := p.expectedAuthNonce
		if nonce == "" {
			nonce = p.lastAuthNonce
		}

		reply := struct {
			AccessToken  string `json:"access_token"`
			TokenType    string `json:"token_type"`
			ExpiresIn    int    `json:"expires_in,omitempty"`
			RefreshToken string `json:"refresh_token,omitempty"`
			Scope        string `json:"scope"`
			IDToken      string `json:"id_token,omitempty"`
		}{
			AccessToken:  "test-access-token",
			TokenType:    "Bearer",
			ExpiresIn:    p.expiresIn,
			RefreshToken: "test-refresh-token",
			Scope:        "profile openid email",
		}
		if !p.omitIDToken {
			reply.IDToken = p.signIdToken(nonce, 5*time.Minute)
		}
		if p.omitRefreshToken {
			reply.RefreshToken = ""
		}
		if err := p.writeJSON(w, &reply); err != nil {
			return
		}

	case TestVerifyPath:
		if req.Method != "POST" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		p.verifyCount++
		body, err := io.ReadAll(req.Body)
		if err != nil {
			_ = p.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "unreadable body")
			return
		}
		p.lastVerifyForm = string(body)
		form, err := url.ParseQuery(string(body))
		if err != nil {
			_ = p.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "malformed body")
			return
		}

		if p.verifyErrCode != "" {
			_ = p.writeErrorResponse(w, http.StatusBadRequest, p.verifyErrCode, p.verifyErrDesc)
			return
		}

		tok, err := jwt.ParseSigned(form.Get("id_token"))
		if err != nil {
			_ = p.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid IdToken.")
			return
		}
		var std jwt.Claims
		var all map[string]interface{}
		if err := tok.Claims(p.publicKey, &std, &all); err != nil {
			_ = p.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid IdToken.")
			return
		}

		nonce, _ := all["nonce"].(string)
		switch {
		case std.Expiry != nil && std.Expiry.Time().Before(time.Now()):
			_ = p.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "IdToken expired.")
			return
		case form.Get("client_id") == "" || !std.Audience.Contains(form.Get("client_id")):
			_ = p.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid IdToken Audience.")
			return
		case form.Has("nonce") && form.Get("nonce") != nonce:
			_ = p.writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid IdToken Nonce.")
			return
		}

		if err := p.writeJSON(w, all); err != nil {
			return
		}

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// testParsePublicKey parses a pem-encoded public key.
func testParsePublicKey(t *testing.T, pubKey string) crypto.PublicKey {
	t.Helper()
	require := require.New(t)

	block, _ := pem.Decode([]byte(pubKey))
	require.NotNil(block)

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(err)
	return pub
}

// httptestNewUnstartedServerWithPort is roughly the same as
// httptest.NewUnstartedServer() but allows the caller to explicitly choose the
// port if desired.
func httptestNewUnstartedServerWithPort(t *testing.T, handler http.Handler, port int) *httptest.Server {
	t.Helper()
	require := require.New(t)
	require.GreaterOrEqual(port, 0)

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	l, err := net.Listen("tcp", addr)
	require.NoError(err)

	return &httptest.Server{
		Listener: l,
		Config:   &http.Server{Handler: handler},
	}
}
