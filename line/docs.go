// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package line is a package for writing LINE Login integrations using the OAuth2
authorization code flow with OpenID Connect id_token verification.

Primary types provided by the package

* Config: provides the configuration for the LINE authorization code flow (for
example: channel id/secret, redirect URL, scopes, endpoint overrides, logger)

* Provider: provides the integration with LINE.  The provider provides
capabilities like: generating an auth URL, exchanging codes for tokens and
verifying id_tokens via LINE's remote verification endpoint.

* Session: the small key/value store used to bind the authorization request's
state and nonce to the user agent between the login redirect and the callback.

* Authentication: one callback's view of the flow.  It holds the token returned
by the code exchange and lazily verifies its id_token exactly once.

* Identity: the normalized record produced by a successful callback (uid, info,
credentials and extra).

LINE does not require relying parties to verify id_token signatures locally.
Instead, the id_token, the channel id and the nonce bound to the session are
POSTed to https://api.line.me/oauth2/v2.1/verify, which replies with the
token's claims or with an error.  The Verifier trusts that reply.

The line.callback package

The callback package includes the ability to create http.HandlerFuncs which can
be used for the login redirect and for the 3rd leg of the flow where the
authorization code is exchanged for tokens.
*/
package line
