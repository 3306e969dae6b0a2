// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// capline provides packages which add LINE Login (OAuth2 authorization code
// flow with OpenID Connect id_token verification) to Go http servers.
//
// The line package holds the provider integration, and line/callback the
// http.HandlerFuncs which glue it to a server's routes and sessions.
package capline
