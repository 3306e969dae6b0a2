// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
callback is a package that provides callbacks (in the form of http.HandlerFunc)
for starting a LINE login and for handling LINE's responses to authorization
code flow authentication attempts.

The pending state and nonce are kept in the user agent's session between the
two, see SessionFunc and NewGorillaSessionFunc.
*/
package callback
