// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/hashicorp/cap-line/line"
)

func Example() {
	// Create a new Config
	pc, _ := line.NewConfig(
		"your_channel_id",
		"your_channel_secret",
		"",
	)

	// Create a provider
	p, _ := line.NewProvider(pc)
	defer p.Done()

	// Keep the login's state and nonce in a cookie session
	store := sessions.NewCookieStore([]byte("your-32-byte-session-signing-key"))
	sessionFn, _ := NewGorillaSessionFunc(store, "line-login")

	// A function to handle successful attempts.
	successFn := func(
		state string,
		id *line.Identity,
		w http.ResponseWriter,
		req *http.Request,
	) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(fmt.Sprintf("welcome %s", id.Info["name"])))
	}
	// A function to handle errors and failed attempts.
	errorFn := func(
		state string,
		r *AuthenErrorResponse,
		e error,
		w http.ResponseWriter,
		req *http.Request,
	) {
		if e != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(e.Error()))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}

	// create the login handler and register it for use.
	loginHandler, _ := Login(p, DefaultCallbackPath, sessionFn, errorFn)
	http.HandleFunc("/auth/line", loginHandler)

	// create the authorization code callback and register it for use.
	authCodeCallback, _ := AuthCode(p, sessionFn, successFn, errorFn)
	http.HandleFunc(DefaultCallbackPath, authCodeCallback)
}
