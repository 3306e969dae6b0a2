// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/hashicorp/cap-line/line"
	"github.com/hashicorp/cap-line/line/callback"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/text/language"
)

// List of required configuration environment variables
const (
	channelID     = "LINE_CHANNEL_ID"
	channelSecret = "LINE_CHANNEL_SECRET"
	port          = "LINE_PORT"
)

func envConfig() (map[string]string, error) {
	const op = "envConfig"
	env := map[string]string{
		channelID:     os.Getenv(channelID),
		channelSecret: os.Getenv(channelSecret),
		port:          os.Getenv(port),
	}
	for k, v := range env {
		if v == "" {
			return nil, fmt.Errorf("%s: %s is empty", op, k)
		}
	}
	return env, nil
}

func main() {
	scopes := flag.String("scopes", "", "comma separated list of scopes to request (must include openid)")
	locales := flag.String("ui-locales", "", "comma separated list of preferred languages for LINE's login screens")
	sessionKey := flag.String("session-key", "", "key used to sign the session cookie (32 bytes)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := hclog.Info
	if *debug {
		level = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "line-cli",
		Level: level,
	})

	env, err := envConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n\n", err)
		return
	}

	opts := []line.Option{line.WithLogger(logger)}
	if *scopes != "" {
		opts = append(opts, line.WithScopes(strings.Split(*scopes, ",")...))
	}
	if *locales != "" {
		var tags []language.Tag
		for _, l := range strings.Split(*locales, ",") {
			t, err := language.Parse(strings.TrimSpace(l))
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid ui locale %q: %s\n\n", l, err)
				return
			}
			tags = append(tags, t)
		}
		opts = append(opts, line.WithUILocales(tags...))
	}

	redirectURL := fmt.Sprintf("http://localhost:%s%s", env[port], callback.DefaultCallbackPath)
	pc, err := line.NewConfig(env[channelID], line.ClientSecret(env[channelSecret]), redirectURL, opts...)
	if err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		return
	}

	p, err := line.NewProvider(pc)
	if err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		return
	}
	defer p.Done()

	key := []byte(*sessionKey)
	if len(key) == 0 {
		id, err := line.NewID()
		if err != nil {
			fmt.Fprint(os.Stderr, err.Error())
			return
		}
		key = []byte(id)
	}
	store := sessions.NewCookieStore(key)
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	sessionFn, err := callback.NewGorillaSessionFunc(store, "line-login")
	if err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		return
	}

	loginHandler, err := callback.Login(p, callback.DefaultCallbackPath, sessionFn, failed(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating login handler: %s", err)
		return
	}
	authCodeHandler, err := callback.AuthCode(p, sessionFn, success(logger), failed(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating auth code handler: %s", err)
		return
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(homeHTML))
	})
	r.Get("/auth/line", loginHandler)
	r.Get(callback.DefaultCallbackPath, authCodeHandler)

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%s", env[port]))
	if err != nil {
		fmt.Fprint(os.Stderr, err.Error())
		return
	}
	srv := &http.Server{
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "url", fmt.Sprintf("http://localhost:%s/", env[port]))
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvCh <- err
		}
	}()

	select {
	case err := <-srvCh:
		fmt.Fprintf(os.Stderr, "server closed with error: %s", err.Error())
	case <-ctx.Done():
		fmt.Fprintf(os.Stderr, "Interrupted\n")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func success(logger hclog.Logger) callback.SuccessResponseFunc {
	const op = "success"
	return func(state string, id *line.Identity, w http.ResponseWriter, req *http.Request) {
		idData, err := json.MarshalIndent(id, "", "    ")
		if err != nil {
			logger.Error("unable to marshal identity", "op", op, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		logger.Info("login successful", "op", op, "uid", id.UID)
		fmt.Fprintf(os.Stderr, "Identity:%s\n", idData)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(successHTML)); err != nil {
			logger.Error("error writing successful response", "op", op, "error", err)
		}
	}
}

func failed(logger hclog.Logger) callback.ErrorResponseFunc {
	const op = "failed"
	return func(state string, r *callback.AuthenErrorResponse, e error, w http.ResponseWriter, req *http.Request) {
		var responseErr error
		switch {
		case e != nil:
			responseErr = e
			w.WriteHeader(http.StatusInternalServerError)
		case r != nil:
			responseErr = fmt.Errorf("%s: callback error from LINE: %s: %s", op, r.Error, r.Description)
			w.WriteHeader(http.StatusUnauthorized)
		default:
			responseErr = fmt.Errorf("%s: unknown error from callback", op)
			w.WriteHeader(http.StatusInternalServerError)
		}
		logger.Error("login failed", "op", op, "error", responseErr)
		if _, err := w.Write([]byte(responseErr.Error())); err != nil {
			logger.Error("error writing failed response", "op", op, "error", err)
		}
	}
}

const homeHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>LINE Login example</title>
</head>
<body>
	<a href="/auth/line">Log in with LINE</a>
</body>
</html>
`

const successHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>Authentication Succeeded</title>
</head>
<body>
	<h1>Authentication Succeeded</h1>
	<p>You may close this window. Your identity was printed to the console.</p>
</body>
</html>
`
