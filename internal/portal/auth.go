package portal

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	stateMaxAge          = 600
	defaultTokenLifetime = 3600
)

func oauthConfig(cfg *Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL(),
			TokenURL: cfg.TokenURL(),
		},
		RedirectURL: cfg.CallbackURL(),
		Scopes:      []string{"openid", "profile", "email"},
	}
}

// handleLogin starts the authorization code flow. The state value rides in
// a short-lived cookie scoped to /auth and is checked on the callback.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	state := oauth2.GenerateVerifier()
	s.setCookie(w, CookieOAuthState, state, "/auth", stateMaxAge)
	s.log.WithFields(log.Fields{"event": "login_redirect", "realm": s.cfg.Realm}).Info("redirecting to identity provider")
	http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		s.log.WithFields(log.Fields{"event": "login_failed", "error": e, "description": q.Get("error_description")}).Warn("authorization failed")
		s.metrics.logins.WithLabelValues("denied").Inc()
		writeJSONStatus(w, http.StatusUnauthorized, map[string]string{"error": e, "error_description": q.Get("error_description")})
		return
	}
	state := q.Get("state")
	if state == "" {
		s.callbackError(w, http.StatusBadRequest, "missing state parameter")
		return
	}
	stored, err := r.Cookie(CookieOAuthState)
	if err != nil || stored.Value == "" {
		s.callbackError(w, http.StatusUnauthorized, "csrf validation failed: missing state cookie")
		return
	}
	if subtle.ConstantTimeCompare([]byte(state), []byte(stored.Value)) != 1 {
		s.callbackError(w, http.StatusUnauthorized, "csrf validation failed: state mismatch")
		return
	}
	code := q.Get("code")
	if code == "" {
		s.callbackError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	ctx := context.WithValue(r.Context(), oauth2.HTTPClient, s.client)
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		s.log.WithError(err).WithField("event", "token_exchange_failed").Error("code exchange failed")
		s.callbackError(w, http.StatusUnauthorized, "token exchange failed")
		return
	}

	maxAge := defaultTokenLifetime
	if !tok.Expiry.IsZero() {
		if d := time.Until(tok.Expiry).Round(time.Second); d > 0 {
			maxAge = int(d / time.Second)
		}
	}
	s.setCookie(w, CookieAccessToken, tok.AccessToken, "/", maxAge)
	if idToken, _ := tok.Extra("id_token").(string); idToken != "" {
		s.setCookie(w, CookieIDToken, idToken, "/", maxAge)
	} else {
		s.log.WithField("event", "id_token_missing").Warn("no id_token in token response; logout falls back to client_id")
	}
	s.clearCookie(w, CookieOAuthState, "/auth")

	s.metrics.logins.WithLabelValues("ok").Inc()
	s.log.WithFields(log.Fields{"event": "login_complete", "max_age": maxAge}).Info("session established")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) callbackError(w http.ResponseWriter, status int, msg string) {
	s.log.WithFields(log.Fields{"event": "callback_rejected", "status": status}).Warn(msg)
	s.metrics.logins.WithLabelValues("rejected").Inc()
	writeJSONStatus(w, status, map[string]string{"error": msg})
}

// session returns the caller's verified claims.
func (s *Server) session(r *http.Request) (*Claims, error) {
	raw := sessionToken(r)
	if raw == "" {
		return nil, ErrNoSession
	}
	return s.verifier.Verify(r.Context(), raw)
}
