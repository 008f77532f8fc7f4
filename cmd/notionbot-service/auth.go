// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"
	"net/url"
	"time"

	"github.com/bureau-foundation/notionbot/lib/session"
)

const (
	stateCookieName = "notionbot_oauth_state"
	stateCookiePath = "/api/auth"
)

type sessionHandler func(w http.ResponseWriter, r *http.Request, user session.User)

// withSession authenticates the session cookie before calling handler.
func (s *server) withSession(handler sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.cookieName)
		if err != nil {
			s.writeError(w, r, "authenticate", errUnauthenticated)
			return
		}
		user, _, err := s.sessions.Authenticate(cookie.Value)
		if err != nil {
			s.logger.Debug("session rejected", "error", err)
			s.writeError(w, r, "authenticate", errUnauthenticated)
			return
		}
		handler(w, r, user)
	})
}

// handleLogin starts Discord OAuth. The state token is both signed and
// pinned to this browser by cookie.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.NewState()
	if err != nil {
		s.writeError(w, r, "oauth-login", err)
		return
	}
	s.setCookie(w, stateCookieName, stateCookiePath, state, s.sessions.StateTTL())
	http.Redirect(w, r, s.oauth.AuthorizeURL(state), http.StatusFound)
}

func (s *server) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if denied := query.Get("error"); denied != "" {
		s.logger.Warn("discord authorization denied", "operation", "oauth-callback", "reason", denied)
		s.redirectLoginError(w, r, denied)
		return
	}

	state := query.Get("state")
	cookie, err := r.Cookie(stateCookieName)
	if state == "" || err != nil || cookie.Value != state {
		s.logger.Warn("oauth state mismatch", "operation", "oauth-callback")
		s.redirectLoginError(w, r, "invalid_state")
		return
	}
	if err := s.sessions.CheckState(state); err != nil {
		s.logger.Warn("oauth state rejected", "operation", "oauth-callback", "error", err)
		s.redirectLoginError(w, r, "invalid_state")
		return
	}
	s.clearCookie(w, stateCookieName, stateCookiePath)

	ctx := r.Context()
	token, err := s.discord.Exchange(ctx, s.oauth, query.Get("code"))
	if err != nil {
		s.logger.Error("oauth code exchange failed", "operation", "oauth-callback", "error", err)
		s.redirectLoginError(w, r, "exchange_failed")
		return
	}
	user, err := s.discord.CurrentUser(ctx, token.AccessToken)
	if err != nil {
		s.logger.Error("fetching discord user failed", "operation", "oauth-callback", "error", err)
		s.redirectLoginError(w, r, "user_lookup_failed")
		return
	}
	sealedToken, err := s.secrets.Seal(token.AccessToken)
	if err != nil {
		s.logger.Error("sealing access token failed", "operation", "oauth-callback", "error", err)
		s.redirectLoginError(w, r, "internal")
		return
	}
	sessionToken, err := s.sessions.Issue(session.User{
		ID:          user.ID,
		Name:        user.Username,
		Avatar:      user.Avatar,
		AccessToken: sealedToken,
	})
	if err != nil {
		s.logger.Error("issuing session failed", "operation", "oauth-callback", "error", err)
		s.redirectLoginError(w, r, "internal")
		return
	}

	s.setCookie(w, s.cookieName, "/", sessionToken, s.sessions.TTL())
	s.logger.Info("dashboard login", "user_id", user.ID, "username", user.Username)
	http.Redirect(w, r, s.publicURL+"/dashboard", http.StatusFound)
}

// handleLogout revokes the session if there is one. It always clears
// the cookie and succeeds.
func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(s.cookieName); err == nil {
		if user, claims, err := s.sessions.Authenticate(cookie.Value); err == nil {
			s.sessions.Revoke(claims)
			s.logger.Info("dashboard logout", "user_id", user.ID)
		}
	}
	s.clearCookie(w, s.cookieName, "/")
	writeData(w, http.StatusOK, map[string]bool{"loggedOut": true})
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request, user session.User) {
	writeData(w, http.StatusOK, user)
}

func (s *server) redirectLoginError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, s.publicURL+"/auth/login?error="+url.QueryEscape(code), http.StatusFound)
}

func (s *server) setCookie(w http.ResponseWriter, name, path, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *server) clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
