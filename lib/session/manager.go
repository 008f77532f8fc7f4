// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/notionbot/lib/clock"
)

const (
	DefaultTTL      = 7 * 24 * time.Hour
	DefaultStateTTL = 10 * time.Minute
)

// User is the identity a session carries.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"username"`
	Avatar string `json:"avatar,omitempty"`

	// AccessToken is opaque to the manager and never serialized to
	// JSON. The service stores a sealed Discord token here.
	AccessToken string `json:"-"`
}

// Config configures a Manager. PrivateKey is required.
type Config struct {
	PrivateKey ed25519.PrivateKey
	TTL        time.Duration
	StateTTL   time.Duration
	Clock      clock.Clock
	Blacklist  *Blacklist
}

// Manager issues and checks dashboard sessions and OAuth state tokens.
type Manager struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	ttl        time.Duration
	stateTTL   time.Duration
	clock      clock.Clock
	blacklist  *Blacklist
}

func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
		return nil, errors.New("session: signing key is required")
	}
	manager := &Manager{
		privateKey: cfg.PrivateKey,
		publicKey:  cfg.PrivateKey.Public().(ed25519.PublicKey),
		ttl:        cfg.TTL,
		stateTTL:   cfg.StateTTL,
		clock:      cfg.Clock,
		blacklist:  cfg.Blacklist,
	}
	if manager.ttl <= 0 {
		manager.ttl = DefaultTTL
	}
	if manager.stateTTL <= 0 {
		manager.stateTTL = DefaultStateTTL
	}
	if manager.clock == nil {
		manager.clock = clock.Real()
	}
	if manager.blacklist == nil {
		manager.blacklist = NewBlacklist()
	}
	return manager, nil
}

// TTL is the session lifetime, used for the cookie Max-Age.
func (m *Manager) TTL() time.Duration { return m.ttl }

// StateTTL is the OAuth state lifetime.
func (m *Manager) StateTTL() time.Duration { return m.stateTTL }

// Issue mints a session token for user.
func (m *Manager) Issue(user User) (string, error) {
	return m.mint(Claims{
		Subject:     user.ID,
		Name:        user.Name,
		Avatar:      user.Avatar,
		AccessToken: user.AccessToken,
		Purpose:     PurposeSession,
	}, m.ttl)
}

// Authenticate verifies a session token and returns its user.
func (m *Manager) Authenticate(token string) (User, *Claims, error) {
	claims, err := m.verify(token, PurposeSession)
	if err != nil {
		return User{}, nil, err
	}
	if claims.Subject == "" {
		return User{}, nil, fmt.Errorf("%w: session has no subject", ErrMalformed)
	}
	return User{
		ID:          claims.Subject,
		Name:        claims.Name,
		Avatar:      claims.Avatar,
		AccessToken: claims.AccessToken,
	}, claims, nil
}

// Revoke blacklists a session until it would expire and drops stale
// entries.
func (m *Manager) Revoke(claims *Claims) {
	m.blacklist.Revoke(claims.Nonce, claims.Expiry())
	m.blacklist.Cleanup(m.clock.Now())
}

// NewState mints an OAuth state token.
func (m *Manager) NewState() (string, error) {
	return m.mint(Claims{Purpose: PurposeOAuthState}, m.stateTTL)
}

// CheckState verifies an OAuth state token.
func (m *Manager) CheckState(token string) error {
	_, err := m.verify(token, PurposeOAuthState)
	return err
}

func (m *Manager) mint(claims Claims, ttl time.Duration) (string, error) {
	nonce, err := NewNonce()
	if err != nil {
		return "", err
	}
	now := m.clock.Now()
	claims.Nonce = nonce
	claims.IssuedAt = now.Unix()
	claims.ExpiresAt = now.Add(ttl).Unix()
	return Mint(m.privateKey, &claims)
}

func (m *Manager) verify(token string, purpose Purpose) (*Claims, error) {
	claims, err := VerifyAt(m.publicKey, token, m.clock.Now())
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongPurpose, claims.Purpose, purpose)
	}
	if m.blacklist.IsRevoked(claims.Nonce) {
		return nil, ErrRevoked
	}
	return claims, nil
}
