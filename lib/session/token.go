// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/notionbot/lib/codec"
)

const signatureSize = ed25519.SignatureSize

// Purpose distinguishes token kinds that share the wire format.
type Purpose string

const (
	PurposeSession    Purpose = "session"
	PurposeOAuthState Purpose = "oauth-state"
)

// Claims is the signed payload of a token.
type Claims struct {
	// Subject is the Discord user ID. Empty for OAuth state tokens.
	Subject string `cbor:"1,keyasint,omitempty"`

	Name   string `cbor:"2,keyasint,omitempty"`
	Avatar string `cbor:"3,keyasint,omitempty"`

	Purpose Purpose `cbor:"4,keyasint"`

	// IssuedAt and ExpiresAt are Unix seconds.
	IssuedAt  int64 `cbor:"5,keyasint"`
	ExpiresAt int64 `cbor:"6,keyasint"`

	// Nonce is 16 random bytes, hex encoded. It identifies the token
	// for revocation.
	Nonce string `cbor:"7,keyasint"`

	// AccessToken is the user's Discord OAuth token, sealed by the
	// caller. The token itself is only signed, not encrypted.
	AccessToken string `cbor:"8,keyasint,omitempty"`
}

// Expiry returns ExpiresAt as a time.Time.
func (c *Claims) Expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

var (
	ErrMalformed        = errors.New("session: malformed token")
	ErrInvalidSignature = errors.New("session: invalid signature")
	ErrExpired          = errors.New("session: token has expired")
	ErrWrongPurpose     = errors.New("session: token has the wrong purpose")
	ErrRevoked          = errors.New("session: token has been revoked")
)

// NewNonce returns 16 random bytes as hex.
func NewNonce() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("session: generating nonce: %w", err)
	}
	return hex.EncodeToString(raw[:]), nil
}

// Mint signs claims and returns the cookie-safe token string.
func Mint(privateKey ed25519.PrivateKey, claims *Claims) (string, error) {
	payload, err := codec.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("session: encoding claims: %w", err)
	}
	signature := ed25519.Sign(privateKey, payload)

	raw := make([]byte, len(payload)+signatureSize)
	copy(raw, payload)
	copy(raw[len(payload):], signature)
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Verify checks the signature and expiry of token against the current
// time. The caller checks Purpose and revocation, or uses [Manager].
func Verify(publicKey ed25519.PublicKey, token string) (*Claims, error) {
	return VerifyAt(publicKey, token, time.Now())
}

// VerifyAt is Verify with an explicit time.
func VerifyAt(publicKey ed25519.PublicKey, token string, now time.Time) (*Claims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) <= signatureSize {
		return nil, ErrMalformed
	}

	split := len(raw) - signatureSize
	payload, signature := raw[:split], raw[split:]
	if !ed25519.Verify(publicKey, payload, signature) {
		return nil, ErrInvalidSignature
	}

	var claims Claims
	if err := codec.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if now.Unix() >= claims.ExpiresAt {
		return nil, ErrExpired
	}
	return &claims, nil
}
