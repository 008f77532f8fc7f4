// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Headers Discord signs interaction deliveries with.
const (
	SignatureHeader = "X-Signature-Ed25519"
	TimestampHeader = "X-Signature-Timestamp"
)

// maxInteractionBody bounds how much of an unverified body is read.
const maxInteractionBody = 1 << 20

// ErrInvalidSignature is returned for deliveries that fail
// verification. Discord expects a 401 for these.
var ErrInvalidSignature = errors.New("discord: invalid interaction signature")

// ParsePublicKey decodes the hex application public key shown in the
// developer portal.
func ParsePublicKey(hexKey string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("discord: decoding public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("discord: public key has %d bytes, want %d", len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

// VerifyInteraction checks signatureHex over timestamp+body.
func VerifyInteraction(publicKey ed25519.PublicKey, signatureHex, timestamp string, body []byte) bool {
	if signatureHex == "" || timestamp == "" {
		return false
	}
	signature, err := hex.DecodeString(signatureHex)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return false
	}
	message := make([]byte, 0, len(timestamp)+len(body))
	message = append(message, timestamp...)
	message = append(message, body...)
	return ed25519.Verify(publicKey, message, signature)
}

// ReadVerifiedBody reads the request body and verifies its signature.
// The body is returned only when verification succeeds.
func ReadVerifiedBody(r *http.Request, publicKey ed25519.PublicKey) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInteractionBody))
	if err != nil {
		return nil, fmt.Errorf("discord: reading interaction body: %w", err)
	}
	if !VerifyInteraction(publicKey, r.Header.Get(SignatureHeader), r.Header.Get(TimestampHeader), body) {
		return nil, ErrInvalidSignature
	}
	return body, nil
}
