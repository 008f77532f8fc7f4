// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
)

// GenerateKey creates a new Ed25519 signing key.
func GenerateKey() (ed25519.PrivateKey, error) {
	_, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating Ed25519 key: %w", err)
	}
	return private, nil
}

// SaveKey writes the key's 32-byte seed, base64 encoded, to path with
// 0600 permissions.
func SaveKey(path string, private ed25519.PrivateKey) error {
	encoded := base64.StdEncoding.EncodeToString(private.Seed()) + "\n"
	if err := os.WriteFile(path, []byte(encoded), 0600); err != nil {
		return fmt.Errorf("writing signing key: %w", err)
	}
	return nil
}

// LoadKey reads a key written by SaveKey.
func LoadKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading signing key: %w", err)
	}
	seed, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(data)))
	if err != nil {
		return nil, fmt.Errorf("decoding signing key %s: %w", path, err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signing key %s has %d bytes, want %d", path, len(seed), ed25519.SeedSize)
	}
	return ed25519.NewKeyFromSeed(seed), nil
}
