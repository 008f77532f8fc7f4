// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package guildconfig

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/notionbot/lib/sealed"
)

// SecretProvider converts Notion keys to and from their stored form.
type SecretProvider interface {
	Seal(plaintext string) (string, error)
	Open(stored string) (string, error)
}

// SealedSecrets encrypts keys to an age identity. Keys sealed by other
// recipients in Recipients can be read by those identities too, which
// supports key rotation.
type SealedSecrets struct {
	keypair    *sealed.Keypair
	recipients []string
}

// NewSealedSecrets borrows keypair; the caller closes it after the
// store is closed. Extra recipients are optional.
func NewSealedSecrets(keypair *sealed.Keypair, extraRecipients ...string) (*SealedSecrets, error) {
	if keypair == nil || keypair.PrivateKey == nil {
		return nil, errors.New("guildconfig: sealed secrets require an age identity")
	}
	recipients := append([]string{keypair.PublicKey}, extraRecipients...)
	for _, recipient := range extraRecipients {
		if err := sealed.ParsePublicKey(recipient); err != nil {
			return nil, fmt.Errorf("guildconfig: %w", err)
		}
	}
	return &SealedSecrets{keypair: keypair, recipients: recipients}, nil
}

func (s *SealedSecrets) Seal(plaintext string) (string, error) {
	ciphertext, err := sealed.Encrypt([]byte(plaintext), s.recipients)
	if err != nil {
		return "", fmt.Errorf("guildconfig: sealing notion key: %w", err)
	}
	return ciphertext, nil
}

func (s *SealedSecrets) Open(stored string) (string, error) {
	buffer, err := sealed.Decrypt(stored, s.keypair.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("guildconfig: opening notion key: %w", err)
	}
	if buffer == nil {
		return "", nil
	}
	defer buffer.Close()
	// The Notion client needs a string; the copy lives as long as the
	// request that asked for it.
	return buffer.String(), nil
}

// PlaintextSecrets stores keys unchanged. Development and tests only.
type PlaintextSecrets struct{}

func (PlaintextSecrets) Seal(plaintext string) (string, error) { return plaintext, nil }
func (PlaintextSecrets) Open(stored string) (string, error)    { return stored, nil }
