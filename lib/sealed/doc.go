// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts credentials at rest with age x25519 keys.
//
// The service holds one identity (loaded with [LoadKeypair] from a file
// the operator generated with `notionbot keygen`). Notion integration
// tokens are sealed to its public key with [Encrypt] before they reach
// the guild database and opened with [Decrypt] when a request needs
// them. Ciphertext is standard base64.
//
// Private keys and plaintext are held in [secret.Buffer] values.
package sealed
