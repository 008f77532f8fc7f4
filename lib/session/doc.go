// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session mints and verifies the signed tokens behind the
// dashboard login.
//
// A token is the CBOR encoding of [Claims] followed by a 64-byte
// Ed25519 signature, base64url encoded so it fits in a cookie. Two
// purposes share the format: a seven-day dashboard session carrying
// the Discord user, and a ten-minute OAuth state token that binds the
// authorization redirect to the browser that started it. Purpose is
// part of the signed payload, so a state token is never accepted as a
// session.
//
// Logout revokes a session by nonce through the [Blacklist]; entries
// are dropped once the token would have expired anyway.
package session
