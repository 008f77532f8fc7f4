// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration used for signed payloads
// (dashboard session and OAuth state tokens).
//
// JSON is used for everything that leaves the service: the Discord and
// Notion APIs, the dashboard API and CLI output. CBOR is used where
// bytes are signed, because Core Deterministic Encoding (RFC 8949
// §4.2) gives a single encoding for each value and the keyasint struct
// tags keep tokens small enough for a cookie.
package codec
