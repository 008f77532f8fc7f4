// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the HTTP serving scaffolding for
// notionbot-service.
//
// [HTTPServer] owns the TCP listener and graceful shutdown. The binary
// builds its own mux and middleware chain and hands the result to the
// server; this package provides building blocks, not a framework.
//
// # Authentication
//
// The bot API is authenticated with a single shared secret presented
// as "Authorization: Bearer <secret>". [VerifyBearer] performs the
// comparison. Dashboard requests are authenticated by session cookie
// (lib/session) and Discord interactions by Ed25519 signature
// (lib/discord); neither passes through this package.
package service
