// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpmw holds the HTTP middleware shared by the service's
// dashboard, bot API and interaction endpoints: request IDs, access
// logging, panic recovery, security headers and per-client rate
// limiting.
//
// Middleware are plain func(http.Handler) http.Handler values composed
// with [Chain], outermost first.
package httpmw
