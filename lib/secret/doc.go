// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds long-lived service secrets (the age identity,
// the session signing key, the bot API secret, the Discord bot token)
// in memory outside the Go heap.
//
// [Buffer] is backed by an anonymous mmap region that is mlocked
// against swap and excluded from core dumps; Close zeros it.
// [ReadFromPath] loads a secret file straight into a Buffer.
//
// Depends on golang.org/x/sys/unix.
package secret
