// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package guildconfig persists the per-guild link between a Discord
// server and a Notion task database.
//
// [Store] is the interface the bot, dashboard and bot API share.
// [SQLiteStore] is the production implementation; [MemoryStore] backs
// tests and single-process development runs. Notion integration
// tokens are plaintext only in memory: SQLiteStore passes them through
// a [SecretProvider] on the way to and from disk, and log lines carry
// a [Fingerprint] instead of the key.
package guildconfig
