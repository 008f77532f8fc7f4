// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Notionbot is the operator CLI for the Notion task bot. It shares the
// service's YAML configuration and SQLite store, so it can be run on
// the service host to register slash commands, generate keys, inspect
// guild settings and exercise a guild's Notion database directly.
package main
