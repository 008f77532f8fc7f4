// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// notionbot-service hosts the Discord interactions endpoint, the
// dashboard JSON API and the bot API on one HTTP listener.
//
// Slash commands arrive at POST /interactions, are verified against
// the application's Ed25519 key and run by lib/taskbot. A command that
// does not finish within the defer budget is acknowledged with a
// deferred response and its result is edited into the original message
// once the dispatcher returns.
//
// The dashboard API is authenticated by a signed session cookie issued
// after Discord OAuth. The session carries the user's Discord access
// token, sealed with the service's age identity, so guild listings are
// always read live from Discord. The bot API is authenticated by a
// shared bearer secret.
//
// Configuration is YAML (lib/config), given with --config or the
// NOTIONBOT_CONFIG environment variable.
package main
