// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for notionbot.
//
// Configuration is loaded from a single file specified by either the
// NOTIONBOT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no automatic file search.
//
// The file text is expanded before parsing: ${VAR} and ${VAR:-default}
// are replaced from the process environment, which is how container
// deployments inject credentials. Secrets may instead be read from
// files named by the *_file fields (discord.bot_token_file,
// discord.client_secret_file, llm.api_key_file, botapi.secret_file);
// their contents are trimmed.
//
// The configuration file supports development and production sections
// that override base values when [Config].Environment matches.
// Development caps Notion retry waits; production always marks session
// cookies Secure.
//
// Key exports:
//
//   - [Config] -- master struct, one field per section
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.Validate] -- everything notionbot-service requires
//
// This package depends on no other notionbot packages.
package config
