// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package discord covers the parts of the Discord platform the bot and
// dashboard use.
//
// Interactions arrive over HTTP: [VerifyInteraction] checks the Ed25519
// signature Discord puts on every delivery, and [Interaction] /
// [InteractionResponse] model the payloads. The REST [Client]
// registers slash commands and checks bot membership with the bot
// token; the OAuth helpers ([OAuth.AuthorizeURL], [OAuth.Exchange],
// [CurrentUser], [CurrentUserGuilds]) back the dashboard login with the
// user's bearer token.
//
// Non-2xx responses become [*APIError]. A 429 is retried once after
// the interval Discord asks for.
package discord
