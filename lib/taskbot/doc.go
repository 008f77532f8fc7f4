// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskbot turns Discord slash commands into Notion task
// operations.
//
// A [Dispatcher] receives an [Invocation] (already verified and decoded
// by the interactions endpoint) and returns a [Reply]. It never returns
// an error: every failure becomes an ephemeral reply so that Discord
// always receives an answer within its deadline.
//
// Three commands manage the guild's configuration: setup, config and
// reset. Every other command first loads the guild's configuration and
// answers with a setup-required message, without contacting Notion,
// when the configuration is incomplete.
//
// The command definitions registered with Discord are embedded from
// commands.jsonc and returned by [Commands]. The option names there are
// the keys the dispatcher reads from [Invocation.Options].
//
// [Advisor] wraps an [llm.Provider] with the two advice prompts. The
// dashboard renders advice with [RenderAdviceHTML].
package taskbot
