// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm provides a provider-agnostic interface for single-turn
// text completion against Large Language Model APIs.
//
// The abstraction is [Provider]. Implementations translate between the
// common [Request]/[Response] types and each vendor's wire format:
//   - [OpenAI]: the Chat Completions API (/v1/chat/completions), which
//     also covers compatible servers (Azure OpenAI, OpenRouter, vLLM,
//     Ollama)
//   - [Anthropic]: the Messages API (/v1/messages)
//
// Providers hold the API key and base URL. Requests are blocking; the
// advice commands that use this package post one prompt and wait for
// the whole answer.
package llm
