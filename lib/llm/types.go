// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import "strings"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// UserMessage builds a user-authored message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Request is a completion request.
type Request struct {
	// Model is the provider's model identifier.
	Model string

	// System is an optional system prompt.
	System string

	// Messages is the conversation so far. Must be non-empty.
	Messages []Message

	// MaxTokens bounds the response length. Required by Anthropic;
	// OpenAI uses its own default when zero.
	MaxTokens int

	// Temperature overrides the provider's sampling temperature.
	Temperature *float64
}

// StopReason explains why generation ended.
type StopReason string

const (
	StopReasonEndTurn      StopReason = "end_turn"
	StopReasonMaxTokens    StopReason = "max_tokens"
	StopReasonStopSequence StopReason = "stop_sequence"
)

// Usage reports token consumption for one request.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is a completed generation.
type Response struct {
	// Content holds the text blocks of the answer in order.
	Content []string

	StopReason StopReason
	Model      string
	Usage      Usage
}

// Text joins the response's text blocks.
func (response *Response) Text() string {
	return strings.Join(response.Content, "")
}
