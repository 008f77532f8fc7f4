// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"net/http"
)

// DefaultAnthropicBaseURL is the public Anthropic API root.
const DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"

// anthropicVersion is the anthropic-version header value.
const anthropicVersion = "2023-06-01"

// defaultAnthropicMaxTokens is used when the request leaves MaxTokens
// zero, since the Messages API requires it.
const defaultAnthropicMaxTokens = 1024

// Anthropic implements [Provider] for the Anthropic Messages API.
type Anthropic struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewAnthropic creates an Anthropic provider.
func NewAnthropic(config Config) *Anthropic {
	baseURL, httpClient := config.resolve(DefaultAnthropicBaseURL)
	return &Anthropic{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     config.APIKey,
	}
}

// Complete sends a request and returns the full response.
func (provider *Anthropic) Complete(ctx context.Context, request Request) (*Response, error) {
	if len(request.Messages) == 0 {
		return nil, ErrNoMessages
	}

	headers := http.Header{}
	headers.Set("x-api-key", provider.apiKey)
	headers.Set("anthropic-version", anthropicVersion)

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.baseURL+"/messages", provider.buildRequest(request), "llm/anthropic", headers)
	if err != nil {
		return nil, err
	}

	return decodeResponse[anthropicResponse](httpResponse, "llm/anthropic")
}

// buildRequest converts our types to Anthropic wire format.
func (provider *Anthropic) buildRequest(request Request) anthropicRequest {
	wireRequest := anthropicRequest{
		Model:       request.Model,
		MaxTokens:   request.MaxTokens,
		System:      request.System,
		Temperature: request.Temperature,
	}
	if wireRequest.MaxTokens == 0 {
		wireRequest.MaxTokens = defaultAnthropicMaxTokens
	}

	for _, message := range request.Messages {
		wireRequest.Messages = append(wireRequest.Messages, anthropicMessage{
			Role: string(message.Role),
			Content: []anthropicContentBlock{
				{Type: "text", Text: message.Content},
			},
		})
	}
	return wireRequest
}

// --- Anthropic wire types ---

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
}

type anthropicUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

func (wireResponse *anthropicResponse) toResponse() *Response {
	response := &Response{
		StopReason: mapAnthropicStopReason(wireResponse.StopReason),
		Model:      wireResponse.Model,
		Usage: Usage{
			InputTokens:  wireResponse.Usage.InputTokens,
			OutputTokens: wireResponse.Usage.OutputTokens,
		},
	}
	// Non-text blocks (thinking, tool use) are not requested and are
	// dropped if a model emits them anyway.
	for _, wireBlock := range wireResponse.Content {
		if wireBlock.Type == "text" {
			response.Content = append(response.Content, wireBlock.Text)
		}
	}
	return response
}

func mapAnthropicStopReason(reason string) StopReason {
	switch reason {
	case "end_turn":
		return StopReasonEndTurn
	case "max_tokens":
		return StopReasonMaxTokens
	case "stop_sequence":
		return StopReasonStopSequence
	default:
		return StopReason(reason)
	}
}
