// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// DefaultOpenAIBaseURL is the public OpenAI API root.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// Config configures a Provider's endpoint and credentials.
type Config struct {
	// BaseURL is the API root, without the endpoint path. Defaults to
	// the vendor's public API.
	BaseURL string

	// APIKey authenticates requests. Required by the public APIs;
	// local OpenAI-compatible servers may accept an empty key.
	APIKey string

	// HTTPClient is used for all requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
}

func (config Config) resolve(defaultBaseURL string) (string, *http.Client) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return strings.TrimRight(baseURL, "/"), httpClient
}

// OpenAI implements [Provider] for the OpenAI Chat Completions API.
// It is compatible with any server implementing the same wire format.
type OpenAI struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewOpenAI creates an OpenAI-compatible provider.
func NewOpenAI(config Config) *OpenAI {
	baseURL, httpClient := config.resolve(DefaultOpenAIBaseURL)
	return &OpenAI{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     config.APIKey,
	}
}

// Complete sends a request and returns the full response.
func (provider *OpenAI) Complete(ctx context.Context, request Request) (*Response, error) {
	if len(request.Messages) == 0 {
		return nil, ErrNoMessages
	}

	headers := http.Header{}
	if provider.apiKey != "" {
		headers.Set("Authorization", "Bearer "+provider.apiKey)
	}

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.baseURL+"/chat/completions", provider.buildRequest(request), "llm/openai", headers)
	if err != nil {
		return nil, err
	}

	return decodeResponse[openaiResponse](httpResponse, "llm/openai")
}

// buildRequest converts our types to the OpenAI wire format. The
// system prompt becomes the first message with role "system".
func (provider *OpenAI) buildRequest(request Request) openaiRequest {
	wireRequest := openaiRequest{
		Model:       request.Model,
		MaxTokens:   request.MaxTokens,
		Temperature: request.Temperature,
	}

	if request.System != "" {
		wireRequest.Messages = append(wireRequest.Messages, openaiMessage{
			Role:    "system",
			Content: request.System,
		})
	}
	for _, message := range request.Messages {
		wireRequest.Messages = append(wireRequest.Messages, openaiMessage{
			Role:    string(message.Role),
			Content: message.Content,
		})
	}
	return wireRequest
}

// --- OpenAI wire types ---
//
// Content is a plain string: this package sends and reads text only,
// never the multimodal content-part array form.

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Index        int             `json:"index"`
	Message      json.RawMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type openaiUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

func (wireResponse *openaiResponse) toResponse() *Response {
	response := &Response{
		Model: wireResponse.Model,
		Usage: Usage{
			InputTokens:  wireResponse.Usage.PromptTokens,
			OutputTokens: wireResponse.Usage.CompletionTokens,
		},
	}

	if len(wireResponse.Choices) == 0 {
		return response
	}

	choice := wireResponse.Choices[0]
	response.StopReason = mapOpenAIFinishReason(choice.FinishReason)

	// A refusal or tool-call-only message has null content; decode
	// leniently so that reads as an empty answer.
	var message struct {
		Content *string `json:"content"`
	}
	if json.Unmarshal(choice.Message, &message) == nil && message.Content != nil && *message.Content != "" {
		response.Content = append(response.Content, *message.Content)
	}

	return response
}

func mapOpenAIFinishReason(reason string) StopReason {
	switch reason {
	case "stop":
		return StopReasonEndTurn
	case "length":
		return StopReasonMaxTokens
	default:
		// Preserve unknown reasons (e.g., "content_filter") as-is
		// rather than silently mapping to a default.
		return StopReason(reason)
	}
}
