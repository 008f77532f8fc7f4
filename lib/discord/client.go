// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bureau-foundation/notionbot/lib/clock"
	"github.com/bureau-foundation/notionbot/lib/netutil"
	"github.com/bureau-foundation/notionbot/lib/version"
)

// DefaultBaseURL is the versioned REST root.
const DefaultBaseURL = "https://discord.com/api/v10"

// maxRetryAfter caps how long a single request will wait on a 429.
const maxRetryAfter = 30 * time.Second

// Config configures a Client.
type Config struct {
	// BotToken authenticates bot requests. Required for the methods
	// that act as the bot (RegisterCommands, IsGuildMember).
	BotToken string

	// BaseURL defaults to DefaultBaseURL. Must use HTTPS.
	BaseURL string

	HTTPClient *http.Client
	Clock      clock.Clock
	Logger     *slog.Logger
}

// Client is a Discord REST client. Methods that act for a user take
// that user's OAuth access token; the rest use the bot token.
type Client struct {
	baseURL    string
	botToken   string
	httpClient *http.Client
	clock      clock.Clock
	logger     *slog.Logger
}

func NewClient(config Config) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("discord: API client requires HTTPS (got %q)", baseURL)
	}

	client := &Client{
		baseURL:    baseURL,
		botToken:   config.BotToken,
		httpClient: config.HTTPClient,
		clock:      config.Clock,
		logger:     config.Logger,
	}
	if client.httpClient == nil {
		client.httpClient = http.DefaultClient
	}
	if client.clock == nil {
		client.clock = clock.Real()
	}
	if client.logger == nil {
		client.logger = slog.Default()
	}
	return client, nil
}

// BaseURL returns the REST root the client talks to.
func (client *Client) BaseURL() string { return client.baseURL }

func (client *Client) botAuthorization() (string, error) {
	if client.botToken == "" {
		return "", errors.New("discord: bot token is not configured")
	}
	return "Bot " + client.botToken, nil
}

// request is one outgoing call. Body is either JSON-encoded (JSON) or
// form-encoded (Form); at most one is set.
type request struct {
	method        string
	path          string
	authorization string
	json          any
	form          url.Values
}

// do executes req and decodes a 2xx body into result (when non-nil).
// A 429 is retried once after Discord's requested delay.
func (client *Client) do(ctx context.Context, req request, result any) error {
	for attempt := 1; ; attempt++ {
		err := client.doOnce(ctx, req, result)
		var apiError *APIError
		if attempt > 1 || !errors.As(err, &apiError) || apiError.StatusCode != http.StatusTooManyRequests {
			return err
		}

		delay := min(max(apiError.RetryAfter, time.Second), maxRetryAfter)
		client.logger.Info("discord rate limited, backing off",
			"duration", delay,
			"method", req.method,
			"path", req.path,
		)
		select {
		case <-client.clock.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (client *Client) doOnce(ctx context.Context, req request, result any) error {
	var body io.Reader
	contentType := ""
	switch {
	case req.json != nil:
		encoded, err := json.Marshal(req.json)
		if err != nil {
			return fmt.Errorf("discord: encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	case req.form != nil:
		body = strings.NewReader(req.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	httpRequest, err := http.NewRequestWithContext(ctx, req.method, client.baseURL+req.path, body)
	if err != nil {
		return fmt.Errorf("discord: creating request: %w", err)
	}
	if req.authorization != "" {
		httpRequest.Header.Set("Authorization", req.authorization)
	}
	if contentType != "" {
		httpRequest.Header.Set("Content-Type", contentType)
	}
	httpRequest.Header.Set("Accept", "application/json")
	httpRequest.Header.Set("User-Agent", version.UserAgent())

	response, err := client.httpClient.Do(httpRequest)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("discord: %s %s: %w", req.method, req.path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return fmt.Errorf("discord: reading response body: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return parseAPIError(response.StatusCode, response.Header, responseBody)
	}
	if result == nil || len(responseBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(responseBody, result); err != nil {
		return fmt.Errorf("discord: decoding %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

// IsGuildMember reports whether userID (typically the bot's own
// application ID) is a member of guildID.
func (client *Client) IsGuildMember(ctx context.Context, guildID, userID string) (bool, error) {
	authorization, err := client.botAuthorization()
	if err != nil {
		return false, err
	}
	err = client.do(ctx, request{
		method:        http.MethodGet,
		path:          "/guilds/" + url.PathEscape(guildID) + "/members/" + url.PathEscape(userID),
		authorization: authorization,
	}, nil)
	// 403 Missing Access means the bot is not in the guild at all.
	var apiError *APIError
	if errors.As(err, &apiError) && (apiError.StatusCode == http.StatusNotFound || apiError.StatusCode == http.StatusForbidden) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
