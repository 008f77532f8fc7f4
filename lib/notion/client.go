// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bureau-foundation/notionbot/lib/clock"
	"github.com/bureau-foundation/notionbot/lib/netutil"
)

// DefaultVersion is the Notion-Version header value. Pinning it keeps
// property JSON shapes stable as Notion evolves the API.
const DefaultVersion = "2022-06-28"

// DefaultBaseURL is the base URL for the public Notion API.
const DefaultBaseURL = "https://api.notion.com/v1"

// Config holds configuration for creating a Client.
type Config struct {
	// APIKey is the integration token. Required.
	APIKey string

	// DatabaseID is the task database. Required.
	DatabaseID string

	// BaseURL is the root URL for API requests. Defaults to
	// DefaultBaseURL. Must use HTTPS.
	BaseURL string

	// Version is sent as Notion-Version. Defaults to DefaultVersion.
	Version string

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Clock provides time for backoff sleeps. Defaults to clock.Real().
	Clock clock.Clock

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger

	// Retry bounds retries of failed requests. The zero value means
	// DefaultRetryPolicy().
	Retry RetryPolicy
}

// Client is a Notion API client bound to one token and one database.
type Client struct {
	apiKey     string
	databaseID string
	baseURL    string
	version    string
	httpClient *http.Client
	clock      clock.Clock
	logger     *slog.Logger
	retry      RetryPolicy
}

// NewClient creates a Client from the given configuration. Returns a
// CodeValidation *Error for missing credentials and a plain error for
// a non-HTTPS base URL.
func NewClient(config Config) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, newValidationError("API key is required")
	}
	if strings.TrimSpace(config.DatabaseID) == "" {
		return nil, newValidationError("database ID is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("notion: API client requires HTTPS (got %q)", baseURL)
	}

	version := config.Version
	if version == "" {
		version = DefaultVersion
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	retry := config.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryPolicy()
	}

	client := &Client{
		apiKey:     strings.TrimSpace(config.APIKey),
		databaseID: NormalizeID(config.DatabaseID),
		baseURL:    baseURL,
		version:    version,
		httpClient: httpClient,
		clock:      clk,
		logger:     logger,
		retry:      retry,
	}
	if client.retry.OnRetry == nil {
		client.retry.OnRetry = func(attempt int, delay time.Duration, err error) {
			client.logger.Info("retrying notion request",
				"attempt", attempt,
				"delay", delay,
				"error", err,
			)
		}
	}
	return client, nil
}

// DatabaseID returns the normalized database ID the client targets.
func (client *Client) DatabaseID() string { return client.databaseID }

// NormalizeID accepts a bare 32-character ID, a dashed UUID, or a
// Notion URL whose last path segment ends in the ID, and returns the
// ID as given by the user minus any URL wrapping. IDs that do not
// look like any of these are returned trimmed and unchanged.
func NormalizeID(value string) string {
	value = strings.TrimSpace(value)
	if !strings.Contains(value, "/") {
		return value
	}
	value, _, _ = strings.Cut(value, "?")
	segment := value[strings.LastIndex(value, "/")+1:]
	if len(segment) >= 32 {
		tail := segment[len(segment)-32:]
		if isHex(tail) {
			return tail
		}
	}
	return segment
}

func isHex(value string) bool {
	for _, character := range value {
		switch {
		case character >= '0' && character <= '9':
		case character >= 'a' && character <= 'f':
		case character >= 'A' && character <= 'F':
		default:
			return false
		}
	}
	return true
}

// do executes an authenticated request with retries and decodes a 2xx
// JSON body into result (which may be nil). resourceID is attached to
// a not-found error for diagnostics.
func (client *Client) do(ctx context.Context, method, path, resourceID string, requestBody, result any) error {
	body, err := Retry(ctx, client.clock, client.retry, func(ctx context.Context) ([]byte, error) {
		return client.doOnce(ctx, method, path, resourceID, requestBody)
	})
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("notion: decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// doOnce performs a single HTTP exchange and classifies the outcome.
func (client *Client) doOnce(ctx context.Context, method, path, resourceID string, requestBody any) ([]byte, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("notion: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("notion: creating request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+client.apiKey)
	request.Header.Set("Notion-Version", client.version)
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newNetworkError(method, path, err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, newNetworkError(method, path, err)
	}

	client.logger.Debug("notion request",
		"method", method,
		"path", path,
		"status", response.StatusCode,
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, parseErrorFromBody(response.StatusCode, response.Header, body, resourceID, client.clock.Now())
	}
	return body, nil
}
