// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bureau-foundation/notionbot/lib/discord"
	"github.com/bureau-foundation/notionbot/lib/guildconfig"
	"github.com/bureau-foundation/notionbot/lib/httpmw"
	"github.com/bureau-foundation/notionbot/lib/llm"
	"github.com/bureau-foundation/notionbot/lib/notion"
	"github.com/bureau-foundation/notionbot/lib/taskbot"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// apiError is an error with a fixed HTTP status and a message that is
// safe to show to the caller.
type apiError struct {
	status  int
	code    string
	message string
	details any
}

func (err *apiError) Error() string {
	return fmt.Sprintf("%s (HTTP %d): %s", err.code, err.status, err.message)
}

func invalidRequest(format string, args ...any) *apiError {
	return &apiError{status: http.StatusBadRequest, code: "validation-error", message: fmt.Sprintf(format, args...)}
}

var (
	errUnauthenticated = &apiError{
		status:  http.StatusUnauthorized,
		code:    "unauthenticated",
		message: "Log in with Discord to continue.",
	}
	errDiscordSessionExpired = &apiError{
		status:  http.StatusUnauthorized,
		code:    "discord-session-expired",
		message: "Your Discord login has expired. Log in again.",
	}
	errForbiddenGuild = &apiError{
		status:  http.StatusForbidden,
		code:    "forbidden",
		message: "You need Manage Server in this server to change its settings.",
	}
	errNotConfigured = &apiError{
		status:  http.StatusBadRequest,
		code:    "notion-not-configured",
		message: "Notion is not configured for this server. Connect a database first.",
	}
	errBotNotInGuild = &apiError{
		status:  http.StatusBadRequest,
		code:    "bot-not-in-guild",
		message: "The bot has not been added to this server. Make sure \"Add bot\" was checked and try again.",
	}
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// classify maps err onto a status and a response body. Upstream
// failures are 502s; anything unrecognised is a 500 whose message
// says nothing about the cause.
func classify(err error) (int, errorBody) {
	var (
		api         *apiError
		notionError *notion.Error
		discordErr  *discord.APIError
		providerErr *llm.ProviderError
	)
	switch {
	case errors.As(err, &api):
		return api.status, errorBody{Code: api.code, Message: api.message, Details: api.details}
	case errors.As(err, &notionError):
		return notionStatus(notionError), errorBody{
			Code:    string(notionError.Code),
			Message: notion.UserMessage(err),
			Details: notionDetails(notionError),
		}
	case errors.Is(err, guildconfig.ErrNotFound):
		return http.StatusNotFound, errorBody{Code: "guild-not-found", Message: "This server has not been registered."}
	case errors.Is(err, taskbot.ErrNoAdvisor):
		return http.StatusServiceUnavailable, errorBody{Code: "advice-disabled", Message: "AI advice is not enabled."}
	case errors.As(err, &discordErr):
		return http.StatusBadGateway, errorBody{Code: "discord-error", Message: "Discord rejected the request. Try again later."}
	case errors.As(err, &providerErr):
		return http.StatusBadGateway, errorBody{Code: "llm-error", Message: "The advice provider failed. Try again later."}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorBody{Code: "timeout", Message: "The request timed out."}
	default:
		return http.StatusInternalServerError, errorBody{Code: "internal", Message: "Internal server error."}
	}
}

func notionStatus(err *notion.Error) int {
	switch err.Code {
	case notion.CodeInvalidKey, notion.CodeValidation:
		return http.StatusBadRequest
	case notion.CodeAccessDenied:
		return http.StatusForbidden
	case notion.CodeNotFound:
		return http.StatusNotFound
	case notion.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

func notionDetails(err *notion.Error) map[string]any {
	details := map[string]any{}
	if err.StatusCode != 0 {
		details["statusCode"] = err.StatusCode
	}
	if err.ResourceID != "" {
		details["resourceId"] = err.ResourceID
	}
	if err.RetryAfter > 0 {
		details["retryAfter"] = int(err.RetryAfter.Seconds())
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// writeError logs err with its operation tag and writes the JSON error
// envelope.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, body := classify(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		"operation", operation,
		"request_id", httpmw.RequestIDFromContext(r.Context()),
		"status", status,
		"error", err,
	)
	writeJSON(w, status, map[string]any{"error": body})
}

// writeData writes the success envelope {"success": true, "data": ...}.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return invalidRequest("The request body is empty.")
		}
		return invalidRequest("The request body is not valid JSON.")
	}
	return nil
}
