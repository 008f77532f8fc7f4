// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx response from the Discord API.
type APIError struct {
	StatusCode int

	// Code is Discord's numeric JSON error code, when present.
	Code int

	Message string

	// OAuthError is the "error" field of an OAuth2 token response
	// (for example "invalid_grant").
	OAuthError string

	// RetryAfter is set on 429 responses.
	RetryAfter time.Duration
}

func (err *APIError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "discord: HTTP %d", err.StatusCode)
	if err.OAuthError != "" {
		fmt.Fprintf(&builder, ": %s", err.OAuthError)
	}
	if err.Message != "" {
		fmt.Fprintf(&builder, ": %s", err.Message)
	}
	if err.Code != 0 {
		fmt.Fprintf(&builder, " (code %d)", err.Code)
	}
	return builder.String()
}

// IsUnauthorized reports a 401, an expired or revoked token.
func IsUnauthorized(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusUnauthorized
}

func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusNotFound
}

func IsRateLimited(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusTooManyRequests
}

// IsInvalidGrant reports an OAuth code that is expired, reused or was
// issued for a different redirect URI.
func IsInvalidGrant(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.OAuthError == "invalid_grant"
}

func parseAPIError(statusCode int, header http.Header, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var parsed struct {
		Code             int     `json:"code"`
		Message          string  `json:"message"`
		RetryAfter       float64 `json:"retry_after"`
		Error            string  `json:"error"`
		ErrorDescription string  `json:"error_description"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		apiError.Code = parsed.Code
		apiError.Message = parsed.Message
		apiError.OAuthError = parsed.Error
		if apiError.Message == "" {
			apiError.Message = parsed.ErrorDescription
		}
		if parsed.RetryAfter > 0 {
			apiError.RetryAfter = time.Duration(parsed.RetryAfter * float64(time.Second))
		}
	} else {
		apiError.Message = strings.TrimSpace(string(body))
	}
	if apiError.Message == "" {
		apiError.Message = http.StatusText(statusCode)
	}

	if statusCode == http.StatusTooManyRequests && apiError.RetryAfter == 0 {
		apiError.RetryAfter = retryAfterHeader(header)
	}
	return apiError
}

// retryAfterHeader reads X-RateLimit-Reset-After (fractional seconds)
// or Retry-After (whole seconds).
func retryAfterHeader(header http.Header) time.Duration {
	for _, name := range []string{"X-RateLimit-Reset-After", "Retry-After"} {
		value := header.Get(name)
		if value == "" {
			continue
		}
		seconds, err := strconv.ParseFloat(value, 64)
		if err == nil && seconds > 0 {
			return time.Duration(seconds * float64(time.Second))
		}
	}
	return 0
}
