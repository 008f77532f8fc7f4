// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notion

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Code classifies a failed Notion operation. Codes are stable strings
// suitable for JSON error bodies and log attributes.
type Code string

const (
	// CodeInvalidKey is a 401: the integration token is wrong or revoked.
	CodeInvalidKey Code = "invalid-key"

	// CodeNotFound is a 404. ResourceID names the database or page.
	CodeNotFound Code = "not-found"

	// CodeAccessDenied is a 403: the integration has not been shared
	// with the database.
	CodeAccessDenied Code = "access-denied"

	// CodeRateLimited is a 429. RetryAfter carries the server's hint
	// when one was sent.
	CodeRateLimited Code = "rate-limited"

	// CodeNetworkError is a connect, TLS, or read failure that never
	// produced an HTTP status.
	CodeNetworkError Code = "network-error"

	// CodeAPIError is the catch-all for any other non-2xx response.
	CodeAPIError Code = "api-error"

	// CodeValidation is a local input check that failed before any
	// request was sent.
	CodeValidation Code = "validation-error"
)

// Error is the failure type returned by every Client method.
type Error struct {
	// Code is the failure class.
	Code Code

	// Message is a human-readable description. For HTTP failures this
	// is Notion's own message when the body carried one.
	Message string

	// Details holds diagnostic context: the HTTP status, Notion's
	// error code, the raw body for unrecognized error shapes.
	Details map[string]any

	// Retryable reports whether repeating the same request may succeed.
	Retryable bool

	// StatusCode is the HTTP status, or zero for network and
	// validation failures.
	StatusCode int

	// RetryAfter is the server-requested wait before retrying. Zero
	// when the response carried no hint.
	RetryAfter time.Duration

	// ResourceID is the database or page ID the request addressed.
	ResourceID string

	// Err is the underlying transport error for CodeNetworkError.
	Err error
}

func (err *Error) Error() string {
	var builder strings.Builder
	builder.WriteString("notion: ")
	builder.WriteString(string(err.Code))
	if err.StatusCode != 0 {
		fmt.Fprintf(&builder, " (HTTP %d)", err.StatusCode)
	}
	if err.Message != "" {
		builder.WriteString(": ")
		builder.WriteString(err.Message)
	}
	if err.ResourceID != "" {
		fmt.Fprintf(&builder, " [%s]", err.ResourceID)
	}
	if err.Err != nil {
		fmt.Fprintf(&builder, ": %v", err.Err)
	}
	return builder.String()
}

func (err *Error) Unwrap() error { return err.Err }

// CodeOf returns the Code of the first *Error in err's chain, or the
// empty string.
func CodeOf(err error) Code {
	var notionError *Error
	if errors.As(err, &notionError) {
		return notionError.Code
	}
	return ""
}

// IsInvalidKey reports whether err is a rejected integration token.
func IsInvalidKey(err error) bool { return CodeOf(err) == CodeInvalidKey }

// IsNotFound reports whether err is a 404 for a database or page.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsAccessDenied reports whether err is a 403.
func IsAccessDenied(err error) bool { return CodeOf(err) == CodeAccessDenied }

// IsRateLimited reports whether err is a 429.
func IsRateLimited(err error) bool { return CodeOf(err) == CodeRateLimited }

// IsNetworkError reports whether err is a transport failure.
func IsNetworkError(err error) bool { return CodeOf(err) == CodeNetworkError }

// IsRetryable reports whether err is an *Error flagged retryable.
// Errors of any other type are not retryable.
func IsRetryable(err error) bool {
	var notionError *Error
	return errors.As(err, &notionError) && notionError.Retryable
}

// UserMessage converts err into text safe to show an end user, with
// guidance for the failures a misconfigured guild most often hits.
func UserMessage(err error) string {
	var notionError *Error
	if !errors.As(err, &notionError) {
		return "Something went wrong while talking to Notion."
	}
	switch notionError.Code {
	case CodeInvalidKey:
		return "The Notion API key is invalid. Check the integration token (it starts with ntn_ or secret_)."
	case CodeNotFound:
		return "The Notion database or page was not found. Check the database ID and that the integration is connected to it."
	case CodeAccessDenied:
		return "The integration has no access to this database. Add the integration to the database's connections."
	case CodeRateLimited:
		return "Notion is rate limiting requests. Try again in a moment."
	case CodeNetworkError:
		return "Could not reach Notion. Try again in a moment."
	case CodeValidation:
		return notionError.Message
	default:
		return fmt.Sprintf("Notion API error: %s", notionError.Message)
	}
}

// newValidationError builds a CodeValidation error.
func newValidationError(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// newNetworkError wraps a transport failure.
func newNetworkError(method, path string, err error) *Error {
	return &Error{
		Code:      CodeNetworkError,
		Message:   fmt.Sprintf("%s %s failed", method, path),
		Retryable: true,
		Err:       err,
	}
}

// parseErrorFromBody maps a non-2xx status and body to an *Error.
// Notion error bodies have the shape
// {"object":"error","status":404,"code":"object_not_found","message":"..."};
// bodies that do not parse are kept verbatim in Details.
func parseErrorFromBody(statusCode int, header http.Header, body []byte, resourceID string, now time.Time) *Error {
	notionError := &Error{
		StatusCode: statusCode,
		ResourceID: resourceID,
		Details:    map[string]any{"status": statusCode},
	}

	var wireError struct {
		Object  string `json:"object"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Object == "error" {
		notionError.Message = wireError.Message
		notionError.Details["notion_code"] = wireError.Code
	} else {
		notionError.Message = http.StatusText(statusCode)
		if len(body) > 0 {
			notionError.Details["body"] = string(body)
		}
	}

	switch {
	case statusCode == http.StatusUnauthorized:
		notionError.Code = CodeInvalidKey
	case statusCode == http.StatusForbidden:
		notionError.Code = CodeAccessDenied
	case statusCode == http.StatusNotFound:
		notionError.Code = CodeNotFound
	case statusCode == http.StatusTooManyRequests:
		notionError.Code = CodeRateLimited
		notionError.Retryable = true
		notionError.RetryAfter = retryAfter(header, now)
	case statusCode >= 500:
		notionError.Code = CodeAPIError
		notionError.Retryable = true
	default:
		notionError.Code = CodeAPIError
	}
	return notionError
}
