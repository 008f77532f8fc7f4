// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notion

import (
	"net/http"
	"strconv"
	"time"
)

// retryAfter reads the Retry-After header of a rate-limited response.
// Notion sends integer seconds; the HTTP-date form is accepted as
// well. Returns zero when the header is absent, malformed, or already
// in the past.
func retryAfter(header http.Header, now time.Time) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if duration := when.Sub(now); duration > 0 {
			return duration
		}
	}
	return 0
}
