// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O utilities shared by the Notion,
// Discord and LLM clients.
//
// The response helpers (ReadResponse, DecodeResponse, ErrorBody) bound
// every body read so that a misbehaving upstream cannot exhaust memory.
// They are for JSON API responses, not for streaming responses or large
// binary downloads, which should be read incrementally with io.Copy.
package netutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxResponseSize bounds JSON API response reads: 16 MiB. The largest
// legitimate response is a 100-page Notion database query, well under
// a megabyte.
const MaxResponseSize int64 = 16 << 20

// MaxErrorBodySize bounds the error body kept for diagnostics. Error
// bodies end up in log lines.
const MaxErrorBodySize int64 = 4 << 10

// ErrResponseTooLarge is returned when a body exceeds MaxResponseSize.
var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// ReadResponse reads a JSON API response body. Use instead of io.ReadAll
// when reading HTTP response bodies. A body longer than MaxResponseSize
// is an error rather than silently truncated.
func ReadResponse(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, ErrResponseTooLarge
	}
	return data, nil
}

// DecodeResponse reads a JSON API response body and JSON-decodes it
// into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an HTTP error response body and returns at most
// MaxErrorBodySize bytes of it as a string for diagnostic error
// messages. Read errors are ignored: a partial or empty body is still
// useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxErrorBodySize))
	return string(data)
}
