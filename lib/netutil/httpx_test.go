// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"strings"
	"testing"
)

type brokenBody struct{}

func (brokenBody) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

type zeros struct{}

func (zeros) Read(buffer []byte) (int, error) {
	clear(buffer)
	return len(buffer), nil
}

func TestReadResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    io.Reader
		wantLen int64
		wantErr error
	}{
		{"query page", strings.NewReader(`{"object":"list","results":[]}`), 30, nil},
		{"empty", strings.NewReader(""), 0, nil},
		{"at limit", io.LimitReader(zeros{}, MaxResponseSize), MaxResponseSize, nil},
		{"over limit", io.LimitReader(zeros{}, MaxResponseSize+1), 0, ErrResponseTooLarge},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, err := ReadResponse(test.body)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("err = %v, want %v", err, test.wantErr)
			}
			if int64(len(data)) != test.wantLen {
				t.Errorf("read %d bytes, want %d", len(data), test.wantLen)
			}
		})
	}

	if _, err := ReadResponse(brokenBody{}); err == nil {
		t.Error("read error was swallowed")
	}
}

func TestDecodeResponse(t *testing.T) {
	var database struct {
		Object string `json:"object"`
		ID     string `json:"id"`
	}
	err := DecodeResponse(strings.NewReader(`{"object":"database","id":"598337872cf94fdf8782e53db20768a5"}`), &database)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if database.Object != "database" || database.ID != "598337872cf94fdf8782e53db20768a5" {
		t.Errorf("decoded %+v", database)
	}

	if err := DecodeResponse(strings.NewReader("<html>bad gateway</html>"), &database); err == nil {
		t.Error("accepted a non-JSON body")
	}
	if err := DecodeResponse(brokenBody{}, &database); err == nil {
		t.Error("read error was swallowed")
	}
}

func TestErrorBody(t *testing.T) {
	const notionError = `{"object":"error","status":401,"code":"unauthorized"}`
	if got := ErrorBody(strings.NewReader(notionError)); got != notionError {
		t.Errorf("ErrorBody = %q", got)
	}
	if got := ErrorBody(strings.NewReader(strings.Repeat("x", int(MaxErrorBodySize)+100))); int64(len(got)) != MaxErrorBodySize {
		t.Errorf("kept %d bytes, want %d", len(got), MaxErrorBodySize)
	}
	if got := ErrorBody(brokenBody{}); got != "" {
		t.Errorf("ErrorBody on a broken body = %q", got)
	}
}
