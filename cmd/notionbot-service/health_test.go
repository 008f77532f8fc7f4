// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func TestHealth(t *testing.T) {
	fake := newFixture(t)
	fake.clock.Advance(90 * time.Second)

	recorder := fake.do(t, request{method: http.MethodGet, path: "/healthz"})
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	var report healthReport
	if err := json.Unmarshal(recorder.Body.Bytes(), &report); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if report.Status != "healthy" || report.Uptime != 90 || report.Environment != "development" {
		t.Errorf("report = %+v", report)
	}
	if report.Checks["database"] != "healthy" || report.Checks["llm"] != "configured" {
		t.Errorf("checks = %v", report.Checks)
	}
}

func TestHealth_WithoutAdvisor(t *testing.T) {
	fake := newFixture(t, withoutAdvisor)
	var report healthReport
	json.Unmarshal(fake.do(t, request{method: http.MethodGet, path: "/healthz"}).Body.Bytes(), &report)
	if report.Checks["llm"] != "not_configured" {
		t.Errorf("llm check = %q", report.Checks["llm"])
	}
}

func TestReady(t *testing.T) {
	fake := newFixture(t)
	recorder := fake.do(t, request{method: http.MethodGet, path: "/readyz"})
	if recorder.Code != http.StatusOK || recorder.Body.String() != "ok\n" {
		t.Errorf("readyz = %d %q", recorder.Code, recorder.Body.String())
	}
}
