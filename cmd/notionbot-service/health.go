// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/bureau-foundation/notionbot/lib/version"
)

const healthCheckTimeout = 2 * time.Second

type healthReport struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Uptime      int64             `json:"uptime"`
	Environment string            `json:"environment"`
	Version     string            `json:"version"`
	Checks      map[string]string `json:"checks"`
}

// handleHealth answers 200 when the store responds and 503 otherwise.
// The LLM check is informational.
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := s.clock.Now()
	report := healthReport{
		Status:      "healthy",
		Timestamp:   now.UTC(),
		Uptime:      int64(now.Sub(s.started) / time.Second),
		Environment: s.environment,
		Version:     version.Info(),
		Checks: map[string]string{
			"database": "healthy",
			"discord":  "configured",
			"llm":      "not_configured",
		},
	}
	if s.advisor.Enabled() {
		report.Checks["llm"] = "configured"
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("health check failed", "check", "database", "error", err)
		report.Checks["database"] = "error"
		report.Status = "degraded"
	}

	status := http.StatusOK
	if report.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}
