// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"testing"
	"time"
)

// RequireReceive reads one value from ch or fails the test after
// timeout. Use it wherever a test waits on a goroutine that should
// already have produced something, such as a deferred interaction
// edit reaching the fake Discord server.
//
//	edit := testutil.RequireReceive(t, edits, 5*time.Second, "follow-up edit")
func RequireReceive[T any](t testing.TB, ch <-chan T, timeout time.Duration, what string, args ...any) T {
	t.Helper()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while waiting for %s", fmt.Sprintf(what, args...))
		}
		return value
	case <-time.After(timeout): //nolint:realclock test hang prevention
		t.Fatalf("timed out after %v waiting for %s", timeout, fmt.Sprintf(what, args...))
	}
	panic("unreachable")
}

// RequireClosed waits for ch to close or fails the test after timeout.
func RequireClosed(t testing.TB, ch <-chan struct{}, timeout time.Duration, what string, args ...any) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout): //nolint:realclock test hang prevention
		t.Fatalf("timed out after %v waiting for %s", timeout, fmt.Sprintf(what, args...))
	}
}
