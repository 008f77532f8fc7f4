// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for notionbot packages.
//
// [WriteFile] and [DatabasePath] place config files, key files and
// SQLite databases in per-test temporary directories.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// used when a test waits on another goroutine. They are the only place
// in the test suite where real wall-clock timeouts are used; everything
// else runs on lib/clock.Fake.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no notionbot-internal dependencies.
package testutil
