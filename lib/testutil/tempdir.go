// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to name inside a fresh t.TempDir() with
// mode 0600 and returns the full path. Use it for config files, key
// files and secret files that the code under test reads by path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// DatabasePath returns a path for a SQLite database inside a fresh
// t.TempDir(). The file does not exist yet; the directory is removed
// when the test completes.
func DatabasePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "notionbot.db")
}
