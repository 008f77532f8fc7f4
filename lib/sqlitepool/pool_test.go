// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/notionbot/lib/sqlitepool"
)

const testSchema = `CREATE TABLE IF NOT EXISTS counters (name TEXT PRIMARY KEY, value INTEGER NOT NULL);`

func TestOpen_AppliesPragmasAndSchema(t *testing.T) {
	pool := openTestPool(t)

	err := pool.Read(context.Background(), func(conn *sqlite.Conn) error {
		var journalMode string
		err := sqlitex.Execute(conn, "PRAGMA journal_mode", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				journalMode = stmt.ColumnText(0)
				return nil
			},
		})
		if err != nil {
			return err
		}
		if journalMode != "wal" {
			t.Errorf("journal_mode = %q, want %q", journalMode, "wal")
		}
		return sqlitex.Execute(conn, "SELECT count(*) FROM counters", nil)
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
}

func TestWrite_CommitsAndRollsBack(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()

	err := pool.Write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "INSERT INTO counters (name, value) VALUES ('a', 1)", nil)
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	failure := errors.New("abort")
	err = pool.Write(ctx, func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn, "UPDATE counters SET value = 99 WHERE name = 'a'", nil); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("Write error = %v, want %v", err, failure)
	}

	if got := readCounter(t, pool, "a"); got != 1 {
		t.Errorf("value after rollback = %d, want 1", got)
	}
}

func TestWrite_Concurrent(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()

	if err := pool.Write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "INSERT INTO counters (name, value) VALUES ('n', 0)", nil)
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	const writers = 8
	var waitGroup sync.WaitGroup
	failures := make(chan error, writers)
	for range writers {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			err := pool.Write(ctx, func(conn *sqlite.Conn) error {
				return sqlitex.Execute(conn, "UPDATE counters SET value = value + 1 WHERE name = 'n'", nil)
			})
			if err != nil {
				failures <- err
			}
		}()
	}
	waitGroup.Wait()
	close(failures)
	for err := range failures {
		t.Error(err)
	}

	if got := readCounter(t, pool, "n"); got != writers {
		t.Errorf("counter = %d, want %d", got, writers)
	}
}

func TestOpen_EmptyPathRejected(t *testing.T) {
	if _, err := sqlitepool.Open(sqlitepool.Config{}); err == nil {
		t.Fatal("expected error for empty Path")
	}
}

func TestTake_CancelledContext(t *testing.T) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     filepath.Join(t.TempDir(), "cancel.db"),
		PoolSize: 1,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pool.Close()

	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	defer pool.Put(conn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pool.Take(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func readCounter(t *testing.T, pool *sqlitepool.Pool, name string) int64 {
	t.Helper()
	var value int64
	found := false
	err := pool.Read(context.Background(), func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT value FROM counters WHERE name = ?", &sqlitex.ExecOptions{
			Args: []any{name},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				value = stmt.ColumnInt64(0)
				found = true
				return nil
			},
		})
	})
	if err != nil {
		t.Fatalf("reading counter %s: %v", name, err)
	}
	if !found {
		t.Fatalf("counter %s missing", name)
	}
	return value
}

func openTestPool(t *testing.T) *sqlitepool.Pool {
	t.Helper()
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   filepath.Join(t.TempDir(), "guilds.db"),
		Schema: testSchema,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return pool
}
