// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool wraps zombiezen.com/go/sqlite with the pragmas and
// transaction helpers the guild configuration store relies on.
//
// Every connection runs in WAL mode with synchronous=NORMAL and a five
// second busy timeout, then applies the caller's idempotent schema.
// [Pool.Write] wraps a callback in an immediate transaction so two
// dashboards saving the same guild serialize on the write lock instead
// of failing with SQLITE_BUSY mid-transaction. [Pool.Read] is the
// non-transactional counterpart.
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   "/var/lib/notionbot/guilds.db",
//	    Schema: schema,
//	    Logger: logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
// Callers write SQL directly with sqlitex.Execute; there is no query
// builder.
package sqlitepool
