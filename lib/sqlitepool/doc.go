// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the SQLite connection pool behind
// gridkit's SQLite grid source.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool. Callers [Pool.Take]
// a connection, run their statements, and [Pool.Put] it back.
// Connections are not safe for concurrent use; each goroutine holds
// its own for the duration of its work.
//
// A grid usually browses a database some other program owns, so
// [Config.ReadOnly] opens every connection read-only and applies only
// the pragmas that do not write to the file:
//
//   - busy_timeout=5000: wait for a writer's lock instead of failing
//     with SQLITE_BUSY.
//   - cache_size=-8192: 8 MB page cache per connection.
//   - mmap_size=268435456: 256 MB memory-mapped reads.
//   - temp_store=MEMORY: ORDER BY sorts spill to memory, not disk.
//
// Read-write pools (tests, and demo databases the CLI creates) also
// set journal_mode=WAL and synchronous=NORMAL.
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:     "people.db",
//	    ReadOnly: true,
//	    Logger:   logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
package sqlitepool
