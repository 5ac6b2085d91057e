// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package gridsource provides the paged data sources a grid fetches
// from. Every source answers the same question: given an offset, a
// page size, a sort and a filter, return that slice of records and
// the total number of records matching the filter.
//
// Implementations:
//
//   - [MemorySource]: records held in memory, filtered with fzf's
//     fuzzy matcher and sorted in process. [LoadJSONL] fills one from
//     a JSONL file; [WatchJSONL] also follows the file with inotify.
//   - [SQLiteSource]: a table in a SQLite database, queried with
//     LIMIT/OFFSET through a [sqlitepool.Pool].
//   - [SocketSource]: a client for [Serve], which exposes any Source
//     over a CBOR unix socket.
//
// Sources that change underneath the grid also implement
// [Subscriber]; the grid invalidates its loaded pages when an event
// arrives.
package gridsource
