// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package infinite

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/bureau-foundation/gridkit/lib/clock"
)

// DefaultPageSize is used when Options.PageSize is not positive.
const DefaultPageSize = 50

// Page is one fetched slice of rows together with the size of the
// whole result set.
type Page[T any] struct {
	Rows       []T
	TotalCount int
}

// FetchFunc loads pageSize rows starting at offset.
type FetchFunc[T any] func(ctx context.Context, offset, pageSize int) (Page[T], error)

// Request identifies one in-flight fetch.
type Request struct {
	// QueryID distinguishes queries when several share a message loop.
	QueryID uint64
	// Generation is the query generation the request was issued under.
	Generation uint64
	Offset     int
	PageSize   int
}

// State is a snapshot of a query's pagination state.
type State struct {
	FetchedCount int
	TotalCount   int

	// HasNextPage is FetchedCount < TotalCount once a page has loaded,
	// and true before that.
	HasNextPage bool
	IsFetching  bool

	// Loaded is true once the current generation received a page.
	Loaded bool

	// Err is the error of the most recent failed fetch in this
	// generation, cleared by the next successful one.
	Err error

	Generation uint64

	// Settled counts fetches that completed in any generation,
	// successfully or not.
	Settled uint64

	// FetchedAt is when the last page was applied.
	FetchedAt time.Time
}

// Options configures a Query.
type Options[T any] struct {
	Fetch    FetchFunc[T]
	PageSize int
	Key      any
	Clock    clock.Clock
	Logger   *slog.Logger
}

var nextQueryID atomic.Uint64

// Query holds the pages loaded for one key (sort and filter
// combination). It is safe for concurrent use; fetch results may be
// completed from any goroutine.
type Query[T any] struct {
	id       uint64
	pageSize int
	clock    clock.Clock
	logger   *slog.Logger

	mutex      sync.Mutex
	fetch      FetchFunc[T]
	keyHash    uint64
	pages      [][]T
	fetched    int
	total      int
	loaded     bool
	fetching   bool
	err        error
	generation uint64
	settled    uint64
	fetchedAt  time.Time
}

// NewQuery creates an empty query. Options.Key is hashed to detect
// no-op resets; an unhashable key is reported as an error.
func NewQuery[T any](opts Options[T]) (*Query[T], error) {
	if opts.Fetch == nil {
		return nil, fmt.Errorf("infinite: Fetch is required")
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	queryClock := opts.Clock
	if queryClock == nil {
		queryClock = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	keyHash, err := hashKey(opts.Key)
	if err != nil {
		return nil, err
	}
	return &Query[T]{
		id:       nextQueryID.Add(1),
		pageSize: pageSize,
		clock:    queryClock,
		logger:   logger,
		fetch:    opts.Fetch,
		keyHash:  keyHash,
	}, nil
}

// ID returns the query's process-unique identifier.
func (query *Query[T]) ID() uint64 {
	return query.id
}

// PageSize returns the number of rows requested per fetch.
func (query *Query[T]) PageSize() int {
	return query.pageSize
}

// Begin starts a fetch of the next page. It returns false, changing
// nothing, while a fetch is in flight or after the last page loaded.
func (query *Query[T]) Begin() (Request, bool) {
	query.mutex.Lock()
	defer query.mutex.Unlock()
	return query.beginLocked()
}

func (query *Query[T]) beginLocked() (Request, bool) {
	if query.fetching || (query.loaded && query.fetched >= query.total) {
		return Request{}, false
	}
	query.fetching = true
	return Request{
		QueryID:    query.id,
		Generation: query.generation,
		Offset:     query.fetched,
		PageSize:   query.pageSize,
	}, true
}

// Retry clears the last error and begins a fetch. It is Begin for
// callers that want the error cleared from State immediately.
func (query *Query[T]) Retry() (Request, bool) {
	query.mutex.Lock()
	defer query.mutex.Unlock()
	request, ok := query.beginLocked()
	if ok {
		query.err = nil
	}
	return request, ok
}

// Complete applies the result of request. Results from a previous
// generation are discarded and Complete returns false. Otherwise the
// fetching flag is cleared; on error the pages and HasNextPage are
// left unchanged and the error is recorded.
func (query *Query[T]) Complete(request Request, page Page[T], err error) bool {
	query.mutex.Lock()
	defer query.mutex.Unlock()

	if request.QueryID != query.id || request.Generation != query.generation {
		query.logger.Debug("discarding stale page",
			"request_generation", request.Generation,
			"generation", query.generation,
			"offset", request.Offset,
		)
		return false
	}

	query.fetching = false
	query.settled++
	if err != nil {
		query.err = err
		query.logger.Warn("page fetch failed",
			"offset", request.Offset,
			"page_size", request.PageSize,
			"error", err,
		)
		return true
	}

	query.err = nil
	query.loaded = true
	query.fetchedAt = query.clock.Now()
	if len(page.Rows) > 0 {
		query.pages = append(query.pages, page.Rows)
		query.fetched += len(page.Rows)
	}
	query.total = page.TotalCount
	if len(page.Rows) == 0 && query.total > query.fetched {
		// A short source would otherwise be asked for the same
		// offset forever.
		query.logger.Warn("source returned an empty page before its reported total",
			"offset", request.Offset,
			"total", page.TotalCount,
		)
		query.total = query.fetched
	}
	if query.total < query.fetched {
		query.total = query.fetched
	}
	return true
}

// FetchNextPage begins, runs and completes one fetch synchronously. It
// is a no-op returning nil while another fetch is in flight or when no
// pages remain. The returned error is the fetch error, also recorded
// in State.
func (query *Query[T]) FetchNextPage(ctx context.Context) error {
	request, ok := query.Begin()
	if !ok {
		return nil
	}
	page, err := query.Fetcher()(ctx, request.Offset, request.PageSize)
	query.Complete(request, page, err)
	return err
}

// Fetcher returns the fetch function for the current key.
func (query *Query[T]) Fetcher() FetchFunc[T] {
	query.mutex.Lock()
	defer query.mutex.Unlock()
	return query.fetch
}

// Reset switches the query to a new key. When the key hashes the same
// as the current one nothing happens and Reset returns false.
// Otherwise all pages are dropped, the generation advances (so any
// in-flight fetch is ignored when it completes), and fetch, when
// non-nil, replaces the fetch function.
func (query *Query[T]) Reset(key any, fetch FetchFunc[T]) (bool, error) {
	keyHash, err := hashKey(key)
	if err != nil {
		return false, err
	}

	query.mutex.Lock()
	defer query.mutex.Unlock()
	if keyHash == query.keyHash {
		return false, nil
	}
	query.keyHash = keyHash
	if fetch != nil {
		query.fetch = fetch
	}
	query.clearLocked()
	return true, nil
}

// Invalidate drops all pages and advances the generation without
// changing the key. Used when the underlying data changed.
func (query *Query[T]) Invalidate() {
	query.mutex.Lock()
	defer query.mutex.Unlock()
	query.clearLocked()
}

func (query *Query[T]) clearLocked() {
	query.generation++
	query.pages = nil
	query.fetched = 0
	query.total = 0
	query.loaded = false
	query.fetching = false
	query.err = nil
}

// State returns a snapshot of the pagination state.
func (query *Query[T]) State() State {
	query.mutex.Lock()
	defer query.mutex.Unlock()
	return State{
		FetchedCount: query.fetched,
		TotalCount:   query.total,
		HasNextPage:  !query.loaded || query.fetched < query.total,
		IsFetching:   query.fetching,
		Loaded:       query.loaded,
		Err:          query.err,
		Generation:   query.generation,
		Settled:      query.settled,
		FetchedAt:    query.fetchedAt,
	}
}

// Len returns the number of loaded rows.
func (query *Query[T]) Len() int {
	query.mutex.Lock()
	defer query.mutex.Unlock()
	return query.fetched
}

// Row returns the loaded row at index.
func (query *Query[T]) Row(index int) (T, bool) {
	query.mutex.Lock()
	defer query.mutex.Unlock()
	var zero T
	if index < 0 || index >= query.fetched {
		return zero, false
	}
	for _, page := range query.pages {
		if index < len(page) {
			return page[index], true
		}
		index -= len(page)
	}
	return zero, false
}

// Rows returns all loaded rows in order.
func (query *Query[T]) Rows() []T {
	query.mutex.Lock()
	defer query.mutex.Unlock()
	rows := make([]T, 0, query.fetched)
	for _, page := range query.pages {
		rows = append(rows, page...)
	}
	return rows
}

func hashKey(key any) (uint64, error) {
	if key == nil {
		return 0, nil
	}
	hash, err := hashstructure.Hash(key, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("infinite: hashing query key: %w", err)
	}
	return hash, nil
}
