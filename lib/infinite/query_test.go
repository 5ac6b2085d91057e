// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package infinite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/gridkit/lib/clock"
)

// numberSource serves the integers [0, total) in pages.
type numberSource struct {
	total int
	calls int
	err   error
}

func (source *numberSource) fetch(_ context.Context, offset, pageSize int) (Page[int], error) {
	source.calls++
	if source.err != nil {
		return Page[int]{}, source.err
	}
	end := min(offset+pageSize, source.total)
	rows := make([]int, 0, max(0, end-offset))
	for value := offset; value < end; value++ {
		rows = append(rows, value)
	}
	return Page[int]{Rows: rows, TotalCount: source.total}, nil
}

func newTestQuery(t *testing.T, source *numberSource, pageSize int) *Query[int] {
	t.Helper()
	query, err := NewQuery(Options[int]{
		Fetch:    source.fetch,
		PageSize: pageSize,
		Clock:    clock.Fake(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	return query
}

func TestNewQueryRequiresFetch(t *testing.T) {
	if _, err := NewQuery(Options[int]{}); err == nil {
		t.Fatal("NewQuery without Fetch succeeded")
	}
}

func TestInitialState(t *testing.T) {
	query := newTestQuery(t, &numberSource{total: 10}, 0)
	state := query.State()
	if !state.HasNextPage || state.IsFetching || state.Loaded || state.FetchedCount != 0 {
		t.Fatalf("initial state = %+v", state)
	}
	if query.PageSize() != DefaultPageSize {
		t.Fatalf("PageSize() = %d, want %d", query.PageSize(), DefaultPageSize)
	}
}

func TestFetchNextPageAccumulates(t *testing.T) {
	source := &numberSource{total: 25}
	query := newTestQuery(t, source, 10)
	ctx := context.Background()

	wantFetched := []int{10, 20, 25}
	for step, want := range wantFetched {
		if err := query.FetchNextPage(ctx); err != nil {
			t.Fatalf("step %d: FetchNextPage: %v", step, err)
		}
		state := query.State()
		if state.FetchedCount != want {
			t.Fatalf("step %d: FetchedCount = %d, want %d", step, state.FetchedCount, want)
		}
		if state.HasNextPage != (state.FetchedCount < state.TotalCount) {
			t.Fatalf("step %d: HasNextPage = %v with %d/%d", step, state.HasNextPage, state.FetchedCount, state.TotalCount)
		}
		if query.Len() != state.FetchedCount {
			t.Fatalf("step %d: Len() = %d, want %d", step, query.Len(), state.FetchedCount)
		}
	}

	// Exhausted: further calls do not reach the source.
	calls := source.calls
	if err := query.FetchNextPage(ctx); err != nil {
		t.Fatalf("FetchNextPage after exhaustion: %v", err)
	}
	if source.calls != calls {
		t.Fatal("exhausted query fetched again")
	}

	rows := query.Rows()
	for index, value := range rows {
		if value != index {
			t.Fatalf("Rows()[%d] = %d", index, value)
		}
	}
	if value, ok := query.Row(24); !ok || value != 24 {
		t.Fatalf("Row(24) = %d, %v", value, ok)
	}
	if _, ok := query.Row(25); ok {
		t.Fatal("Row(25) reported a row past the end")
	}
}

func TestFetchWhileFetchingIsNoOp(t *testing.T) {
	source := &numberSource{total: 100}
	query := newTestQuery(t, source, 10)

	request, ok := query.Begin()
	if !ok {
		t.Fatal("Begin on idle query failed")
	}
	before := query.State()
	if !before.IsFetching {
		t.Fatal("IsFetching not set by Begin")
	}

	if err := query.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("FetchNextPage: %v", err)
	}
	if _, again := query.Begin(); again {
		t.Fatal("second Begin succeeded while fetching")
	}
	if after := query.State(); after != before {
		t.Fatalf("state changed while fetching: %+v -> %+v", before, after)
	}
	if source.calls != 0 {
		t.Fatalf("source called %d times while a fetch was in flight", source.calls)
	}

	page, _ := source.fetch(context.Background(), request.Offset, request.PageSize)
	if !query.Complete(request, page, nil) {
		t.Fatal("Complete rejected the current request")
	}
	if state := query.State(); state.IsFetching || state.FetchedCount != 10 {
		t.Fatalf("state after Complete = %+v", state)
	}
}

func TestFailedFetchClearsFetching(t *testing.T) {
	failure := errors.New("connection reset")
	source := &numberSource{total: 30}
	query := newTestQuery(t, source, 10)
	ctx := context.Background()

	if err := query.FetchNextPage(ctx); err != nil {
		t.Fatalf("first page: %v", err)
	}
	source.err = failure
	if err := query.FetchNextPage(ctx); !errors.Is(err, failure) {
		t.Fatalf("FetchNextPage error = %v, want %v", err, failure)
	}

	state := query.State()
	if state.IsFetching {
		t.Fatal("IsFetching still set after failure")
	}
	if !state.HasNextPage || state.FetchedCount != 10 {
		t.Fatalf("failure changed pagination: %+v", state)
	}
	if !errors.Is(state.Err, failure) {
		t.Fatalf("State().Err = %v, want %v", state.Err, failure)
	}

	source.err = nil
	request, ok := query.Retry()
	if !ok {
		t.Fatal("Retry after failure did not begin a fetch")
	}
	if query.State().Err != nil {
		t.Fatal("Retry did not clear the error")
	}
	page, _ := source.fetch(ctx, request.Offset, request.PageSize)
	query.Complete(request, page, nil)
	if state := query.State(); state.FetchedCount != 20 || state.Err != nil {
		t.Fatalf("state after retry = %+v", state)
	}
}

func TestResetDiscardsStalePage(t *testing.T) {
	source := &numberSource{total: 40}
	query := newTestQuery(t, source, 10)

	stale, ok := query.Begin()
	if !ok {
		t.Fatal("Begin failed")
	}

	changed, err := query.Reset(map[string]string{"sort": "NAME_DESC"}, nil)
	if err != nil || !changed {
		t.Fatalf("Reset = %v, %v; want changed", changed, err)
	}
	if query.State().IsFetching {
		t.Fatal("Reset left IsFetching set")
	}

	fresh, ok := query.Begin()
	if !ok {
		t.Fatal("Begin after Reset failed")
	}
	if fresh.Generation == stale.Generation {
		t.Fatal("Reset did not advance the generation")
	}

	stalePage, _ := source.fetch(context.Background(), stale.Offset, stale.PageSize)
	if query.Complete(stale, stalePage, nil) {
		t.Fatal("stale page was applied")
	}
	if state := query.State(); state.FetchedCount != 0 || !state.IsFetching {
		t.Fatalf("stale page changed state: %+v", state)
	}

	freshPage, _ := source.fetch(context.Background(), fresh.Offset, fresh.PageSize)
	if !query.Complete(fresh, freshPage, nil) {
		t.Fatal("fresh page rejected")
	}
	if query.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", query.Len())
	}
}

func TestResetSameKeyIsNoOp(t *testing.T) {
	source := &numberSource{total: 40}
	query, err := NewQuery(Options[int]{
		Fetch:    source.fetch,
		PageSize: 10,
		Key:      []string{"NAME_ASC"},
	})
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	if err := query.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("FetchNextPage: %v", err)
	}
	changed, err := query.Reset([]string{"NAME_ASC"}, nil)
	if err != nil || changed {
		t.Fatalf("Reset(same key) = %v, %v; want unchanged", changed, err)
	}
	if query.Len() != 10 {
		t.Fatal("no-op Reset dropped rows")
	}
}

func TestResetReplacesFetch(t *testing.T) {
	query := newTestQuery(t, &numberSource{total: 5}, 10)
	replacement := &numberSource{total: 3}
	if _, err := query.Reset("filtered", replacement.fetch); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := query.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("FetchNextPage: %v", err)
	}
	if replacement.calls != 1 || query.State().TotalCount != 3 {
		t.Fatalf("replacement fetch not used: calls %d, state %+v", replacement.calls, query.State())
	}
}

func TestInvalidateKeepsKey(t *testing.T) {
	query := newTestQuery(t, &numberSource{total: 30}, 10)
	if err := query.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("FetchNextPage: %v", err)
	}
	generation := query.State().Generation
	query.Invalidate()
	state := query.State()
	if state.Generation == generation || state.FetchedCount != 0 || state.Loaded {
		t.Fatalf("Invalidate state = %+v", state)
	}
}

func TestEmptyPageEndsPagination(t *testing.T) {
	short := func(_ context.Context, offset, pageSize int) (Page[int], error) {
		if offset >= 4 {
			return Page[int]{TotalCount: 10}, nil
		}
		return Page[int]{Rows: []int{0, 1, 2, 3}, TotalCount: 10}, nil
	}
	query, err := NewQuery(Options[int]{Fetch: short, PageSize: 4})
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	ctx := context.Background()
	_ = query.FetchNextPage(ctx)
	_ = query.FetchNextPage(ctx)
	state := query.State()
	if state.HasNextPage || state.TotalCount != 4 {
		t.Fatalf("state after empty page = %+v, want exhausted at 4", state)
	}
}

func TestFetchedAtUsesClock(t *testing.T) {
	fake := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	source := &numberSource{total: 3}
	query, err := NewQuery(Options[int]{Fetch: source.fetch, Clock: fake})
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	fake.Advance(time.Minute)
	if err := query.FetchNextPage(context.Background()); err != nil {
		t.Fatalf("FetchNextPage: %v", err)
	}
	if got, want := query.State().FetchedAt, fake.Now(); !got.Equal(want) {
		t.Fatalf("FetchedAt = %v, want %v", got, want)
	}
}

func TestFetchCmdProducesPageMsg(t *testing.T) {
	source := &numberSource{total: 12}
	query := newTestQuery(t, source, 5)
	request, ok := query.Begin()
	if !ok {
		t.Fatal("Begin failed")
	}
	message := FetchCmd(context.Background(), query, request)()
	pageMessage, ok := message.(PageMsg[int])
	if !ok {
		t.Fatalf("FetchCmd produced %T, want PageMsg[int]", message)
	}
	if pageMessage.Request != request || len(pageMessage.Page.Rows) != 5 {
		t.Fatalf("PageMsg = %+v", pageMessage)
	}
	if !query.Complete(pageMessage.Request, pageMessage.Page, pageMessage.Err) {
		t.Fatal("Complete rejected FetchCmd result")
	}
}
