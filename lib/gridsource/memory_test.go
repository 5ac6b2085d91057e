// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gridsource

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/bureau-foundation/gridkit/lib/sorturl"
	"github.com/bureau-foundation/gridkit/lib/testutil"
)

func people() []Record {
	return []Record{
		{Key: "1", Fields: map[string]any{"name": "Ada Lovelace", "age": 36, "team": "engines"}},
		{Key: "2", Fields: map[string]any{"name": "Grace Hopper", "age": 85, "team": "compilers"}},
		{Key: "3", Fields: map[string]any{"name": "Alan Turing", "age": 41, "team": "engines"}},
		{Key: "4", Fields: map[string]any{"name": "Edsger Dijkstra", "age": 72, "team": "compilers"}},
		{Key: "5", Fields: map[string]any{"name": "Barbara Liskov", "age": 36, "team": "languages"}},
	}
}

func keys(page Page) []string {
	result := make([]string, 0, len(page.Records))
	for _, record := range page.Records {
		result = append(result, record.Key)
	}
	return result
}

func TestMemoryFetchPages(t *testing.T) {
	source := NewMemorySource(people(), MemoryOptions{})
	ctx := context.Background()

	first, err := source.Fetch(ctx, Request{Offset: 0, PageSize: 2})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if first.TotalCount != 5 || !slices.Equal(keys(first), []string{"1", "2"}) {
		t.Fatalf("first page = %v (total %d)", keys(first), first.TotalCount)
	}

	last, err := source.Fetch(ctx, Request{Offset: 4, PageSize: 2})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !slices.Equal(keys(last), []string{"5"}) {
		t.Fatalf("last page = %v", keys(last))
	}

	past, err := source.Fetch(ctx, Request{Offset: 10, PageSize: 2})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(past.Records) != 0 || past.TotalCount != 5 {
		t.Fatalf("page past end = %v (total %d)", keys(past), past.TotalCount)
	}
}

func TestMemoryMultiSort(t *testing.T) {
	source := NewMemorySource(people(), MemoryOptions{})
	page, err := source.Fetch(context.Background(), Request{
		PageSize: 10,
		Sort: []sorturl.Descriptor{
			{FieldID: "team", Direction: sorturl.Ascending},
			{FieldID: "age", Direction: sorturl.Descending},
		},
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := []string{"2", "4", "3", "1", "5"}
	if !slices.Equal(keys(page), want) {
		t.Fatalf("sorted keys = %v, want %v", keys(page), want)
	}
}

func TestMemorySortTiesKeepInsertionOrder(t *testing.T) {
	source := NewMemorySource(people(), MemoryOptions{})
	page, err := source.Fetch(context.Background(), Request{
		Sort: []sorturl.Descriptor{{FieldID: "age", Direction: sorturl.Ascending}},
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := keys(page)[:2]; !slices.Equal(got, []string{"1", "5"}) {
		t.Fatalf("tied rows = %v, want insertion order [1 5]", got)
	}
}

func TestMemoryUnknownSortField(t *testing.T) {
	source := NewMemorySource(people(), MemoryOptions{})
	_, err := source.Fetch(context.Background(), Request{
		Sort: []sorturl.Descriptor{{FieldID: "salary", Direction: sorturl.Ascending}},
	})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("Fetch error = %v, want ErrUnknownField", err)
	}

	empty := NewMemorySource(nil, MemoryOptions{})
	if _, err := empty.Fetch(context.Background(), Request{
		Sort: []sorturl.Descriptor{{FieldID: "salary", Direction: sorturl.Ascending}},
	}); err != nil {
		t.Fatalf("empty source rejected sort: %v", err)
	}
}

func TestMemoryFuzzyFilter(t *testing.T) {
	source := NewMemorySource(people(), MemoryOptions{})
	page, err := source.Fetch(context.Background(), Request{Filter: "engines ada"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !slices.Equal(keys(page), []string{"1"}) {
		t.Fatalf("filtered keys = %v, want [1]", keys(page))
	}

	restricted := NewMemorySource(people(), MemoryOptions{SearchFields: []string{"name"}})
	page, err = restricted.Fetch(context.Background(), Request{Filter: "compilers"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if page.TotalCount != 0 {
		t.Fatalf("filter matched a field outside SearchFields: %v", keys(page))
	}
}

func TestMemoryCancelledContext(t *testing.T) {
	source := NewMemorySource(people(), MemoryOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := source.Fetch(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Fetch error = %v, want context.Canceled", err)
	}
}

func TestMemoryPutRemoveNotify(t *testing.T) {
	source := NewMemorySource(people(), MemoryOptions{})
	events := source.Subscribe(t.Context())

	source.Put(Record{Key: "2", Fields: map[string]any{"name": "Grace Brewster Hopper", "age": 85}})
	event := testutil.RequireReceive(t, events, 5*time.Second, "put event")
	if event.Kind != EventPut || event.Key != "2" {
		t.Fatalf("event = %+v", event)
	}
	if record, _ := source.Get("2"); record.Text("name") != "Grace Brewster Hopper" {
		t.Fatalf("Put did not replace record: %+v", record)
	}
	if source.Len() != 5 {
		t.Fatalf("Len after replace = %d", source.Len())
	}

	source.Remove("3")
	event = testutil.RequireReceive(t, events, 5*time.Second, "remove event")
	if event.Kind != EventRemove || event.Key != "3" {
		t.Fatalf("event = %+v", event)
	}
	page, _ := source.Fetch(context.Background(), Request{})
	if !slices.Equal(keys(page), []string{"1", "2", "4", "5"}) {
		t.Fatalf("keys after remove = %v", keys(page))
	}
	if _, ok := source.Get("5"); !ok {
		t.Fatal("positions not rebuilt after remove")
	}

	source.Remove("missing")
	source.Replace(people()[:1])
	event = testutil.RequireReceive(t, events, 5*time.Second, "reset event")
	if event.Kind != EventReset {
		t.Fatalf("event after Remove(missing) + Replace = %+v, want reset", event)
	}
	if source.Len() != 1 {
		t.Fatalf("Len after Replace = %d", source.Len())
	}
}

func TestMemoryFields(t *testing.T) {
	source := NewMemorySource(people(), MemoryOptions{})
	if got := source.Fields(); !slices.Equal(got, []string{"age", "name", "team"}) {
		t.Fatalf("Fields = %v", got)
	}
}

func TestMemorySubscriptionsEndWithContext(t *testing.T) {
	source := NewMemorySource(people(), MemoryOptions{})
	baseline := source.subscriberCount()

	cancels := make([]context.CancelFunc, 10)
	channels := make([]<-chan Event, len(cancels))
	for index := range cancels {
		var ctx context.Context
		ctx, cancels[index] = context.WithCancel(context.Background())
		channels[index] = source.Subscribe(ctx)
	}
	if got := source.subscriberCount(); got != baseline+len(cancels) {
		t.Fatalf("subscribers = %d, want %d", got, baseline+len(cancels))
	}

	for _, cancel := range cancels {
		cancel()
	}
	testutil.RequireEventually(t, func() bool {
		return source.subscriberCount() == baseline
	}, 5*time.Second, time.Millisecond, "subscribers never returned to baseline")
	for index, channel := range channels {
		testutil.RequireClosed(t, channel, 5*time.Second, "subscription %d", index)
	}

	// Notifying after every subscriber left must not touch closed channels.
	source.Put(Record{Key: "6", Fields: map[string]any{"name": "Frances Allen"}})
}
