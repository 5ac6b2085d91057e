// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gridsource

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/gridkit/lib/sorturl"
	"github.com/bureau-foundation/gridkit/lib/tui"
)

// MemorySource serves records held in memory. Filtering is fuzzy
// (every space-separated filter term must match) over the search
// fields; sorting follows the request's descriptors and falls back to
// match score, then insertion order.
//
// MemorySource is safe for concurrent use. Put and Remove notify
// subscribers.
type MemorySource struct {
	mutex       sync.RWMutex
	records     []Record
	positions   map[string]int
	fields      map[string]bool
	search      []string
	subscribers []chan Event

	slabs sync.Pool
}

// MemoryOptions configures a MemorySource.
type MemoryOptions struct {
	// SearchFields limits filtering to these fields. Empty means
	// every field plus the detail text.
	SearchFields []string
}

// NewMemorySource creates a source holding records. A later record
// with the same key replaces an earlier one in place.
func NewMemorySource(records []Record, opts MemoryOptions) *MemorySource {
	source := &MemorySource{
		positions: make(map[string]int, len(records)),
		fields:    make(map[string]bool),
		search:    slices.Clone(opts.SearchFields),
	}
	source.slabs.New = func() any { return tui.NewSlab() }
	for _, record := range records {
		source.putLocked(record)
	}
	return source
}

// Len returns the number of records.
func (source *MemorySource) Len() int {
	source.mutex.RLock()
	defer source.mutex.RUnlock()
	return len(source.records)
}

// Get returns the record stored under key.
func (source *MemorySource) Get(key string) (Record, bool) {
	source.mutex.RLock()
	defer source.mutex.RUnlock()
	position, ok := source.positions[key]
	if !ok {
		return Record{}, false
	}
	return source.records[position], true
}

// Fields returns every field id seen in any record, sorted.
func (source *MemorySource) Fields() []string {
	source.mutex.RLock()
	defer source.mutex.RUnlock()
	fields := make([]string, 0, len(source.fields))
	for field := range source.fields {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	return fields
}

type scoredRecord struct {
	record   Record
	score    int
	position int
}

// Fetch returns one page of the filtered, sorted records. Sorting a
// non-empty source by a field no record has is an error wrapping
// [ErrUnknownField].
func (source *MemorySource) Fetch(ctx context.Context, request Request) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	source.mutex.RLock()
	for _, descriptor := range request.Sort {
		if len(source.records) > 0 && !source.fields[descriptor.FieldID] {
			source.mutex.RUnlock()
			return Page{}, fmtUnknownField(descriptor.FieldID)
		}
	}
	matches := source.filterLocked(strings.TrimSpace(request.Filter))
	source.mutex.RUnlock()

	filtered := request.Filter != ""
	slices.SortStableFunc(matches, func(left, right scoredRecord) int {
		for _, descriptor := range request.Sort {
			order := CompareValues(left.record.Fields[descriptor.FieldID], right.record.Fields[descriptor.FieldID])
			if descriptor.Direction == sorturl.Descending {
				order = -order
			}
			if order != 0 {
				return order
			}
		}
		if filtered {
			if order := cmp.Compare(right.score, left.score); order != 0 {
				return order
			}
		}
		return cmp.Compare(left.position, right.position)
	})

	page := Page{TotalCount: len(matches)}
	start := min(max(request.Offset, 0), len(matches))
	end := len(matches)
	if request.PageSize > 0 {
		end = min(start+request.PageSize, len(matches))
	}
	page.Records = make([]Record, 0, end-start)
	for _, match := range matches[start:end] {
		page.Records = append(page.Records, match.record)
	}
	return page, nil
}

func (source *MemorySource) filterLocked(filter string) []scoredRecord {
	matches := make([]scoredRecord, 0, len(source.records))
	if filter == "" {
		for position, record := range source.records {
			matches = append(matches, scoredRecord{record: record, position: position})
		}
		return matches
	}

	slab := source.slabs.Get().(*util.Slab)
	defer source.slabs.Put(slab)
	for position, record := range source.records {
		result := tui.FuzzyMatchAll(source.searchText(record), filter, slab)
		if result.Score == 0 {
			continue
		}
		matches = append(matches, scoredRecord{record: record, score: result.Score, position: position})
	}
	return matches
}

// searchText joins the searchable values with a separator fzf's
// scoring treats as a word boundary.
func (source *MemorySource) searchText(record Record) string {
	var builder strings.Builder
	appendValue := func(value string) {
		if value == "" {
			return
		}
		if builder.Len() > 0 {
			builder.WriteString("  ")
		}
		builder.WriteString(value)
	}
	if len(source.search) > 0 {
		for _, field := range source.search {
			appendValue(record.Text(field))
		}
		return builder.String()
	}
	fields := make([]string, 0, len(record.Fields))
	for field := range record.Fields {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	for _, field := range fields {
		appendValue(record.Text(field))
	}
	appendValue(record.Detail)
	return builder.String()
}

// Subscribe returns a channel receiving an Event for every Put, Remove
// and Replace. When ctx is done the subscription is dropped and the
// channel closed.
func (source *MemorySource) Subscribe(ctx context.Context) <-chan Event {
	channel := make(chan Event, 64)
	source.mutex.Lock()
	source.subscribers = append(source.subscribers, channel)
	source.mutex.Unlock()

	context.AfterFunc(ctx, func() {
		source.mutex.Lock()
		defer source.mutex.Unlock()
		source.subscribers = slices.DeleteFunc(source.subscribers, func(subscriber chan Event) bool {
			return subscriber == channel
		})
		close(channel)
	})
	return channel
}

func (source *MemorySource) subscriberCount() int {
	source.mutex.RLock()
	defer source.mutex.RUnlock()
	return len(source.subscribers)
}

// Put adds or replaces a record.
func (source *MemorySource) Put(record Record) {
	source.mutex.Lock()
	defer source.mutex.Unlock()
	source.putLocked(record)
	source.notifyLocked(Event{Kind: EventPut, Key: record.Key})
}

func (source *MemorySource) putLocked(record Record) {
	fields := make(map[string]any, len(record.Fields))
	for field, value := range record.Fields {
		fields[field] = normalizeValue(value)
		source.fields[field] = true
	}
	record.Fields = fields

	if position, exists := source.positions[record.Key]; exists {
		source.records[position] = record
		return
	}
	source.positions[record.Key] = len(source.records)
	source.records = append(source.records, record)
}

// Remove deletes the record stored under key, if any.
func (source *MemorySource) Remove(key string) {
	source.mutex.Lock()
	position, exists := source.positions[key]
	if !exists {
		source.mutex.Unlock()
		return
	}
	source.records = slices.Delete(source.records, position, position+1)
	delete(source.positions, key)
	for index := position; index < len(source.records); index++ {
		source.positions[source.records[index].Key] = index
	}
	source.notifyLocked(Event{Kind: EventRemove, Key: key})
	source.mutex.Unlock()
}

// Replace swaps in a new record set and sends one reset event.
func (source *MemorySource) Replace(records []Record) {
	source.mutex.Lock()
	source.records = nil
	source.positions = make(map[string]int, len(records))
	source.fields = make(map[string]bool)
	for _, record := range records {
		source.putLocked(record)
	}
	source.notifyLocked(Event{Kind: EventReset})
	source.mutex.Unlock()
}

// notifyLocked sends event to every subscriber without blocking. The
// lock keeps a subscription from being closed mid-send.
func (source *MemorySource) notifyLocked(event Event) {
	for _, subscriber := range source.subscribers {
		select {
		case subscriber <- event:
		default:
		}
	}
}
