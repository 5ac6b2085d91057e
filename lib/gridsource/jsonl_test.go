// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gridsource

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/gridkit/lib/testutil"
)

const peopleJSONL = `{"id": "ada", "name": "Ada Lovelace", "age": 36, "bio": "Wrote the *first* program."}
{"id": "grace", "name": "Grace Hopper", "age": 85.5}

{"name": "Anonymous", "age": null}
`

func TestParseJSONL(t *testing.T) {
	entries, order, err := parseJSONL(strings.NewReader(peopleJSONL), JSONLOptions{DetailField: "bio"})
	if err != nil {
		t.Fatalf("parseJSONL: %v", err)
	}
	if len(order) != 3 || order[0] != "ada" || order[1] != "grace" {
		t.Fatalf("order = %v", order)
	}

	ada := entries["ada"].record
	if ada.Fields["age"] != int64(36) {
		t.Errorf("integer age decoded as %#v", ada.Fields["age"])
	}
	if ada.Detail != "Wrote the *first* program." {
		t.Errorf("Detail = %q", ada.Detail)
	}
	if _, ok := ada.Fields["bio"]; ok {
		t.Error("detail field left in Fields")
	}
	if grace := entries["grace"].record; grace.Fields["age"] != 85.5 {
		t.Errorf("float age decoded as %#v", grace.Fields["age"])
	}

	anonymous := entries[order[2]].record
	if anonymous.Key != RowKey([]byte(`{"name": "Anonymous", "age": null}`)) {
		t.Errorf("keyless record key = %q, want content hash", anonymous.Key)
	}
}

func TestParseJSONLCustomKey(t *testing.T) {
	entries, order, err := parseJSONL(strings.NewReader(`{"email": "a@example.com", "n": 1}`), JSONLOptions{KeyField: "email"})
	if err != nil {
		t.Fatalf("parseJSONL: %v", err)
	}
	if order[0] != "a@example.com" || entries["a@example.com"].record.Fields["n"] != int64(1) {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestParseJSONLErrors(t *testing.T) {
	_, _, err := parseJSONL(strings.NewReader("{\"id\": 1}\nnot json\n"), JSONLOptions{})
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("error = %v, want line 2 failure", err)
	}
}

func TestLoadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.jsonl")
	testutil.WriteFile(t, path, peopleJSONL)

	source, err := LoadJSONL(path, JSONLOptions{})
	if err != nil {
		t.Fatalf("LoadJSONL: %v", err)
	}
	page, err := source.Fetch(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if page.TotalCount != 3 || page.Records[0].Key != "ada" {
		t.Fatalf("page = %+v", page)
	}

	if _, err := LoadJSONL(filepath.Join(t.TempDir(), "missing.jsonl"), JSONLOptions{}); err == nil {
		t.Fatal("LoadJSONL of a missing file succeeded")
	}
}

func TestApplyDiff(t *testing.T) {
	before, order, err := parseJSONL(strings.NewReader(peopleJSONL), JSONLOptions{})
	if err != nil {
		t.Fatalf("parseJSONL: %v", err)
	}
	source := NewMemorySource(orderedRecords(before, order), MemoryOptions{})
	events := source.Subscribe(t.Context())

	changed := `{"id": "ada", "name": "Ada Lovelace", "age": 36, "bio": "Wrote the *first* program."}
{"id": "grace", "name": "Grace Hopper", "age": 86}
{"id": "alan", "name": "Alan Turing"}
`
	after, afterOrder, err := parseJSONL(strings.NewReader(changed), JSONLOptions{})
	if err != nil {
		t.Fatalf("parseJSONL: %v", err)
	}
	applyDiff(source, before, after, afterOrder)

	got := map[string]EventKind{}
	for len(events) > 0 {
		event := <-events
		got[event.Key] = event.Kind
	}
	if len(got) != 3 || got["grace"] != EventPut || got["alan"] != EventPut || got[order[2]] != EventRemove {
		t.Fatalf("events = %v, want put grace, put alan, remove anonymous", got)
	}
	if source.Len() != 3 {
		t.Fatalf("Len = %d, want 3", source.Len())
	}
}
