// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datagrid

import (
	"slices"
	"strings"
	"testing"

	"github.com/bureau-foundation/gridkit/lib/sorturl"
)

type person struct {
	id   string
	name string
	age  int
}

func personColumns() []Column[person] {
	return []Column[person]{
		{ID: "name", Title: "Name", SortKey: "NAME_ASC", Value: func(row person) string { return row.name }},
		{ID: "age", Title: "Age", Width: 5, SortKey: "AGE_ASC", Value: func(row person) string { return strings.Repeat("*", row.age) }},
		{ID: "note", Value: func(person) string { return "" }},
	}
}

func personKey(row person) string { return row.id }

func TestNewTableValidation(t *testing.T) {
	value := func(person) string { return "" }
	tests := []struct {
		name    string
		columns []Column[person]
		key     func(person) string
		wantErr string
	}{
		{"missing key", personColumns(), nil, "key function"},
		{"no columns", nil, personKey, "at least one column"},
		{"empty id", []Column[person]{{Value: value}}, personKey, "no id"},
		{"duplicate id", []Column[person]{{ID: "a", Value: value}, {ID: "a", Value: value}}, personKey, "duplicate"},
		{"missing value", []Column[person]{{ID: "a"}}, personKey, "no Value"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewTable(test.columns, test.key)
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Fatalf("NewTable error = %v, want one containing %q", err, test.wantErr)
			}
		})
	}
}

func TestTableRowsAndKeys(t *testing.T) {
	table, err := NewTable(personColumns(), personKey)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	table.SetRows([]person{{id: "a", name: "Ada"}, {id: "b", name: "Grace"}})

	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}
	if key := table.Key(1); key != "b" {
		t.Errorf("Key(1) = %q, want b", key)
	}
	if key := table.Key(5); key != "" {
		t.Errorf("Key(5) = %q, want empty", key)
	}
	if index, ok := table.IndexOf("b"); !ok || index != 1 {
		t.Errorf("IndexOf(b) = %d, %v; want 1, true", index, ok)
	}

	table.SetRows([]person{{id: "c"}})
	if _, ok := table.IndexOf("a"); ok {
		t.Error("IndexOf(a) found a row that was replaced")
	}
	if _, ok := table.Row(-1); ok {
		t.Error("Row(-1) reported a row")
	}
}

func TestTableExpansionSurvivesRowChanges(t *testing.T) {
	table, _ := NewTable(personColumns(), personKey)
	table.SetRows([]person{{id: "a"}, {id: "b"}})

	if !table.ToggleExpanded("b") {
		t.Fatal("ToggleExpanded(b) = false, want true")
	}
	table.SetRows([]person{{id: "b"}, {id: "a"}})
	if !table.IsExpanded("b") {
		t.Error("b collapsed after the rows were reordered")
	}
	if table.ToggleExpanded("b") {
		t.Error("second ToggleExpanded(b) = true, want false")
	}

	table.SetExpanded("a", true)
	table.CollapseAll()
	if table.IsExpanded("a") {
		t.Error("a still expanded after CollapseAll")
	}
}

func TestTableSorting(t *testing.T) {
	table, _ := NewTable(personColumns(), personKey)

	registry := table.SortRegistry()
	if len(registry) != 2 || registry["name"] != "NAME_ASC" || registry["age"] != "AGE_ASC" {
		t.Fatalf("SortRegistry = %v", registry)
	}

	err := table.SetSorting([]sorturl.Descriptor{
		{FieldID: "age", Direction: sorturl.Descending},
		{FieldID: "note", Direction: sorturl.Ascending},
		{FieldID: "salary", Direction: sorturl.Ascending},
		{FieldID: "name", Direction: sorturl.Ascending},
	})
	if err == nil || !strings.Contains(err.Error(), "note") || !strings.Contains(err.Error(), "salary") {
		t.Fatalf("SetSorting error = %v, want the rejected columns named", err)
	}
	want := []sorturl.Descriptor{
		{FieldID: "age", Direction: sorturl.Descending},
		{FieldID: "name", Direction: sorturl.Ascending},
	}
	if got := table.Sorting(); !slices.Equal(got, want) {
		t.Fatalf("Sorting = %v, want %v", got, want)
	}

	if direction, position := table.SortPosition("name"); direction != sorturl.Ascending || position != 2 {
		t.Errorf("SortPosition(name) = %q, %d; want ASC, 2", direction, position)
	}
	if _, position := table.SortPosition("note"); position != 0 {
		t.Errorf("SortPosition(note) = %d, want 0", position)
	}

	sorting := table.Sorting()
	sorting[0].Direction = sorturl.Ascending
	if table.Sorting()[0].Direction != sorturl.Descending {
		t.Error("mutating the returned sorting changed the table")
	}
}
