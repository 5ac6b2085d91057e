// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datagrid

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/gridkit/lib/sorturl"
)

// Column describes one grid column.
type Column[T any] struct {
	// ID is the field id used in sort descriptors and fetch requests.
	ID string

	// Title is the header label. Defaults to ID.
	Title string

	// Width is the column width in cells. Zero shares the space left
	// by fixed-width columns equally.
	Width int

	// SortKey is the column's ascending sort token (NAME_ASC). Columns
	// without one cannot be sorted.
	SortKey string

	// Wrap lets long values wrap onto further lines instead of being
	// truncated, making the row taller.
	Wrap bool

	// Align positions the value within the cell.
	Align lipgloss.Position

	// Value formats the column's value for a row.
	Value func(row T) string
}

// Sortable reports whether the column has a sort key.
func (column Column[T]) Sortable() bool {
	return column.SortKey != ""
}

func (column Column[T]) title() string {
	if column.Title != "" {
		return column.Title
	}
	return column.ID
}

// Table is the in-process tabular engine behind a grid: the loaded
// row model, the set of expanded rows and the sort state. Expansion
// is keyed by row key so it survives refetches that move rows.
type Table[T any] struct {
	columns  []Column[T]
	key      func(T) string
	rows     []T
	index    map[string]int
	expanded map[string]bool
	sorting  []sorturl.Descriptor
}

// NewTable validates columns and creates an empty table. Column ids
// must be non-empty and unique, and every column needs a Value.
func NewTable[T any](columns []Column[T], key func(T) string) (*Table[T], error) {
	if key == nil {
		return nil, fmt.Errorf("datagrid: row key function is required")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("datagrid: at least one column is required")
	}
	seen := make(map[string]bool, len(columns))
	for index, column := range columns {
		if column.ID == "" {
			return nil, fmt.Errorf("datagrid: column %d has no id", index)
		}
		if seen[column.ID] {
			return nil, fmt.Errorf("datagrid: duplicate column id %q", column.ID)
		}
		if column.Value == nil {
			return nil, fmt.Errorf("datagrid: column %q has no Value function", column.ID)
		}
		seen[column.ID] = true
	}
	return &Table[T]{
		columns:  slices.Clone(columns),
		key:      key,
		index:    make(map[string]int),
		expanded: make(map[string]bool),
	}, nil
}

// Columns returns the column definitions in display order.
func (table *Table[T]) Columns() []Column[T] {
	return table.columns
}

// Column looks up a column by id.
func (table *Table[T]) Column(id string) (Column[T], bool) {
	for _, column := range table.columns {
		if column.ID == id {
			return column, true
		}
	}
	return Column[T]{}, false
}

// SortRegistry maps the id of every sortable column to its sort key,
// in the form [sorturl.NewBinder] takes.
func (table *Table[T]) SortRegistry() map[string]string {
	registry := make(map[string]string)
	for _, column := range table.columns {
		if column.Sortable() {
			registry[column.ID] = column.SortKey
		}
	}
	return registry
}

// SetRows replaces the row model. Expansion state is kept for keys
// that are still present.
func (table *Table[T]) SetRows(rows []T) {
	table.rows = rows
	clear(table.index)
	for position, row := range rows {
		table.index[table.key(row)] = position
	}
}

// Len returns the number of rows.
func (table *Table[T]) Len() int {
	return len(table.rows)
}

// Row returns the row at index.
func (table *Table[T]) Row(index int) (T, bool) {
	if index < 0 || index >= len(table.rows) {
		var zero T
		return zero, false
	}
	return table.rows[index], true
}

// Key returns the key of the row at index, or "" when out of range.
func (table *Table[T]) Key(index int) string {
	row, ok := table.Row(index)
	if !ok {
		return ""
	}
	return table.key(row)
}

// IndexOf returns the index of the row with key.
func (table *Table[T]) IndexOf(key string) (int, bool) {
	position, ok := table.index[key]
	return position, ok
}

// IsExpanded reports whether the row with key is expanded.
func (table *Table[T]) IsExpanded(key string) bool {
	return table.expanded[key]
}

// ToggleExpanded flips the expansion of the row with key and returns
// the new state.
func (table *Table[T]) ToggleExpanded(key string) bool {
	table.SetExpanded(key, !table.expanded[key])
	return table.expanded[key]
}

// SetExpanded sets the expansion of the row with key.
func (table *Table[T]) SetExpanded(key string, expanded bool) {
	if expanded {
		table.expanded[key] = true
		return
	}
	delete(table.expanded, key)
}

// CollapseAll collapses every row.
func (table *Table[T]) CollapseAll() {
	clear(table.expanded)
}

// Sorting returns the current sort descriptors in priority order.
func (table *Table[T]) Sorting() []sorturl.Descriptor {
	return slices.Clone(table.sorting)
}

// SetSorting replaces the sort state. Descriptors naming unknown or
// unsortable columns are dropped and reported.
func (table *Table[T]) SetSorting(descriptors []sorturl.Descriptor) error {
	var rejected []string
	kept := make([]sorturl.Descriptor, 0, len(descriptors))
	for _, descriptor := range descriptors {
		column, ok := table.Column(descriptor.FieldID)
		if !ok || !column.Sortable() {
			rejected = append(rejected, descriptor.FieldID)
			continue
		}
		kept = append(kept, descriptor)
	}
	table.sorting = kept
	if len(rejected) > 0 {
		return fmt.Errorf("datagrid: ignoring sort on columns %q", rejected)
	}
	return nil
}

// SortPosition returns the direction and 1-based priority of the
// column in the sort state, or 0 when it is not sorted.
func (table *Table[T]) SortPosition(fieldID string) (sorturl.Direction, int) {
	for position, descriptor := range table.sorting {
		if descriptor.FieldID == fieldID {
			return descriptor.Direction, position + 1
		}
	}
	return "", 0
}
