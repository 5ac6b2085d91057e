// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datagrid

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/gridkit/lib/virtualizer"
)

// RowPositioning is what a grid body tells a row renderer about the
// row being drawn.
type RowPositioning struct {
	// Index is the row's position in the loaded row model.
	Index int

	// Key is the row's stable key.
	Key string

	// Top is the row's offset in lines from the top of the content.
	Top int

	// Absolute is true in virtualized mode, where the row is painted
	// at Top. In flow mode rows follow each other in order.
	Absolute bool

	// Expanded and Selected mirror the table and cursor state.
	Expanded bool
	Selected bool

	// Width is the number of columns available to the row.
	Width int

	// Ref registers the measured extent of one rendered block of the
	// row. Set by the grid body; nil outside of one.
	Ref func(slot virtualizer.Slot, block virtualizer.Block)
}

// RowRenderer draws one block of a row: either the row itself or its
// expansion panel. Renderers report what they drew through
// [RowPositioning.Measure] (or Ref directly).
type RowRenderer[T any] func(row T, positioning RowPositioning) string

// errOutsideGridBody is the panic value for rendering with a
// RowPositioning that no grid body produced.
const errOutsideGridBody = "datagrid: row rendered outside a grid body: RowPositioning has no Ref"

// Measure registers content as the extent of slot and returns it with
// the vertical margins of style laid out as blank lines. content must
// be rendered without those margins; style.UnsetMargins().Render is
// the usual way to produce it. Panics when positioning did not come
// from a grid body.
func (positioning RowPositioning) Measure(slot virtualizer.Slot, content string, style lipgloss.Style) string {
	if positioning.Ref == nil {
		panic(errOutsideGridBody)
	}
	block := virtualizer.MeasureBlock(content, style)
	positioning.Ref(slot, block)
	if content == "" {
		return ""
	}
	return strings.Repeat("\n", block.MarginTop) + content + strings.Repeat("\n", block.MarginBottom)
}
