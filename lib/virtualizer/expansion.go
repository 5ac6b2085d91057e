// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package virtualizer

// Placement describes where a row's expansion panel is drawn.
type Placement struct {
	// TopOffset is the panel's offset from the top of the content.
	// Only meaningful when Absolute is true.
	TopOffset int

	// Visible mirrors the owning row's expanded flag.
	Visible bool

	// Absolute is true in virtualized mode, where the panel is painted
	// at TopOffset. In flow mode the panel follows its row in document
	// order and only Visible matters.
	Absolute bool
}

// Place computes the panel placement for a row starting at ownerStart
// whose own rendered height (panel excluded) is ownerRowHeight. The
// expanded flag is owned by the table engine; Place only reacts to it.
func Place(ownerStart, ownerRowHeight int, expanded, absolute bool) Placement {
	if !absolute {
		return Placement{Visible: expanded}
	}
	return Placement{
		TopOffset: ownerStart + ownerRowHeight,
		Visible:   expanded,
		Absolute:  true,
	}
}

// PlaceExpansion places the expansion panel of row index using the
// virtualized start of the row and the measured height of its row
// slot. An unmeasured row slot counts as the estimate.
func (virtualizer *Virtualizer) PlaceExpansion(index int, expanded bool) Placement {
	rowHeight := virtualizer.cache.SlotHeight(index, SlotRow)
	if rowHeight <= 0 || !virtualizer.measure {
		rowHeight = virtualizer.cache.Estimate()
	}
	return Place(virtualizer.Start(index), rowHeight, expanded, true)
}
