// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datagrid

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/gridkit/lib/virtualizer"
)

func TestMeasureRegistersBlock(t *testing.T) {
	var gotSlot virtualizer.Slot
	var gotBlock virtualizer.Block
	calls := 0
	positioning := RowPositioning{
		Ref: func(slot virtualizer.Slot, block virtualizer.Block) {
			calls++
			gotSlot = slot
			gotBlock = block
		},
	}

	style := lipgloss.NewStyle().MarginTop(1).MarginBottom(2)
	output := positioning.Measure(virtualizer.SlotExpansion, "one\ntwo", style)

	if calls != 1 {
		t.Fatalf("Ref called %d times, want 1", calls)
	}
	if gotSlot != virtualizer.SlotExpansion {
		t.Errorf("slot = %v, want SlotExpansion", gotSlot)
	}
	if gotBlock.Total() != 5 {
		t.Errorf("block = %+v, total %d; want 5", gotBlock, gotBlock.Total())
	}
	if output != "\none\ntwo\n\n" {
		t.Errorf("output = %q", output)
	}
	if lipgloss.Height(output) != gotBlock.Total() {
		t.Errorf("output is %d lines but measured %d", lipgloss.Height(output), gotBlock.Total())
	}
}

func TestMeasureOutsideGridBodyPanics(t *testing.T) {
	defer func() {
		if recovered := recover(); recovered != errOutsideGridBody {
			t.Fatalf("recovered %v, want the outside-grid-body panic", recovered)
		}
	}()
	RowPositioning{}.Measure(virtualizer.SlotRow, "row", lipgloss.NewStyle())
}

func TestDefaultRendererRequiresGridBody(t *testing.T) {
	grid, _ := newPeopleGrid(t, 3, nil)
	row, _ := grid.table.Row(0)
	defer func() {
		if recovered := recover(); recovered != errOutsideGridBody {
			t.Fatalf("recovered %v, want the outside-grid-body panic", recovered)
		}
	}()
	grid.renderRowFunc(row, RowPositioning{Width: 40})
}
