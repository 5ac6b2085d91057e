// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package virtualizer

import (
	"github.com/charmbracelet/lipgloss"
)

// Slot identifies one rendered block of a logical row.
type Slot int

const (
	// SlotRow is the row's own rendered line(s).
	SlotRow Slot = iota
	// SlotExpansion is the detail panel rendered below an expanded row.
	SlotExpansion

	slotCount
)

// Block is the measured extent of one rendered block.
type Block struct {
	Height       int
	MarginTop    int
	MarginBottom int
}

// Total returns the block's height including vertical margins.
func (block Block) Total() int {
	return block.Height + block.MarginTop + block.MarginBottom
}

// MeasureBlock measures rendered output together with the vertical
// margins of the style that produced it. Empty output measures as
// zero height.
func MeasureBlock(rendered string, style lipgloss.Style) Block {
	if rendered == "" {
		return Block{}
	}
	top, _, bottom, _ := style.GetMargin()
	return Block{
		Height:       lipgloss.Height(rendered),
		MarginTop:    top,
		MarginBottom: bottom,
	}
}

type rowMeasurement struct {
	slots [slotCount]Block
	total int
}

// MeasurementCache records measured row heights keyed by row index.
// Entries are created on first registration and overwritten by every
// later one; they are never removed individually. A cache belongs to
// one grid instance and is not safe for concurrent use.
type MeasurementCache struct {
	estimate int
	rows     map[int]*rowMeasurement
	version  uint64

	// dirtyFrom is the lowest index whose total changed since the
	// virtualizer last rebuilt its offsets, or -1.
	dirtyFrom int
}

// NewMeasurementCache creates an empty cache. estimate is returned for
// rows that have no non-zero measurement; values below 1 become 1.
func NewMeasurementCache(estimate int) *MeasurementCache {
	if estimate < 1 {
		estimate = 1
	}
	return &MeasurementCache{
		estimate:  estimate,
		rows:      make(map[int]*rowMeasurement),
		dirtyFrom: -1,
	}
}

// Estimate returns the fallback row size.
func (cache *MeasurementCache) Estimate() int {
	return cache.estimate
}

// Register records block as the extent of slot for the row at index
// and recomputes the row's total across all of its slots.
func (cache *MeasurementCache) Register(index int, slot Slot, block Block) {
	if index < 0 || slot < 0 || slot >= slotCount {
		return
	}
	row, exists := cache.rows[index]
	if !exists {
		row = &rowMeasurement{}
		cache.rows[index] = row
	}
	row.slots[slot] = block

	total := 0
	for _, registered := range row.slots {
		total += registered.Total()
	}
	if exists && total == row.total {
		return
	}
	row.total = total
	cache.version++
	if cache.dirtyFrom < 0 || index < cache.dirtyFrom {
		cache.dirtyFrom = index
	}
}

// Get returns the measured total for index, or the estimate when the
// row has not been measured or measured as zero. Never returns 0.
func (cache *MeasurementCache) Get(index int) int {
	if size, ok := cache.Lookup(index); ok {
		return size
	}
	return cache.estimate
}

// Lookup returns the measured total for index and whether a non-zero
// measurement exists.
func (cache *MeasurementCache) Lookup(index int) (int, bool) {
	row, exists := cache.rows[index]
	if !exists || row.total <= 0 {
		return 0, false
	}
	return row.total, true
}

// SlotHeight returns the registered total of a single slot, or 0.
func (cache *MeasurementCache) SlotHeight(index int, slot Slot) int {
	row, exists := cache.rows[index]
	if !exists || slot < 0 || slot >= slotCount {
		return 0
	}
	return row.slots[slot].Total()
}

// Version increases whenever any row's total changes.
func (cache *MeasurementCache) Version() uint64 {
	return cache.version
}

// Reset drops every entry. Used when the row set is replaced
// wholesale, where index-keyed measurements no longer describe the
// rows at those indices.
func (cache *MeasurementCache) Reset() {
	if len(cache.rows) == 0 {
		return
	}
	clear(cache.rows)
	cache.version++
	cache.dirtyFrom = 0
}

// takeDirty returns and clears the lowest changed index.
func (cache *MeasurementCache) takeDirty() int {
	dirty := cache.dirtyFrom
	cache.dirtyFrom = -1
	return dirty
}
