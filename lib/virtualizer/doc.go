// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package virtualizer computes windowed rendering geometry for long
// row lists whose rows may have different, measured heights.
//
// All sizes and offsets are in terminal lines. A [Virtualizer] keeps a
// running offset table over row indices, using each row's measured
// height from a [MeasurementCache] when one exists and the estimated
// row size otherwise. Given a viewport height and scroll offset it
// returns the [VirtualItem]s that intersect the viewport, extended by
// an overscan margin of whole rows on each side.
//
// Measurement is registration-based. Every rendered block belonging to
// a logical row (the row itself and, when expanded, its detail panel)
// registers its height under the row's index and a [Slot]:
//
//	rendered := renderRow(row)
//	cache.Register(index, virtualizer.SlotRow, virtualizer.MeasureBlock(rendered, rowStyle))
//
// The cache sums all slots of an index into one measured unit, so a
// row and its expansion panel scroll as one item.
//
// [Place] computes where an expansion panel goes: directly below its
// owning row, at the row's virtual start plus the owner row's own
// height (excluding the panel).
package virtualizer
