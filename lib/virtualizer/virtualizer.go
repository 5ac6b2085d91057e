// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package virtualizer

import "sort"

// DefaultOverscan is the number of rows rendered beyond each edge of
// the viewport when Options.Overscan is zero.
const DefaultOverscan = 10

// VirtualItem is the computed geometry of one row inside the
// virtualized range. Start and End are offsets from the top of the
// scrollable content; End == Start + Size.
type VirtualItem struct {
	Index int
	Key   string
	Start int
	Size  int
	End   int
}

// Align selects where ScrollToIndex places the target row.
type Align int

const (
	// AlignAuto scrolls the minimum distance that makes the row fully
	// visible, and not at all when it already is.
	AlignAuto Align = iota
	AlignStart
	AlignCenter
	AlignEnd
)

// Options configures a Virtualizer.
type Options struct {
	// Count is the number of rows.
	Count int

	// EstimateSize is the size used for rows without a measurement.
	// Values below 1 become 1. Ignored when a cache is passed to New;
	// the cache's estimate applies instead.
	EstimateSize int

	// Overscan is the number of extra rows on each side of the
	// viewport. Zero selects DefaultOverscan; negative disables
	// overscan.
	Overscan int

	// DisableMeasurement makes every row use the estimate regardless
	// of registered measurements. Set it when MeasurementSupported
	// reports false.
	DisableMeasurement bool

	// Key returns the stable key for a row index. Optional; when nil,
	// VirtualItem.Key is empty.
	Key func(index int) string
}

// Virtualizer computes the visible row window. It is driven from a
// single goroutine (the UI event loop) and is not safe for concurrent
// use.
type Virtualizer struct {
	count        int
	overscan     int
	measure      bool
	key          func(int) string
	cache        *MeasurementCache
	viewport     int
	scrollTop    int
	cacheSeen    uint64
	starts       []int // starts[i] = offset of row i; starts[count] = total size
	validThrough int   // starts[0..validThrough] are current
}

// New creates a Virtualizer over cache. When cache is nil a new one is
// created with opts.EstimateSize. The Virtualizer consumes the cache's
// change tracking, so a cache must not be shared between virtualizers.
func New(opts Options, cache *MeasurementCache) *Virtualizer {
	if cache == nil {
		cache = NewMeasurementCache(opts.EstimateSize)
	}
	overscan := opts.Overscan
	switch {
	case overscan == 0:
		overscan = DefaultOverscan
	case overscan < 0:
		overscan = 0
	}
	virtualizer := &Virtualizer{
		overscan:  overscan,
		measure:   !opts.DisableMeasurement,
		key:       opts.Key,
		cache:     cache,
		cacheSeen: cache.Version(),
	}
	virtualizer.SetCount(opts.Count)
	return virtualizer
}

// Cache returns the measurement cache backing this virtualizer.
func (virtualizer *Virtualizer) Cache() *MeasurementCache {
	return virtualizer.cache
}

// Count returns the number of rows.
func (virtualizer *Virtualizer) Count() int {
	return virtualizer.count
}

// SetCount changes the row count. Offsets of existing rows are kept;
// only rows past the previous count are added.
func (virtualizer *Virtualizer) SetCount(count int) {
	if count < 0 {
		count = 0
	}
	if count == virtualizer.count && virtualizer.starts != nil {
		return
	}
	previous := virtualizer.count
	virtualizer.count = count
	if cap(virtualizer.starts) >= count+1 {
		virtualizer.starts = virtualizer.starts[:count+1]
	} else {
		grown := make([]int, count+1)
		copy(grown, virtualizer.starts)
		virtualizer.starts = grown
	}
	virtualizer.starts[0] = 0
	virtualizer.invalidateFrom(min(previous, count))
}

// SetKey replaces the row key function.
func (virtualizer *Virtualizer) SetKey(key func(int) string) {
	virtualizer.key = key
}

// Viewport returns the viewport height.
func (virtualizer *Virtualizer) Viewport() int {
	return virtualizer.viewport
}

// SetViewport changes the viewport height and re-clamps the scroll
// offset.
func (virtualizer *Virtualizer) SetViewport(height int) {
	if height < 0 {
		height = 0
	}
	virtualizer.viewport = height
	virtualizer.scrollTop = virtualizer.ClampOffset(virtualizer.scrollTop)
}

// ScrollOffset returns the current scroll offset.
func (virtualizer *Virtualizer) ScrollOffset() int {
	return virtualizer.scrollTop
}

// SetScrollOffset moves the viewport, clamped to the scrollable range,
// and returns the offset actually applied.
func (virtualizer *Virtualizer) SetScrollOffset(offset int) int {
	virtualizer.scrollTop = virtualizer.ClampOffset(offset)
	return virtualizer.scrollTop
}

// ScrollBy moves the viewport by delta lines.
func (virtualizer *Virtualizer) ScrollBy(delta int) int {
	return virtualizer.SetScrollOffset(virtualizer.scrollTop + delta)
}

// ClampOffset limits offset to [0, TotalSize-Viewport].
func (virtualizer *Virtualizer) ClampOffset(offset int) int {
	maxOffset := virtualizer.TotalSize() - virtualizer.viewport
	if offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// TotalSize is the height of the whole scrollable content.
func (virtualizer *Virtualizer) TotalSize() int {
	virtualizer.sync()
	return virtualizer.starts[virtualizer.count]
}

// Size returns the size used for row index: its measurement, or the
// estimate.
func (virtualizer *Virtualizer) Size(index int) int {
	if virtualizer.measure {
		return virtualizer.cache.Get(index)
	}
	return virtualizer.cache.Estimate()
}

// Start returns the offset of row index from the top of the content.
func (virtualizer *Virtualizer) Start(index int) int {
	virtualizer.sync()
	if index <= 0 {
		return 0
	}
	if index >= virtualizer.count {
		return virtualizer.starts[virtualizer.count]
	}
	return virtualizer.starts[index]
}

// IndexAt returns the row containing offset, clamped to valid rows.
// Returns -1 when there are no rows.
func (virtualizer *Virtualizer) IndexAt(offset int) int {
	virtualizer.sync()
	if virtualizer.count == 0 {
		return -1
	}
	index := sort.Search(virtualizer.count, func(i int) bool {
		return virtualizer.starts[i+1] > offset
	})
	if index >= virtualizer.count {
		index = virtualizer.count - 1
	}
	return index
}

// Range returns the first and last rows intersecting the viewport,
// without overscan. ok is false when nothing is visible.
func (virtualizer *Virtualizer) Range() (first, last int, ok bool) {
	virtualizer.sync()
	if virtualizer.count == 0 || virtualizer.viewport <= 0 {
		return 0, 0, false
	}
	top := virtualizer.scrollTop
	bottom := top + virtualizer.viewport
	first = virtualizer.IndexAt(top)
	last = sort.Search(virtualizer.count, func(i int) bool {
		return virtualizer.starts[i] >= bottom
	}) - 1
	if last < first {
		last = first
	}
	return first, last, true
}

// Items returns the rows within the viewport plus overscan, in
// ascending index order.
func (virtualizer *Virtualizer) Items() []VirtualItem {
	first, last, ok := virtualizer.Range()
	if !ok {
		return nil
	}
	first = max(0, first-virtualizer.overscan)
	last = min(virtualizer.count-1, last+virtualizer.overscan)

	items := make([]VirtualItem, 0, last-first+1)
	for index := first; index <= last; index++ {
		item := VirtualItem{
			Index: index,
			Start: virtualizer.starts[index],
			End:   virtualizer.starts[index+1],
		}
		item.Size = item.End - item.Start
		if virtualizer.key != nil {
			item.Key = virtualizer.key(index)
		}
		items = append(items, item)
	}
	return items
}

// ScrollToIndex scrolls so that row index is placed according to
// align, and returns the applied offset.
func (virtualizer *Virtualizer) ScrollToIndex(index int, align Align) int {
	if virtualizer.count == 0 {
		return virtualizer.SetScrollOffset(0)
	}
	index = max(0, min(index, virtualizer.count-1))
	start := virtualizer.Start(index)
	size := virtualizer.Size(index)
	top := virtualizer.scrollTop
	viewport := virtualizer.viewport

	switch align {
	case AlignStart:
		top = start
	case AlignEnd:
		top = start + size - viewport
	case AlignCenter:
		top = start + size/2 - viewport/2
	default:
		switch {
		case start < top:
			top = start
		case start+size > top+viewport:
			// Rows taller than the viewport keep their top edge
			// visible.
			top = min(start, start+size-viewport)
		}
	}
	return virtualizer.SetScrollOffset(top)
}

// sync folds pending cache changes into the offset table and rebuilds
// any stale suffix of it.
func (virtualizer *Virtualizer) sync() {
	if version := virtualizer.cache.Version(); version != virtualizer.cacheSeen {
		virtualizer.cacheSeen = version
		if dirty := virtualizer.cache.takeDirty(); dirty >= 0 && virtualizer.measure {
			virtualizer.invalidateFrom(dirty)
		}
	}
	if virtualizer.validThrough >= virtualizer.count {
		return
	}
	for index := virtualizer.validThrough; index < virtualizer.count; index++ {
		virtualizer.starts[index+1] = virtualizer.starts[index] + virtualizer.Size(index)
	}
	virtualizer.validThrough = virtualizer.count
}

// invalidateFrom marks offsets after row index as stale.
func (virtualizer *Virtualizer) invalidateFrom(index int) {
	if index < 0 {
		index = 0
	}
	if index < virtualizer.validThrough {
		virtualizer.validThrough = index
	}
	if virtualizer.validThrough > virtualizer.count {
		virtualizer.validThrough = virtualizer.count
	}
}

// MeasurementSupported reports whether rendered heights can be trusted
// on the terminal described by getenv. Dumb terminals have no cursor
// addressing, so wrapped output may not occupy the lines lipgloss
// reports; rows there always use the estimate.
func MeasurementSupported(getenv func(string) string) bool {
	term := getenv("TERM")
	return term != "" && term != "dumb"
}
