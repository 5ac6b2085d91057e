// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderScrollbar produces a single-column scrollbar of the given
// height for content of totalLines lines, of which visibleLines are
// on screen starting at scrollOffset. Sizes are in lines, not rows,
// so variable-height content gets an accurate thumb.
//
// When content fits the thumb spans the full height. The thumb uses
// the accent color when focused.
func RenderScrollbar(theme Theme, height, totalLines, visibleLines, scrollOffset int, focused bool) string {
	if height <= 0 {
		return ""
	}

	thumbColor := theme.BorderColor
	if focused {
		thumbColor = theme.Accent
	}
	trackStyle := lipgloss.NewStyle().Foreground(theme.BorderColor)
	thumbStyle := lipgloss.NewStyle().Foreground(thumbColor)

	thumbOffset, thumbSize := ScrollbarThumb(height, totalLines, visibleLines, scrollOffset)
	lines := make([]string, height)
	for index := range lines {
		if index >= thumbOffset && index < thumbOffset+thumbSize {
			lines[index] = thumbStyle.Render("┃")
		} else {
			lines[index] = trackStyle.Render("│")
		}
	}
	return strings.Join(lines, "\n")
}

// ScrollbarThumb returns the thumb's first track line and its length.
func ScrollbarThumb(height, totalLines, visibleLines, scrollOffset int) (offset, size int) {
	if height <= 0 {
		return 0, 0
	}
	if totalLines <= visibleLines || totalLines <= 0 {
		return 0, height
	}

	size = max(1, height*visibleLines/totalLines)
	scrollableRange := totalLines - visibleLines
	trackRange := height - size
	if trackRange > 0 {
		offset = min(max(scrollOffset, 0), scrollableRange) * trackRange / scrollableRange
	}
	// Pin the thumb to the bottom once the last line is visible so
	// integer rounding never leaves a gap.
	if scrollOffset >= scrollableRange {
		offset = trackRange
	}
	return offset, size
}
