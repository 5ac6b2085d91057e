// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datagrid

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/junegunn/fzf/src/util"
	"github.com/mattn/go-runewidth"

	"github.com/bureau-foundation/gridkit/lib/tui"
)

// cellGap is the blank space between adjacent cells.
const cellGap = 1

// minFlexibleWidth is the narrowest a shared-width column gets.
const minFlexibleWidth = 4

// columnWidths lays out columns across width cells. Fixed widths are
// honored first; the rest is shared by the zero-width columns, with
// the remainder going to the leftmost of them.
func columnWidths[T any](columns []Column[T], width int) []int {
	widths := make([]int, len(columns))
	remaining := width - cellGap*max(len(columns)-1, 0)
	flexible := 0
	for index, column := range columns {
		if column.Width > 0 {
			widths[index] = column.Width
			remaining -= column.Width
			continue
		}
		flexible++
	}
	if flexible == 0 {
		return widths
	}
	share := max(remaining/flexible, minFlexibleWidth)
	extra := max(remaining-share*flexible, 0)
	for index, column := range columns {
		if column.Width > 0 {
			continue
		}
		widths[index] = share
		if extra > 0 {
			widths[index]++
			extra--
		}
	}
	return widths
}

// fitCell truncates or pads text to exactly width cells. Line breaks
// become spaces.
func fitCell(text string, width int, align lipgloss.Position) string {
	if width <= 0 {
		return ""
	}
	text = strings.ReplaceAll(text, "\n", " ")
	if runewidth.StringWidth(text) > width {
		// A wide rune may not fit beside the ellipsis, leaving the
		// result a cell short; the padding below makes up for it.
		text = runewidth.Truncate(text, width, "…")
	}
	switch align {
	case lipgloss.Right:
		return runewidth.FillLeft(text, width)
	case lipgloss.Center:
		padding := width - runewidth.StringWidth(text)
		return strings.Repeat(" ", padding/2) + text + strings.Repeat(" ", padding-padding/2)
	default:
		return runewidth.FillRight(text, width)
	}
}

// highlightPositions returns the rune positions of text matched by
// any term of filter, in ascending order.
func highlightPositions(text, filter string, slab *util.Slab) []int {
	var positions []int
	for _, term := range strings.Fields(filter) {
		positions = append(positions, tui.FuzzyMatch(text, []rune(term), slab).Positions...)
	}
	slices.Sort(positions)
	return slices.Compact(positions)
}

// styleRunes renders text with base, switching to matched for the
// runes at positions.
func styleRunes(text string, positions []int, base, matched lipgloss.Style) string {
	if len(positions) == 0 {
		return base.Render(text)
	}
	var builder strings.Builder
	var run []rune
	runMatched := false
	flush := func() {
		if len(run) == 0 {
			return
		}
		if runMatched {
			builder.WriteString(matched.Render(string(run)))
		} else {
			builder.WriteString(base.Render(string(run)))
		}
		run = run[:0]
	}
	next := 0
	for index, character := range []rune(text) {
		isMatch := next < len(positions) && positions[next] == index
		if isMatch {
			next++
		}
		if isMatch != runMatched {
			flush()
			runMatched = isMatch
		}
		run = append(run, character)
	}
	flush()
	return builder.String()
}

// cellStyles holds the styles a row renderer needs.
type cellStyles struct {
	normal   lipgloss.Style
	selected lipgloss.Style
	match    lipgloss.Style
}

func newCellStyles(theme tui.Theme) cellStyles {
	return cellStyles{
		normal: lipgloss.NewStyle().Foreground(theme.NormalText),
		selected: lipgloss.NewStyle().
			Foreground(theme.SelectedForeground).
			Background(theme.SelectedBackground).
			Bold(true),
		match: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Background(theme.MatchHighlight),
	}
}

// renderCells lays out one row's cells. Wrapping columns may produce
// several lines; the others are padded to the row's height.
func renderCells[T any](row T, columns []Column[T], widths []int, base lipgloss.Style, match lipgloss.Style, filter string, slab *util.Slab) string {
	cells := make([]string, 0, 2*len(columns))
	for index, column := range columns {
		if index > 0 {
			cells = append(cells, base.Render(strings.Repeat(" ", cellGap)))
		}
		width := widths[index]
		value := column.Value(row)
		if column.Wrap && runewidth.StringWidth(value) > width {
			cells = append(cells, base.Width(width).Align(column.Align).Render(value))
			continue
		}
		text := fitCell(value, width, column.Align)
		var positions []int
		if filter != "" {
			positions = highlightPositions(text, filter, slab)
		}
		cells = append(cells, styleRunes(text, positions, base, match))
	}
	joined := lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	// Short cells beside a wrapped one leave unstyled gaps; paint the
	// full block so a selected row is one solid band.
	return base.Width(lipgloss.Width(joined)).Render(joined)
}
