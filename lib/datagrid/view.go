// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datagrid

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/bureau-foundation/gridkit/lib/sorturl"
	"github.com/bureau-foundation/gridkit/lib/tui"
	"github.com/bureau-foundation/gridkit/lib/virtualizer"
)

// markerWidth is the gutter left of the cells holding the expansion
// marker.
const markerWidth = 2

// maxLayoutPasses bounds how often one frame re-measures. Measuring a
// row can move others into or out of the window, which then need
// measuring too; the window settles after a pass or two in practice.
const maxLayoutPasses = 4

// bodyTop is the screen line where the grid body starts: below the
// header, and below the filter bar while one is shown.
func (grid *Grid[T]) bodyTop() int {
	if grid.showFilterBar() {
		return 2
	}
	return 1
}

func (grid *Grid[T]) showFilterBar() bool {
	return grid.filtering || grid.filter.Value() != ""
}

// bodyHeight is what is left between the chrome lines: the status
// line and the help below the body.
func (grid *Grid[T]) bodyHeight() int {
	return max(grid.height-grid.bodyTop()-1-lipgloss.Height(grid.renderHelp()), 0)
}

// bodyWidth leaves one column for the scrollbar.
func (grid *Grid[T]) bodyWidth() int {
	return max(grid.width-1, 0)
}

// syncViewport resizes the virtualizer to the body after a chrome
// change.
func (grid *Grid[T]) syncViewport() {
	if !grid.ready {
		return
	}
	grid.virtualizer.SetViewport(grid.bodyHeight())
}

// columnAt returns the id of the column under screen column x in the
// header.
func (grid *Grid[T]) columnAt(x int) (string, bool) {
	columns := grid.table.Columns()
	widths := columnWidths(columns, grid.bodyWidth()-markerWidth)
	start := markerWidth
	for index, column := range columns {
		end := start + widths[index]
		if x >= start && x < end {
			return column.ID, true
		}
		start = end + cellGap
	}
	return "", false
}

// sortIndicator renders a column's sort direction, with its priority
// when more than one column is sorted.
func sortIndicator(direction sorturl.Direction, position, sortCount int) string {
	arrow := "▲"
	if direction == sorturl.Descending {
		arrow = "▼"
	}
	if sortCount > 1 {
		return arrow + strconv.Itoa(position)
	}
	return arrow
}

// View implements tea.Model.
func (grid *Grid[T]) View() string {
	if !grid.ready {
		return "Loading..."
	}
	state := grid.query.State()
	if grid.table.Len() == 0 && state.Loaded && state.Err == nil && !grid.refill.active {
		return grid.renderEmpty()
	}

	sections := []string{grid.renderHeader()}
	if grid.showFilterBar() {
		sections = append(sections, grid.renderFilterBar())
	}
	sections = append(sections, grid.body, grid.renderStatus(), grid.renderHelp())
	output := strings.Join(sections, "\n")

	if grid.menu != nil {
		output = tui.SpliceOverlay(output, grid.menu.Render(grid.theme), grid.menu.AnchorX, grid.menu.AnchorY)
	}
	return output
}

// renderEmpty replaces the header and body with the empty-state text.
// The filter bar stays so a filter that matches nothing can be edited.
func (grid *Grid[T]) renderEmpty() string {
	var sections []string
	if grid.showFilterBar() {
		sections = append(sections, grid.renderFilterBar())
	}
	// The header line is not drawn, so its line goes to the message.
	height := grid.bodyHeight() + 1
	message := lipgloss.NewStyle().Foreground(grid.theme.FaintText).Render(grid.emptyText)
	sections = append(sections,
		lipgloss.Place(grid.width, height, lipgloss.Center, lipgloss.Center, message),
		grid.renderStatus(),
		grid.renderHelp(),
	)
	return strings.Join(sections, "\n")
}

func (grid *Grid[T]) renderHeader() string {
	columns := grid.table.Columns()
	widths := columnWidths(columns, grid.bodyWidth()-markerWidth)
	sortCount := len(grid.table.Sorting())

	base := lipgloss.NewStyle().Foreground(grid.theme.HeaderForeground).Bold(true)
	focused := base.Underline(true)
	indicatorStyle := lipgloss.NewStyle().Foreground(grid.theme.SortIndicator).Bold(true)

	var builder strings.Builder
	builder.WriteString(strings.Repeat(" ", markerWidth))
	for index, column := range columns {
		if index > 0 {
			builder.WriteString(strings.Repeat(" ", cellGap))
		}
		width := widths[index]
		indicator := ""
		if direction, position := grid.table.SortPosition(column.ID); position > 0 {
			indicator = sortIndicator(direction, position, sortCount)
		}
		titleWidth := max(width-runewidth.StringWidth(indicator), 0)
		style := base
		if index == grid.focusedColumn {
			style = focused
		}
		title := runewidth.Truncate(column.title(), titleWidth, "…")
		builder.WriteString(style.Render(title))
		builder.WriteString(indicatorStyle.Render(indicator))
		builder.WriteString(strings.Repeat(" ", max(width-runewidth.StringWidth(title)-runewidth.StringWidth(indicator), 0)))
	}
	return tui.FitWidth(builder.String(), grid.width)
}

func (grid *Grid[T]) renderFilterBar() string {
	return tui.FitWidth(grid.filter.View(), grid.width)
}

// renderBody paints the visible rows and attaches the scrollbar.
func (grid *Grid[T]) renderBody() string {
	height := grid.virtualizer.Viewport()
	width := grid.bodyWidth()
	var lines []string
	if grid.flow {
		lines = grid.renderFlow(width, height)
	} else {
		lines = grid.renderVirtualized(width, height)
	}
	for index, line := range lines {
		lines[index] = tui.FitWidth(line, width)
	}

	scrollbar := tui.RenderScrollbar(grid.theme, height,
		grid.virtualizer.TotalSize(), height, grid.virtualizer.ScrollOffset(), true)
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(lines, "\n"), scrollbar)
}

// renderedRow holds the blocks drawn for one row.
type renderedRow struct {
	row   string
	panel string
}

// renderVirtualized renders the rows in the virtualizer's window and
// paints each at its offset, with its expansion panel directly below.
func (grid *Grid[T]) renderVirtualized(width, height int) []string {
	rendered := make(map[int]renderedRow)
	var items []virtualizer.VirtualItem
	for range maxLayoutPasses {
		version := grid.cache.Version()
		items = grid.virtualizer.Items()
		for _, item := range items {
			if _, done := rendered[item.Index]; !done {
				rendered[item.Index] = grid.renderRow(item.Index, true, width)
			}
		}
		if grid.cache.Version() == version {
			break
		}
	}
	// Offsets as of every measurement so far.
	top := grid.virtualizer.SetScrollOffset(grid.virtualizer.ScrollOffset())
	items = grid.virtualizer.Items()
	for _, item := range items {
		if _, done := rendered[item.Index]; !done {
			rendered[item.Index] = grid.renderRow(item.Index, true, width)
		}
	}

	canvas := newCanvas(height)
	for _, item := range items {
		blocks := rendered[item.Index]
		canvas.paint(item.Start-top, blocks.row)
		placement := grid.virtualizer.PlaceExpansion(item.Index, blocks.panel != "")
		if placement.Visible {
			canvas.paint(placement.TopOffset-top, blocks.panel)
		}
	}
	return canvas.lines
}

// renderFlow renders every loaded row in order, panels following their
// rows, and returns the window at the scroll offset.
func (grid *Grid[T]) renderFlow(width, height int) []string {
	var content []string
	for index := range grid.table.Len() {
		blocks := grid.renderRow(index, false, width)
		content = append(content, splitBlock(blocks.row)...)
		if placement := virtualizer.Place(0, 0, blocks.panel != "", false); placement.Visible {
			content = append(content, splitBlock(blocks.panel)...)
		}
	}
	top := grid.virtualizer.SetScrollOffset(grid.virtualizer.ScrollOffset())

	lines := make([]string, height)
	for index := range lines {
		if top+index < len(content) {
			lines[index] = content[top+index]
		}
	}
	return lines
}

func splitBlock(block string) []string {
	if block == "" {
		return nil
	}
	return strings.Split(block, "\n")
}

// renderRow draws one row and, when expanded, its panel. Blocks a
// renderer did not measure itself are measured here, and a collapsed
// row's panel slot is cleared so its height drops out of the row.
func (grid *Grid[T]) renderRow(index int, absolute bool, width int) renderedRow {
	row, _ := grid.table.Row(index)
	rowKey := grid.table.Key(index)
	expanded := grid.renderExpansion != nil && grid.table.IsExpanded(rowKey)

	var measured [2]bool
	positioning := RowPositioning{
		Index:    index,
		Key:      rowKey,
		Top:      grid.virtualizer.Start(index),
		Absolute: absolute,
		Expanded: expanded,
		Selected: index == grid.cursor,
		Width:    width,
		Ref: func(slot virtualizer.Slot, block virtualizer.Block) {
			if slot >= 0 && int(slot) < len(measured) {
				measured[slot] = true
			}
			grid.cache.Register(index, slot, block)
		},
	}

	var blocks renderedRow
	blocks.row = grid.renderRowFunc(row, positioning)
	if !positioning.Selected {
		if color, hot := grid.heat.Background(grid.theme, rowKey, grid.clock.Now()); hot {
			blocks.row = lipgloss.NewStyle().Background(color).Width(width).MaxWidth(width).Render(blocks.row)
		}
	}
	if !measured[virtualizer.SlotRow] {
		positioning.Ref(virtualizer.SlotRow, virtualizer.MeasureBlock(blocks.row, lipgloss.NewStyle()))
	}

	if !expanded {
		grid.cache.Register(index, virtualizer.SlotExpansion, virtualizer.Block{})
		return blocks
	}
	blocks.panel = grid.renderExpansion(row, positioning)
	if !measured[virtualizer.SlotExpansion] {
		positioning.Ref(virtualizer.SlotExpansion, virtualizer.MeasureBlock(blocks.panel, lipgloss.NewStyle()))
	}
	return blocks
}

// defaultRow renders a row's cells after an expansion marker.
func (grid *Grid[T]) defaultRow(row T, positioning RowPositioning) string {
	base := grid.styles.normal
	if positioning.Selected {
		base = grid.styles.selected
	}
	marker := "  "
	if grid.renderExpansion != nil {
		marker = "▸ "
		if positioning.Expanded {
			marker = "▾ "
		}
	}
	columns := grid.table.Columns()
	widths := columnWidths(columns, positioning.Width-markerWidth)
	cells := renderCells(row, columns, widths, base, grid.styles.match, grid.filter.Value(), grid.slab)
	content := lipgloss.JoinHorizontal(lipgloss.Top,
		base.Height(lipgloss.Height(cells)).Render(marker), cells)
	return positioning.Measure(virtualizer.SlotRow, content, lipgloss.NewStyle())
}

// panelStyle frames an expansion panel with a rule on the left and a
// blank line below.
func (grid *Grid[T]) panelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(grid.theme.PanelRule).
		PaddingLeft(1).
		MarginLeft(markerWidth).
		MarginBottom(1)
}

// defaultExpansion renders the row's detail markdown in a panel.
func (grid *Grid[T]) defaultExpansion(row T, positioning RowPositioning) string {
	style := grid.panelStyle()
	// Border, padding and left margin.
	contentWidth := max(positioning.Width-markerWidth-2, 8)
	body, err := tui.RenderMarkdown(grid.detail(row), grid.theme, contentWidth)
	if err != nil {
		// Debug only: a warning would reach the status bar and redraw.
		grid.logger.Debug("showing detail as plain text", "error", err)
	}
	if body == "" {
		body = lipgloss.NewStyle().Foreground(grid.theme.FaintText).Render("(no detail)")
	}
	content := style.UnsetMarginBottom().Render(body)
	return positioning.Measure(virtualizer.SlotExpansion, content, style)
}

// renderStatus shows the pagination state, sort and filter.
func (grid *Grid[T]) renderStatus() string {
	state := grid.query.State()
	faint := lipgloss.NewStyle().Foreground(grid.theme.FaintText)

	var parts []string
	if state.IsFetching {
		parts = append(parts, grid.spinner.View()+" loading")
	}
	if state.Loaded || grid.table.Len() > 0 {
		parts = append(parts, faint.Render(fmt.Sprintf("%d of %d rows", grid.table.Len(), max(state.TotalCount, grid.table.Len()))))
	}
	if tokens := grid.SortTokens(); len(tokens) > 0 {
		parts = append(parts, faint.Render("sort "+strings.Join(tokens, ",")))
	}
	if filter := grid.filter.Value(); filter != "" && !grid.filtering {
		parts = append(parts, faint.Render("filter "+strconv.Quote(filter)))
	}
	if state.Err != nil {
		retry := ""
		if keys := grid.keys.Retry.Help().Key; keys != "" {
			retry = " (" + keys + " to retry)"
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(grid.theme.ErrorText).
			Render("fetch failed: "+firstLine(state.Err.Error())+retry))
	}
	return tui.FitWidth(" "+strings.Join(parts, faint.Render(" · ")), grid.width)
}

// renderHelp shows the key help, or a recent log record in its place.
func (grid *Grid[T]) renderHelp() string {
	if grid.logSummary != "" {
		color := grid.theme.Accent
		if grid.logLevel >= slog.LevelError {
			color = grid.theme.ErrorText
		}
		return tui.FitWidth(lipgloss.NewStyle().Foreground(color).Render(" "+grid.logSummary), grid.width)
	}
	return grid.help.View(grid.keys)
}

func firstLine(text string) string {
	if index := strings.IndexByte(text, '\n'); index >= 0 {
		return text[:index]
	}
	return text
}

// canvas is a fixed-height stack of lines that blocks are painted onto
// at line offsets. Lines outside the canvas are clipped.
type canvas struct {
	lines []string
}

func newCanvas(height int) *canvas {
	return &canvas{lines: make([]string, max(height, 0))}
}

func (canvas *canvas) paint(offset int, block string) {
	if block == "" {
		return
	}
	for index, line := range strings.Split(block, "\n") {
		row := offset + index
		if row < 0 {
			continue
		}
		if row >= len(canvas.lines) {
			return
		}
		canvas.lines[row] = line
	}
}
