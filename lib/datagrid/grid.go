// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datagrid

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/gridkit/lib/clock"
	"github.com/bureau-foundation/gridkit/lib/gridsource"
	"github.com/bureau-foundation/gridkit/lib/infinite"
	"github.com/bureau-foundation/gridkit/lib/sorturl"
	"github.com/bureau-foundation/gridkit/lib/tui"
	"github.com/bureau-foundation/gridkit/lib/virtualizer"
)

// wheelStep is the number of lines one mouse wheel notch scrolls.
const wheelStep = 3

// Request is what a grid asks its fetch function for.
type Request struct {
	Offset   int
	PageSize int
	Sort     []sorturl.Descriptor
	Filter   string
}

// FetchFunc loads one page of rows for a grid.
type FetchFunc[T any] func(ctx context.Context, request Request) (infinite.Page[T], error)

// Options configures a [Grid].
type Options[T any] struct {
	Columns []Column[T]

	// Key returns a row's stable key. Required.
	Key func(row T) string

	// Fetch loads pages. Required.
	Fetch FetchFunc[T]

	// Detail returns markdown for a row's expansion panel. Rows are
	// expandable when Detail or RenderExpansion is set.
	Detail func(row T) string

	// RenderRow and RenderExpansion replace the built-in renderers.
	RenderRow       RowRenderer[T]
	RenderExpansion RowRenderer[T]

	// Events delivers live changes; each one refetches the loaded
	// rows. Optional.
	Events <-chan gridsource.Event

	// Params holds the sort state as query parameters under ParamKey
	// (default "sort"). The initial sort is read from it and every
	// change is written back. Optional; an empty set is used when nil.
	Params   sorturl.SearchParams
	ParamKey string

	// Policy controls click-to-sort.
	Policy sorturl.Policy

	PageSize          int
	EstimateRowHeight int
	Overscan          int
	Threshold         infinite.Threshold

	// Flow renders every loaded row in order instead of only the
	// visible window.
	Flow bool

	// DisableMeasurement makes every row use EstimateRowHeight. Set it
	// when virtualizer.MeasurementSupported reports false. Flow mode
	// ignores it: every row is drawn in full, so its scroll range is
	// the drawn content's real height.
	DisableMeasurement bool

	// EmptyText is shown instead of the table when no rows match.
	EmptyText string

	Theme  *tui.Theme
	Keys   *KeyMap
	Clock  clock.Clock
	Logger *slog.Logger

	// Context bounds every fetch. Defaults to context.Background.
	Context context.Context
}

// queryKey identifies the row set a query holds. Sorting or filtering
// differently starts a new one.
type queryKey struct {
	Sort   []sorturl.Descriptor
	Filter string
}

// refill tracks a replacement row set being loaded behind the rows on
// screen. The old rows stay visible until target rows (or all of
// them) have arrived.
type refill struct {
	active bool
	target int

	// resetScroll returns to the top when the new rows are shown,
	// used when the ordering changed rather than the data.
	resetScroll bool
}

type sourceEventMsg struct {
	event gridsource.Event
}

type heatTickMsg struct{}

// Grid is a bubbletea model rendering a virtualized, infinitely
// scrolling table. Update mutates the grid in place and returns it.
type Grid[T any] struct {
	table       *Table[T]
	cache       *virtualizer.MeasurementCache
	virtualizer *virtualizer.Virtualizer
	query       *infinite.Query[T]
	controller  *infinite.Controller
	binder      *sorturl.Binder
	route       *sorturl.Route

	fetch           FetchFunc[T]
	detail          func(T) string
	renderRowFunc   RowRenderer[T]
	renderExpansion RowRenderer[T]
	policy          sorturl.Policy
	flow            bool
	emptyText       string

	theme   tui.Theme
	styles  cellStyles
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	filter  textinput.Model
	menu    *tui.Menu
	heat    *tui.HeatTracker
	slab    *util.Slab

	events <-chan gridsource.Event
	clock  clock.Clock
	logger *slog.Logger
	ctx    context.Context

	width  int
	height int
	ready  bool

	cursor        int
	selectedKey   string
	focusedColumn int
	filtering     bool

	refill         refill
	fetchRequested bool
	spinning       bool
	tickRunning    bool

	logSummary  string
	logLevel    slog.Level
	logSequence uint64

	// body is the grid body as of the last Update.
	body string
}

// New creates a grid. Nothing is fetched until the program calls Init.
func New[T any](options Options[T]) (*Grid[T], error) {
	if options.Fetch == nil {
		return nil, fmt.Errorf("datagrid: Fetch is required")
	}
	table, err := NewTable(options.Columns, options.Key)
	if err != nil {
		return nil, err
	}
	binder, err := sorturl.NewBinder(table.SortRegistry())
	if err != nil {
		return nil, fmt.Errorf("datagrid: %w", err)
	}

	grid := &Grid[T]{
		table:           table,
		binder:          binder,
		fetch:           options.Fetch,
		detail:          options.Detail,
		renderRowFunc:   options.RenderRow,
		renderExpansion: options.RenderExpansion,
		policy:          options.Policy,
		flow:            options.Flow,
		emptyText:       options.EmptyText,
		theme:           tui.DefaultTheme,
		keys:            DefaultKeyMap,
		heat:            tui.NewHeatTracker(),
		slab:            tui.NewSlab(),
		events:          options.Events,
		clock:           options.Clock,
		logger:          options.Logger,
		ctx:             options.Context,
	}
	if options.Theme != nil {
		grid.theme = *options.Theme
	}
	if options.Keys != nil {
		grid.keys = *options.Keys
	}
	if grid.clock == nil {
		grid.clock = clock.Real()
	}
	if grid.logger == nil {
		grid.logger = slog.New(slog.DiscardHandler)
	}
	if grid.ctx == nil {
		grid.ctx = context.Background()
	}
	if grid.emptyText == "" {
		grid.emptyText = "No rows."
	}
	if grid.renderRowFunc == nil {
		grid.renderRowFunc = grid.defaultRow
	}
	if grid.renderExpansion == nil && grid.detail != nil {
		grid.renderExpansion = grid.defaultExpansion
	}
	grid.styles = newCellStyles(grid.theme)

	params := options.Params
	if params == nil {
		params = sorturl.URLValues(url.Values{})
	}
	grid.route = sorturl.NewRoute(params, binder)
	if options.ParamKey != "" {
		grid.route = grid.route.WithKey(options.ParamKey)
	}
	sorting, err := grid.route.Sorting()
	if err != nil {
		grid.logger.Warn("ignoring malformed sort parameters", "error", err)
	}
	if err := table.SetSorting(sorting); err != nil {
		grid.logger.Warn("ignoring sort parameters", "error", err)
	}

	grid.cache = virtualizer.NewMeasurementCache(options.EstimateRowHeight)
	grid.virtualizer = virtualizer.New(virtualizer.Options{
		Overscan:           options.Overscan,
		DisableMeasurement: options.DisableMeasurement && !options.Flow,
		Key:                table.Key,
	}, grid.cache)

	grid.query, err = infinite.NewQuery(infinite.Options[T]{
		Fetch:    grid.fetcher(table.Sorting(), ""),
		PageSize: options.PageSize,
		Key:      queryKey{Sort: table.Sorting()},
		Clock:    grid.clock,
		Logger:   grid.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("datagrid: %w", err)
	}
	grid.controller = infinite.NewController(grid.query, options.Threshold, func() {
		grid.fetchRequested = true
	})

	grid.help = help.New()
	grid.help.Styles.ShortKey = lipgloss.NewStyle().Foreground(grid.theme.FaintText)
	grid.help.Styles.ShortDesc = lipgloss.NewStyle().Foreground(grid.theme.HelpText)
	grid.help.Styles.FullKey = grid.help.Styles.ShortKey
	grid.help.Styles.FullDesc = grid.help.Styles.ShortDesc

	grid.spinner = spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(grid.theme.Accent)),
	)

	grid.filter = textinput.New()
	grid.filter.Prompt = "/ "
	grid.filter.Placeholder = "filter"
	grid.filter.PromptStyle = lipgloss.NewStyle().Foreground(grid.theme.Accent)
	grid.filter.TextStyle = lipgloss.NewStyle().Foreground(grid.theme.NormalText)

	// The first page replaces the (empty) row set like any other.
	grid.refill = refill{active: true, target: 1, resetScroll: true}
	return grid, nil
}

// fetcher binds the grid's fetch function to one sort and filter.
func (grid *Grid[T]) fetcher(sorting []sorturl.Descriptor, filter string) infinite.FetchFunc[T] {
	fetch := grid.fetch
	return func(ctx context.Context, offset, pageSize int) (infinite.Page[T], error) {
		return fetch(ctx, Request{
			Offset:   offset,
			PageSize: pageSize,
			Sort:     sorting,
			Filter:   filter,
		})
	}
}

// Table returns the grid's row model.
func (grid *Grid[T]) Table() *Table[T] {
	return grid.table
}

// State returns the pagination state.
func (grid *Grid[T]) State() infinite.State {
	return grid.query.State()
}

// Route returns the sort route backing the grid's query parameters.
func (grid *Grid[T]) Route() *sorturl.Route {
	return grid.route
}

// Virtualizer exposes the row window, for tests and embedding views.
func (grid *Grid[T]) Virtualizer() *virtualizer.Virtualizer {
	return grid.virtualizer
}

// Cursor returns the selected row index.
func (grid *Grid[T]) Cursor() int {
	return grid.cursor
}

// Filter returns the current filter text.
func (grid *Grid[T]) Filter() string {
	return grid.filter.Value()
}

// SortTokens returns the current sort state in its query-string form.
func (grid *Grid[T]) SortTokens() []string {
	tokens, _ := grid.binder.Encode(grid.table.Sorting())
	return tokens
}

// Init implements tea.Model: fetches the first page and starts
// listening for live changes.
func (grid *Grid[T]) Init() tea.Cmd {
	commands := []tea.Cmd{grid.startFetch()}
	if grid.events != nil {
		commands = append(commands, listenForSourceEvent(grid.events))
	}
	return tea.Batch(commands...)
}

func listenForSourceEvent(channel <-chan gridsource.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-channel
		if !ok {
			return nil
		}
		return sourceEventMsg{event: event}
	}
}

// Update implements tea.Model.
func (grid *Grid[T]) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	var command tea.Cmd
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		grid.width = message.Width
		grid.height = message.Height
		grid.ready = true
		grid.help.Width = message.Width
		grid.filter.Width = max(message.Width-lipgloss.Width(grid.filter.Prompt)-1, 1)

	case tea.KeyMsg:
		command = grid.handleKey(message)

	case tea.MouseMsg:
		command = grid.handleMouse(message)

	case infinite.PageMsg[T]:
		command = grid.handlePage(message)

	case sourceEventMsg:
		command = grid.handleSourceEvent(message.event)

	case heatTickMsg:
		if grid.heat.HasHot(grid.clock.Now()) {
			command = scheduleHeatTick()
		} else {
			grid.tickRunning = false
		}

	case spinner.TickMsg:
		if !grid.query.State().IsFetching {
			grid.spinning = false
			break
		}
		grid.spinner, command = grid.spinner.Update(message)

	case logRecordMsg:
		grid.logSequence++
		grid.logSummary = message.summary
		grid.logLevel = message.level
		sequence := grid.logSequence
		command = tea.Tick(LogRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{sequence: sequence}
		})

	case logRecordFadeMsg:
		if message.sequence == grid.logSequence {
			grid.logSummary = ""
		}

	default:
		if grid.filtering {
			grid.filter, command = grid.filter.Update(message)
		}
	}
	grid.syncViewport()
	grid.layout()
	return grid, tea.Batch(command, grid.afterScroll())
}

// layout renders the body for the current state. Rendering registers
// row measurements, so it runs before the scroll controller looks at
// the content height.
func (grid *Grid[T]) layout() {
	if !grid.ready {
		return
	}
	grid.body = grid.renderBody()
}

// handleKey routes a key press to the open menu, the filter input or
// the grid itself.
func (grid *Grid[T]) handleKey(message tea.KeyMsg) tea.Cmd {
	if grid.menu != nil {
		return grid.handleMenuKey(message)
	}
	if grid.filtering {
		return grid.handleFilterKey(message)
	}

	var command tea.Cmd
	switch {
	case key.Matches(message, grid.keys.Quit):
		return tea.Quit

	case key.Matches(message, grid.keys.Up):
		grid.setCursor(grid.cursor - 1)

	case key.Matches(message, grid.keys.Down):
		grid.setCursor(grid.cursor + 1)

	case key.Matches(message, grid.keys.PageUp):
		top := grid.virtualizer.Start(grid.cursor) - grid.virtualizer.Viewport()
		grid.setCursor(grid.virtualizer.IndexAt(max(top, 0)))

	case key.Matches(message, grid.keys.PageDown):
		grid.setCursor(grid.virtualizer.IndexAt(grid.virtualizer.Start(grid.cursor) + grid.virtualizer.Viewport()))

	case key.Matches(message, grid.keys.Home):
		grid.setCursor(0)

	case key.Matches(message, grid.keys.End):
		grid.setCursor(grid.table.Len() - 1)

	case key.Matches(message, grid.keys.Left):
		grid.focusedColumn = (grid.focusedColumn - 1 + len(grid.table.Columns())) % len(grid.table.Columns())

	case key.Matches(message, grid.keys.Right):
		grid.focusedColumn = (grid.focusedColumn + 1) % len(grid.table.Columns())

	case key.Matches(message, grid.keys.Expand):
		grid.toggleExpanded(grid.cursor)

	case key.Matches(message, grid.keys.Sort):
		command = grid.toggleSort(grid.table.Columns()[grid.focusedColumn].ID)

	case key.Matches(message, grid.keys.SortMenu):
		grid.openSortMenu()

	case key.Matches(message, grid.keys.ClearSort):
		command = grid.applySorting(nil)

	case key.Matches(message, grid.keys.FilterActivate):
		grid.filtering = true
		command = grid.filter.Focus()

	case key.Matches(message, grid.keys.FilterClear):
		if grid.filter.Value() != "" {
			grid.filter.SetValue("")
			command = grid.resetQuery()
		}

	case key.Matches(message, grid.keys.Retry):
		command = grid.retry()

	case key.Matches(message, grid.keys.Help):
		grid.help.ShowAll = !grid.help.ShowAll
	}
	return command
}

// handleFilterKey edits the filter. Every change refetches.
func (grid *Grid[T]) handleFilterKey(message tea.KeyMsg) tea.Cmd {
	switch {
	case message.Type == tea.KeyCtrlC:
		return tea.Quit

	case key.Matches(message, grid.keys.FilterClear):
		if grid.filter.Value() != "" {
			grid.filter.SetValue("")
			return grid.resetQuery()
		}
		grid.filtering = false
		grid.filter.Blur()
		return nil

	case message.Type == tea.KeyEnter:
		grid.filtering = false
		grid.filter.Blur()
		return nil
	}

	previous := grid.filter.Value()
	var command tea.Cmd
	grid.filter, command = grid.filter.Update(message)
	if grid.filter.Value() == previous {
		return command
	}
	return tea.Batch(command, grid.resetQuery())
}

func (grid *Grid[T]) handleMenuKey(message tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(message, grid.keys.Up):
		grid.menu.MoveUp()
	case key.Matches(message, grid.keys.Down):
		grid.menu.MoveDown()
	case message.Type == tea.KeyEnter:
		option, ok := grid.menu.Selected()
		grid.menu = nil
		if ok {
			return grid.toggleSort(option.Value)
		}
	case message.Type == tea.KeyCtrlC:
		return tea.Quit
	case key.Matches(message, grid.keys.FilterClear), key.Matches(message, grid.keys.Quit),
		key.Matches(message, grid.keys.SortMenu):
		grid.menu = nil
	}
	return nil
}

func (grid *Grid[T]) handleMouse(message tea.MouseMsg) tea.Cmd {
	if message.Action != tea.MouseActionPress {
		return nil
	}
	switch message.Button {
	case tea.MouseButtonWheelUp:
		grid.virtualizer.ScrollBy(-wheelStep)
	case tea.MouseButtonWheelDown:
		grid.virtualizer.ScrollBy(wheelStep)
	case tea.MouseButtonLeft:
		if grid.menu != nil {
			grid.menu = nil
			return nil
		}
		if message.Y == 0 {
			if column, ok := grid.columnAt(message.X); ok {
				return grid.toggleSort(column)
			}
			return nil
		}
		bodyY := message.Y - grid.bodyTop()
		if bodyY < 0 || bodyY >= grid.virtualizer.Viewport() || grid.table.Len() == 0 {
			return nil
		}
		index := grid.virtualizer.IndexAt(grid.virtualizer.ScrollOffset() + bodyY)
		if index == grid.cursor {
			grid.toggleExpanded(index)
		} else {
			grid.cursor = index
			grid.selectedKey = grid.table.Key(index)
		}
	}
	return nil
}

// setCursor selects row index, clamped, and scrolls it into view.
func (grid *Grid[T]) setCursor(index int) {
	if grid.table.Len() == 0 {
		grid.cursor = 0
		grid.selectedKey = ""
		return
	}
	grid.cursor = max(0, min(index, grid.table.Len()-1))
	grid.selectedKey = grid.table.Key(grid.cursor)
	grid.virtualizer.ScrollToIndex(grid.cursor, virtualizer.AlignAuto)
}

// restoreCursor keeps the selection on the same row key after the row
// set changed, falling back to the same index.
func (grid *Grid[T]) restoreCursor() {
	if index, ok := grid.table.IndexOf(grid.selectedKey); ok {
		grid.cursor = index
		return
	}
	grid.cursor = max(0, min(grid.cursor, grid.table.Len()-1))
	grid.selectedKey = grid.table.Key(grid.cursor)
}

func (grid *Grid[T]) toggleExpanded(index int) {
	if grid.renderExpansion == nil {
		return
	}
	rowKey := grid.table.Key(index)
	if rowKey == "" {
		return
	}
	grid.table.ToggleExpanded(rowKey)
}

func (grid *Grid[T]) toggleSort(fieldID string) tea.Cmd {
	column, ok := grid.table.Column(fieldID)
	if !ok || !column.Sortable() {
		return nil
	}
	return grid.applySorting(sorturl.Toggle(grid.table.Sorting(), fieldID, grid.policy))
}

// applySorting replaces the sort state, writes it to the query
// parameters and refetches.
func (grid *Grid[T]) applySorting(descriptors []sorturl.Descriptor) tea.Cmd {
	if err := grid.table.SetSorting(descriptors); err != nil {
		grid.logger.Warn("sort not applied", "error", err)
	}
	if err := grid.route.SetSorting(grid.table.Sorting()); err != nil {
		grid.logger.Warn("sort not written to query", "error", err)
	}
	return grid.resetQuery()
}

func (grid *Grid[T]) openSortMenu() {
	menu := &tui.Menu{Title: "Sort by", AnchorX: 2, AnchorY: 1}
	for _, column := range grid.table.Columns() {
		if !column.Sortable() {
			continue
		}
		label := column.title()
		if direction, position := grid.table.SortPosition(column.ID); position > 0 {
			label += " " + sortIndicator(direction, position, len(grid.table.Sorting()))
		}
		if column.ID == grid.table.Columns()[grid.focusedColumn].ID {
			menu.Cursor = len(menu.Options)
		}
		menu.Options = append(menu.Options, tui.MenuOption{Label: label, Value: column.ID})
	}
	if len(menu.Options) == 0 {
		return
	}
	grid.menu = menu
}

// resetQuery switches the query to the current sort and filter. The
// rows on screen stay until the first page of the new ordering
// arrives.
func (grid *Grid[T]) resetQuery() tea.Cmd {
	sorting := grid.table.Sorting()
	filter := grid.filter.Value()
	changed, err := grid.query.Reset(queryKey{Sort: sorting, Filter: filter}, grid.fetcher(sorting, filter))
	if err != nil {
		grid.logger.Error("resetting query", "error", err)
		return nil
	}
	if !changed {
		return nil
	}
	grid.refill = refill{active: true, target: 1, resetScroll: true}
	grid.controller.Rearm()
	return grid.startFetch()
}

// handleSourceEvent refetches everything loaded, highlighting the
// changed row once the new data is on screen.
func (grid *Grid[T]) handleSourceEvent(event gridsource.Event) tea.Cmd {
	now := grid.clock.Now()
	switch event.Kind {
	case gridsource.EventPut:
		grid.heat.Ignite(event.Key, tui.HeatPut, now)
	case gridsource.EventRemove:
		grid.heat.Ignite(event.Key, tui.HeatRemove, now)
	}
	grid.logger.Debug("source changed", "kind", string(event.Kind), "key", event.Key)

	target := max(grid.table.Len(), grid.refill.target, 1)
	resetScroll := grid.refill.active && grid.refill.resetScroll
	grid.query.Invalidate()
	grid.refill = refill{active: true, target: target, resetScroll: resetScroll}
	grid.controller.Rearm()

	commands := []tea.Cmd{grid.startFetch()}
	if grid.events != nil {
		commands = append(commands, listenForSourceEvent(grid.events))
	}
	if event.Kind != gridsource.EventReset && !grid.tickRunning {
		grid.tickRunning = true
		commands = append(commands, scheduleHeatTick())
	}
	return tea.Batch(commands...)
}

func scheduleHeatTick() tea.Cmd {
	return tea.Tick(tui.HeatTickInterval, func(time.Time) tea.Msg {
		return heatTickMsg{}
	})
}

// handlePage applies a fetched page. During a refill further pages
// are requested until the target is reached, then the new rows
// replace the old ones in one step.
func (grid *Grid[T]) handlePage(message infinite.PageMsg[T]) tea.Cmd {
	if !grid.query.Complete(message.Request, message.Page, message.Err) {
		return nil
	}
	state := grid.query.State()
	if message.Err != nil {
		grid.logger.Warn("page fetch failed", "offset", message.Request.Offset, "error", message.Err)
	}
	if grid.refill.active {
		if state.Err == nil && state.HasNextPage && state.FetchedCount < grid.refill.target {
			return grid.startFetch()
		}
		grid.swapRows()
		return nil
	}
	grid.table.SetRows(grid.query.Rows())
	grid.virtualizer.SetCount(grid.table.Len())
	grid.restoreCursor()
	return nil
}

// swapRows replaces the row model with the query's rows. Measurements
// are keyed by index, so they no longer describe the new rows.
func (grid *Grid[T]) swapRows() {
	resetScroll := grid.refill.resetScroll
	grid.refill = refill{}
	grid.table.SetRows(grid.query.Rows())
	grid.cache.Reset()
	grid.virtualizer.SetCount(grid.table.Len())
	if resetScroll {
		grid.cursor = 0
		grid.selectedKey = grid.table.Key(0)
		grid.virtualizer.SetScrollOffset(0)
		return
	}
	grid.restoreCursor()
	grid.virtualizer.SetScrollOffset(grid.virtualizer.ScrollOffset())
}

func (grid *Grid[T]) retry() tea.Cmd {
	if grid.query.State().Err == nil {
		return nil
	}
	request, ok := grid.query.Retry()
	if !ok {
		return nil
	}
	grid.controller.Rearm()
	return tea.Batch(infinite.FetchCmd(grid.ctx, grid.query, request), grid.startSpinner())
}

// startFetch begins the next page fetch if the query allows one. A
// fetch after a failure clears the error shown in the status bar.
func (grid *Grid[T]) startFetch() tea.Cmd {
	begin := grid.query.Begin
	if grid.query.State().Err != nil {
		begin = grid.query.Retry
	}
	request, ok := begin()
	if !ok {
		return nil
	}
	return tea.Batch(infinite.FetchCmd(grid.ctx, grid.query, request), grid.startSpinner())
}

func (grid *Grid[T]) startSpinner() tea.Cmd {
	if grid.spinning {
		return nil
	}
	grid.spinning = true
	return grid.spinner.Tick
}

// afterScroll feeds the current scroll position to the infinite
// scroll controller and starts a fetch when it asks for one. The
// controller holds back a failed fetch until the user scrolls again.
func (grid *Grid[T]) afterScroll() tea.Cmd {
	if !grid.ready || grid.refill.active {
		return nil
	}
	grid.fetchRequested = false
	grid.controller.OnScroll(grid.scrollMetrics())
	if !grid.fetchRequested {
		return nil
	}
	return grid.startFetch()
}

func (grid *Grid[T]) scrollMetrics() infinite.Metrics {
	return infinite.Metrics{
		ScrollHeight: grid.virtualizer.TotalSize(),
		ScrollTop:    grid.virtualizer.ScrollOffset(),
		ClientHeight: grid.virtualizer.Viewport(),
	}
}
