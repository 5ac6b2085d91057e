// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datagrid

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the grid's key bindings.
type KeyMap struct {
	// Row cursor.
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	// Column focus, for sorting from the keyboard.
	Left  key.Binding
	Right key.Binding

	Expand    key.Binding // Toggle the cursor row's expansion panel.
	Sort      key.Binding // Toggle sorting on the focused column.
	SortMenu  key.Binding // Open the sort column menu.
	ClearSort key.Binding

	// Filter.
	FilterActivate key.Binding
	FilterClear    key.Binding

	Retry key.Binding // Refetch after a failed page.
	Help  key.Binding // Toggle the full help.
	Quit  key.Binding
}

// DefaultKeyMap is the built-in key binding set: vim-style movement
// alongside the arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "prev column"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "next column"),
	),
	Expand: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("⏎", "expand"),
	),
	Sort: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sort"),
	),
	SortMenu: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "sort menu"),
	),
	ClearSort: key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "clear sort"),
	),
	FilterActivate: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	FilterClear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "clear"),
	),
	Retry: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "retry"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (keys KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.Down, keys.Expand, keys.Sort, keys.FilterActivate, keys.Help, keys.Quit}
}

// FullHelp implements help.KeyMap.
func (keys KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.Up, keys.Down, keys.PageUp, keys.PageDown, keys.Home, keys.End},
		{keys.Left, keys.Right, keys.Sort, keys.SortMenu, keys.ClearSort},
		{keys.Expand, keys.FilterActivate, keys.FilterClear, keys.Retry, keys.Quit},
	}
}
