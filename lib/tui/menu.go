// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// MenuOption is one selectable entry in a [Menu].
type MenuOption struct {
	Label string
	Value string
}

// Menu is a floating pick list anchored at a screen position. The
// owning model routes keys to it while it is open and splices its
// lines over the view with [SpliceOverlay].
type Menu struct {
	Title   string
	Options []MenuOption
	Cursor  int
	AnchorX int
	AnchorY int
}

// MoveUp moves the cursor up, wrapping to the bottom.
func (menu *Menu) MoveUp() {
	if len(menu.Options) == 0 {
		return
	}
	menu.Cursor = (menu.Cursor - 1 + len(menu.Options)) % len(menu.Options)
}

// MoveDown moves the cursor down, wrapping to the top.
func (menu *Menu) MoveDown() {
	if len(menu.Options) == 0 {
		return
	}
	menu.Cursor = (menu.Cursor + 1) % len(menu.Options)
}

// Selected returns the highlighted option.
func (menu *Menu) Selected() (MenuOption, bool) {
	if menu.Cursor < 0 || menu.Cursor >= len(menu.Options) {
		return MenuOption{}, false
	}
	return menu.Options[menu.Cursor], true
}

// Width is the rendered width in columns: a three-column marker
// gutter, the widest label, and one column of padding.
func (menu *Menu) Width() int {
	widest := ansi.StringWidth(menu.Title)
	for _, option := range menu.Options {
		widest = max(widest, ansi.StringWidth(option.Label))
	}
	return 3 + widest + 1
}

// Render produces equal-width lines with a solid background. The
// highlighted option uses the selection colors.
func (menu *Menu) Render(theme Theme) []string {
	width := menu.Width()
	background := lipgloss.NewStyle().Background(theme.PanelBackground).Foreground(theme.NormalText)
	selected := lipgloss.NewStyle().Background(theme.SelectedBackground).Foreground(theme.SelectedForeground)
	title := background.Bold(true).Foreground(theme.HeaderForeground)

	pad := func(content string) string {
		return content + strings.Repeat(" ", max(width-ansi.StringWidth(content), 0))
	}

	lines := make([]string, 0, len(menu.Options)+1)
	if menu.Title != "" {
		lines = append(lines, title.Render(pad(" "+menu.Title)))
	}
	for index, option := range menu.Options {
		if index == menu.Cursor {
			lines = append(lines, selected.Render(pad(" > "+option.Label)))
			continue
		}
		lines = append(lines, background.Render(pad("   "+option.Label)))
	}
	return lines
}
