// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for gridkit's terminal views. All
// colors are ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Header row and sort indicators.
	HeaderForeground lipgloss.Color
	SortIndicator    lipgloss.Color

	// Chrome.
	BorderColor lipgloss.Color
	HelpText    lipgloss.Color
	Accent      lipgloss.Color
	ErrorText   lipgloss.Color

	// Expansion panel background and left rule.
	PanelBackground lipgloss.Color
	PanelRule       lipgloss.Color

	// Change highlighting: background tint for rows updated or
	// removed by a live source.
	HotAccentPut    lipgloss.Color
	HotAccentRemove lipgloss.Color

	// Background for characters matched by the filter.
	MatchHighlight lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	HeaderForeground: lipgloss.Color("255"),
	SortIndicator:    lipgloss.Color("75"),

	BorderColor: lipgloss.Color("240"),
	HelpText:    lipgloss.Color("241"),
	Accent:      lipgloss.Color("220"),
	ErrorText:   lipgloss.Color("196"),

	PanelBackground: lipgloss.Color("234"),
	PanelRule:       lipgloss.Color("75"),

	HotAccentPut:    lipgloss.Color("58"),
	HotAccentRemove: lipgloss.Color("52"),

	MatchHighlight: lipgloss.Color("58"),
}
