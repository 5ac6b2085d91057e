// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestMenuNavigation(t *testing.T) {
	menu := Menu{Options: []MenuOption{{Label: "Name", Value: "name"}, {Label: "Age", Value: "age"}}}
	menu.MoveUp()
	if option, _ := menu.Selected(); option.Value != "age" {
		t.Fatalf("MoveUp from top selected %q, want wrap to age", option.Value)
	}
	menu.MoveDown()
	if option, _ := menu.Selected(); option.Value != "name" {
		t.Fatalf("MoveDown from bottom selected %q, want wrap to name", option.Value)
	}

	var empty Menu
	empty.MoveDown()
	if _, ok := empty.Selected(); ok {
		t.Fatal("empty menu reported a selection")
	}
}

func TestMenuRenderWidths(t *testing.T) {
	menu := Menu{Title: "Sort by", Options: []MenuOption{{Label: "Name"}, {Label: "Created at"}}, Cursor: 1}
	lines := menu.Render(DefaultTheme)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for index, line := range lines {
		if width := ansi.StringWidth(line); width != menu.Width() {
			t.Errorf("line %d width = %d, want %d", index, width, menu.Width())
		}
	}
	if !strings.Contains(ansi.Strip(lines[2]), "> Created at") {
		t.Errorf("cursor line = %q", ansi.Strip(lines[2]))
	}
}

func TestSpliceOverlay(t *testing.T) {
	view := "aaaaaa\nbbbbbb\ncccccc"
	spliced := SpliceOverlay(view, []string{"XX", "YY", "ZZ"}, 2, 1)
	lines := strings.Split(ansi.Strip(spliced), "\n")
	want := []string{"aaaaaa", "bbXXbb", "ccYYcc"}
	for index := range want {
		if lines[index] != want[index] {
			t.Errorf("line %d = %q, want %q", index, lines[index], want[index])
		}
	}
}

func TestFitWidth(t *testing.T) {
	if got := FitWidth("abc", 5); got != "abc  " {
		t.Errorf("pad = %q", got)
	}
	if got := FitWidth("abcdef", 4); ansi.StringWidth(got) != 4 || !strings.HasSuffix(got, "…") {
		t.Errorf("truncate = %q", got)
	}
	if got := FitWidth("abc", 0); got != "" {
		t.Errorf("zero width = %q", got)
	}
}
