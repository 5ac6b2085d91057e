// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark/ast"
)

func TestRenderMarkdownPlain(t *testing.T) {
	input := "# Title\n\nFirst line\ncontinues here.\n\n- one\n- two\n\n```go\nx := 1\n```\n"
	rendered, err := RenderMarkdownPlain(input, 40)
	if err != nil {
		t.Fatalf("RenderMarkdownPlain: %v", err)
	}

	for _, want := range []string{"# Title", "First line continues here.", "• one", "• two", "  x := 1"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("rendered output missing %q:\n%s", want, rendered)
		}
	}
	if strings.Contains(rendered, "\x1b[") {
		t.Error("plain rendering contains escape sequences")
	}
}

func TestRenderMarkdownWraps(t *testing.T) {
	input := strings.Repeat("word ", 30)
	rendered, _ := RenderMarkdownPlain(input, 20)
	for index, line := range strings.Split(rendered, "\n") {
		if width := ansi.StringWidth(line); width > 20 {
			t.Errorf("line %d is %d columns wide: %q", index, width, line)
		}
	}
}

func TestRenderMarkdownStyled(t *testing.T) {
	rendered, err := RenderMarkdown("Some **bold** text and `code`.", DefaultTheme, 60)
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	if !strings.Contains(rendered, "\x1b[") {
		t.Fatal("styled rendering has no escape sequences")
	}
	if plain := ansi.Strip(rendered); !strings.Contains(plain, "Some bold text and code.") {
		t.Fatalf("stripped output = %q", plain)
	}
}

func TestRenderMarkdownEmpty(t *testing.T) {
	if rendered, err := RenderMarkdown("   \n", DefaultTheme, 40); rendered != "" || err != nil {
		t.Fatalf("blank input rendered %q, %v", rendered, err)
	}
}

func TestRenderMarkdownWalkErrorFallsBackToSource(t *testing.T) {
	input := "Intro paragraph.\n\n```sh\nrm -rf build\n```\n"
	renderer := &markdownRenderer{
		source: []byte(input),
		theme:  DefaultTheme,
		width:  40,
		lip:    lipgloss.NewRenderer(io.Discard, termenv.WithProfile(termenv.Ascii)),
	}
	failure := errors.New("unsupported block")
	rendered, err := renderer.render(func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if node.Kind() == ast.KindFencedCodeBlock {
			return ast.WalkStop, failure
		}
		return renderer.walk(node, entering)
	})
	if !errors.Is(err, failure) {
		t.Fatalf("render error = %v, want %v", err, failure)
	}
	if !strings.Contains(rendered, "Intro paragraph.") || !strings.Contains(rendered, "rm -rf build") {
		t.Fatalf("fallback = %q, want the source text", rendered)
	}
}
