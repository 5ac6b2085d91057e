// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdownParser     goldmark.Markdown
	markdownParserOnce sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParser
}

// RenderMarkdown renders markdown as styled terminal text wrapped to
// width. Soft line breaks become spaces so hard-wrapped source reflows.
// Fenced code blocks are highlighted with chroma. The output always
// uses the 256-color profile: it is only ever painted inside a
// bubbletea view, and auto-detection would strip color in tests.
//
// When rendering fails the error is returned together with the source
// text wrapped to width, which callers can show instead.
func RenderMarkdown(input string, theme Theme, width int) (string, error) {
	return renderMarkdown(input, theme, width, termenv.ANSI256, io.Discard)
}

// RenderMarkdownPlain renders markdown without color, for dumb
// terminals and for measuring. Errors are reported as by
// RenderMarkdown.
func RenderMarkdownPlain(input string, width int) (string, error) {
	return renderMarkdown(input, DefaultTheme, width, termenv.Ascii, io.Discard)
}

func renderMarkdown(input string, theme Theme, width int, profile termenv.Profile, writer io.Writer) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", nil
	}
	width = max(width, 8)
	source := []byte(input)

	lipRenderer := lipgloss.NewRenderer(writer, termenv.WithProfile(profile))
	lipRenderer.SetColorProfile(profile)

	renderer := &markdownRenderer{
		source:   source,
		theme:    theme,
		width:    width,
		lip:      lipRenderer,
		colorful: profile != termenv.Ascii,
	}
	return renderer.render(renderer.walk)
}

// render parses the source and walks it with walk, which is normally
// renderer.walk.
func (renderer *markdownRenderer) render(walk ast.Walker) (string, error) {
	document := getMarkdownParser().Parser().Parse(text.NewReader(renderer.source))
	if err := ast.Walk(document, walk); err != nil {
		fallback := ansi.Wordwrap(strings.TrimSpace(string(renderer.source)), renderer.width, "")
		return fallback, fmt.Errorf("tui: rendering markdown: %w", err)
	}
	return strings.TrimRight(renderer.output.String(), "\n"), nil
}

// markdownRenderer walks the goldmark AST directly. Inline content
// accumulates until its block closes and is then wrapped as a unit,
// which goldmark's streaming renderer interface does not allow.
type markdownRenderer struct {
	source   []byte
	theme    Theme
	width    int
	lip      *lipgloss.Renderer
	colorful bool

	output strings.Builder
	inline strings.Builder

	// prefix is prepended to every emitted line (blockquote bars and
	// list indentation). bullet replaces it for the next line only.
	prefix []string
	bullet string

	bold, italic, strike int
	lists                []listState
}

type listState struct {
	ordered bool
	counter int
}

func (renderer *markdownRenderer) style() lipgloss.Style {
	return renderer.lip.NewStyle()
}

func (renderer *markdownRenderer) prefixText() string {
	return strings.Join(renderer.prefix, "")
}

// emit wraps block text to the available width and writes it with the
// current prefixes.
func (renderer *markdownRenderer) emit(block string) {
	prefix := renderer.prefixText()
	available := max(renderer.width-ansi.StringWidth(prefix), 4)
	wrapped := ansi.Wordwrap(block, available, "")
	for _, line := range strings.Split(wrapped, "\n") {
		linePrefix := prefix
		if renderer.bullet != "" {
			linePrefix = renderer.bullet
			renderer.bullet = ""
		}
		renderer.output.WriteString(strings.TrimRight(linePrefix+line, " "))
		renderer.output.WriteByte('\n')
	}
}

func (renderer *markdownRenderer) blankLine() {
	current := renderer.output.String()
	if current == "" || strings.HasSuffix(current, "\n\n") {
		return
	}
	renderer.output.WriteByte('\n')
}

func (renderer *markdownRenderer) flush() {
	block := renderer.inline.String()
	renderer.inline.Reset()
	if block != "" {
		renderer.emit(block)
	}
}

func (renderer *markdownRenderer) styledText(content string) string {
	if !renderer.colorful {
		return content
	}
	if renderer.bold == 0 && renderer.italic == 0 && renderer.strike == 0 {
		return renderer.style().Foreground(renderer.theme.NormalText).Render(content)
	}
	style := renderer.style().Foreground(renderer.theme.NormalText)
	if renderer.bold > 0 {
		style = style.Bold(true)
	}
	if renderer.italic > 0 {
		style = style.Italic(true)
	}
	if renderer.strike > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

func (renderer *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := node.(type) {
	case *ast.Document:

	case *ast.Heading:
		if entering {
			renderer.blankLine()
			return ast.WalkContinue, nil
		}
		heading := renderer.inline.String()
		renderer.inline.Reset()
		if renderer.colorful {
			heading = renderer.style().Bold(true).Foreground(renderer.theme.HeaderForeground).Render(ansi.Strip(heading))
		} else {
			heading = strings.Repeat("#", node.Level) + " " + heading
		}
		renderer.emit(heading)
		renderer.blankLine()

	case *ast.Paragraph, *ast.TextBlock:
		if !entering {
			renderer.flush()
			if _, tight := node.(*ast.TextBlock); !tight {
				renderer.blankLine()
			}
		}

	case *ast.Blockquote:
		if entering {
			renderer.blankLine()
			bar := "│ "
			if renderer.colorful {
				bar = renderer.style().Foreground(renderer.theme.BorderColor).Render("│") + " "
			}
			renderer.prefix = append(renderer.prefix, bar)
		} else {
			renderer.prefix = renderer.prefix[:len(renderer.prefix)-1]
			renderer.blankLine()
		}

	case *ast.List:
		if entering {
			renderer.lists = append(renderer.lists, listState{ordered: node.IsOrdered(), counter: node.Start})
		} else {
			renderer.lists = renderer.lists[:len(renderer.lists)-1]
			if len(renderer.lists) == 0 {
				renderer.blankLine()
			}
		}

	case *ast.ListItem:
		if entering {
			list := &renderer.lists[len(renderer.lists)-1]
			marker := "• "
			if list.ordered {
				marker = strconv.Itoa(list.counter) + ". "
				list.counter++
			}
			indent := strings.Repeat(" ", ansi.StringWidth(marker))
			renderer.bullet = renderer.prefixText() + marker
			renderer.prefix = append(renderer.prefix, indent)
		} else {
			renderer.flush()
			renderer.prefix = renderer.prefix[:len(renderer.prefix)-1]
		}

	case *ast.FencedCodeBlock:
		if entering {
			renderer.codeBlock(renderer.lines(node), string(node.Language(renderer.source)))
		}
		return ast.WalkSkipChildren, nil

	case *ast.CodeBlock:
		if entering {
			renderer.codeBlock(renderer.lines(node), "")
		}
		return ast.WalkSkipChildren, nil

	case *ast.ThematicBreak:
		if entering {
			renderer.blankLine()
			rule := strings.Repeat("─", max(renderer.width-ansi.StringWidth(renderer.prefixText()), 1))
			if renderer.colorful {
				rule = renderer.style().Foreground(renderer.theme.BorderColor).Render(rule)
			}
			renderer.emit(rule)
			renderer.blankLine()
		}

	case *ast.Text:
		if entering {
			renderer.inline.WriteString(renderer.styledText(string(node.Segment.Value(renderer.source))))
			if node.SoftLineBreak() {
				renderer.inline.WriteString(" ")
			}
			if node.HardLineBreak() {
				renderer.flush()
			}
		}

	case *ast.String:
		if entering {
			renderer.inline.WriteString(renderer.styledText(string(node.Value)))
		}

	case *ast.Emphasis:
		delta := 1
		if !entering {
			delta = -1
		}
		if node.Level >= 2 {
			renderer.bold += delta
		} else {
			renderer.italic += delta
		}

	case *ast.CodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(renderer.source))
				}
			}
			content := code.String()
			if renderer.colorful {
				content = renderer.style().Foreground(renderer.theme.Accent).Render(content)
			} else {
				content = "`" + content + "`"
			}
			renderer.inline.WriteString(content)
		}
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		if !entering {
			destination := string(node.Destination)
			if renderer.colorful {
				destination = renderer.style().Foreground(renderer.theme.FaintText).Render(destination)
			}
			renderer.inline.WriteString(" (" + destination + ")")
		}

	case *ast.AutoLink:
		if entering {
			renderer.inline.WriteString(renderer.styledText(string(node.URL(renderer.source))))
		}
		return ast.WalkSkipChildren, nil

	case *ast.HTMLBlock, *ast.RawHTML:
		return ast.WalkSkipChildren, nil

	case *extast.Strikethrough:
		if entering {
			renderer.strike++
		} else {
			renderer.strike--
		}
	}
	return ast.WalkContinue, nil
}

func (renderer *markdownRenderer) lines(node ast.Node) string {
	var code strings.Builder
	segments := node.Lines()
	for index := 0; index < segments.Len(); index++ {
		segment := segments.At(index)
		code.Write(segment.Value(renderer.source))
	}
	return code.String()
}

func (renderer *markdownRenderer) codeBlock(code, language string) {
	renderer.flush()
	renderer.blankLine()
	rendered := code
	if renderer.colorful {
		var buffer strings.Builder
		if language == "" || quick.Highlight(&buffer, code, language, "terminal256", "monokai") != nil {
			rendered = renderer.style().Foreground(renderer.theme.FaintText).Render(code)
		} else {
			rendered = buffer.String()
		}
	}
	prefix := renderer.prefixText()
	for _, line := range strings.Split(strings.TrimRight(rendered, "\n"), "\n") {
		renderer.output.WriteString(prefix + "  " + line + "\n")
	}
	renderer.blankLine()
}
