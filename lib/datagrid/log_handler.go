// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datagrid

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg carries one log record into the grid's status line.
type logRecordMsg struct {
	summary string
	level   slog.Level
}

// logRecordFadeMsg clears a log record from the status line.
// sequence matches the record it was scheduled for, so a newer record
// is not cleared early.
type logRecordFadeMsg struct {
	sequence uint64
}

// LogRecordFadeDelay is how long a log record stays in the status
// line.
const LogRecordFadeDelay = 5 * time.Second

// Sender delivers messages into a running bubbletea program.
// *tea.Program implements it.
type Sender interface {
	Send(tea.Msg)
}

// TUILogHandler is a slog.Handler that shows records in the grid's
// status line while the grid owns the terminal. Records are dropped
// until SetProgram is called. Handlers derived with WithAttrs and
// WithGroup share the program, so one SetProgram reaches all of them.
type TUILogHandler struct {
	level   slog.Leveler
	program *atomic.Pointer[Sender]
	attrs   []string
	prefix  string
}

// NewTUILogHandler creates a handler for records at or above level.
func NewTUILogHandler(level slog.Leveler) *TUILogHandler {
	return &TUILogHandler{
		level:   level,
		program: &atomic.Pointer[Sender]{},
	}
}

// SetProgram starts delivery to program. Safe from any goroutine.
func (handler *TUILogHandler) SetProgram(program Sender) {
	handler.program.Store(&program)
}

// Enabled implements slog.Handler.
func (handler *TUILogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level.Level()
}

// Handle formats the record as "message (key=value, ...)" and sends it
// to the program.
func (handler *TUILogHandler) Handle(_ context.Context, record slog.Record) error {
	program := handler.program.Load()
	if program == nil {
		return nil
	}
	parts := slices.Clone(handler.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		parts = appendAttr(parts, handler.prefix, attr)
		return true
	})
	summary := record.Message
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	(*program).Send(logRecordMsg{summary: summary, level: record.Level})
	return nil
}

// WithAttrs implements slog.Handler.
func (handler *TUILogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := *handler
	derived.attrs = slices.Clone(handler.attrs)
	for _, attr := range attrs {
		derived.attrs = appendAttr(derived.attrs, handler.prefix, attr)
	}
	return &derived
}

// WithGroup implements slog.Handler.
func (handler *TUILogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	derived := *handler
	derived.attrs = slices.Clone(handler.attrs)
	derived.prefix = handler.prefix + name + "."
	return &derived
}

func appendAttr(parts []string, prefix string, attr slog.Attr) []string {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return parts
	}
	if attr.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix += attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			parts = appendAttr(parts, groupPrefix, member)
		}
		return parts
	}
	return append(parts, prefix+attr.Key+"="+attr.Value.String())
}
