// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package infinite

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// PageMsg carries a completed fetch back into the bubbletea message
// loop. The receiving model passes it to Query.Complete.
type PageMsg[T any] struct {
	Request Request
	Page    Page[T]
	Err     error
}

// FetchCmd runs request against query's current fetch function off
// the event loop. The fetch function is captured when FetchCmd is
// called, which must be immediately after the Begin that produced
// request.
func FetchCmd[T any](ctx context.Context, query *Query[T], request Request) tea.Cmd {
	fetch := query.Fetcher()
	return func() tea.Msg {
		page, err := fetch(ctx, request.Offset, request.PageSize)
		return PageMsg[T]{Request: request, Page: page, Err: err}
	}
}
