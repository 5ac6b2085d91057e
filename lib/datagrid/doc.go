// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package datagrid is a virtualized, server-synchronized data grid
// for bubbletea programs.
//
// A [Grid] composes the pieces from the sibling packages: a [Table]
// holding the row model, expansion set and sort state; a
// [virtualizer.Virtualizer] and its measurement cache deciding which
// rows are painted and where; an [infinite.Query] accumulating pages
// from the caller's fetch function; and an [infinite.Controller]
// requesting the next page as the viewport nears the end of the loaded
// rows. Sort state round-trips through a [sorturl.Route] so the
// current ordering can be reproduced from a query string.
//
// Rows are painted by a [RowRenderer]. Each call receives a
// [RowPositioning] describing the row's place in the grid body,
// including the Ref callback through which the renderer reports the
// height of what it drew. Calling a renderer outside a grid body,
// with a zero RowPositioning, panics.
//
// In virtualized mode only the rows intersecting the viewport (plus
// overscan) are rendered, each painted onto a line canvas at the
// offset the virtualizer computed, with expansion panels painted
// directly below their row. In flow mode every loaded row is rendered
// in order and panels follow their rows in the document.
//
// [Grid.Update] handles keyboard and mouse input through a [KeyMap]
// of bubbles key bindings, page results ([infinite.PageMsg]), live
// change events from a [gridsource.Subscriber], and log records from
// a [TUILogHandler].
package datagrid
