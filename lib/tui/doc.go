// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides the terminal building blocks shared by gridkit's
// interactive views: the color theme, the line-based scrollbar, fuzzy
// matching on fzf's algorithm, markdown rendering for detail panels,
// and change highlighting for live-updated rows.
//
// Nothing here knows about virtualization or pagination. The datagrid
// package composes these pieces with the virtualizer and the infinite
// query.
package tui
