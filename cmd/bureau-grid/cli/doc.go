// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli holds the command-line plumbing shared by gridkit
// binaries: categorized errors with hints, silent exit codes, and
// logger construction for commands that may hand the terminal to a
// TUI.
package cli
