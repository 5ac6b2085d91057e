// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for gridkit packages.
//
// [RequireReceive] and [RequireEventually] wrap the
// select-with-timeout pattern so tests never hang on a missed event.
// They are the only helpers that use the wall clock; code under test
// takes an injectable clock from lib/clock.
//
// [SocketDir] returns a short directory for unix sockets. [WriteFile]
// and [ReplaceFile] modify watched files the two ways real tools do:
// in place, and by atomic rename.
//
// All helpers call t.Fatalf on failure.
package testutil
