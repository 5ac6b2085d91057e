// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Code that stamps or waits on time holds a Clock field instead of
// calling the time package directly:
//
//	watcher := &jsonlWatcher{clock: clock.Real()}
//
// Tests substitute a FakeClock, whose time moves only when Advance is
// called:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	fake.WaitForTimers(1)
//	fake.Advance(50 * time.Millisecond)
//
// WaitForTimers closes the race between a goroutine registering a
// timer and the test advancing past it.
package clock
