// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// TB is the part of testing.TB the helpers need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive reads one value from ch within timeout, or fails the
// test. A closed channel is a failure too.
//
//	event := testutil.RequireReceive(t, events, 5*time.Second, "put event for %s", key)
func RequireReceive[T any](t TB, ch <-chan T, timeout time.Duration, msgAndArgs ...any) T {
	t.Helper()
	timer := time.NewTimer(timeout) //nolint:realclock test hang prevention
	defer timer.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while waiting for %s", describe(msgAndArgs))
		}
		return value
	case <-timer.C:
		t.Fatalf("no value after %v while waiting for %s", timeout, describe(msgAndArgs))
	}
	var zero T
	return zero
}

// RequireClosed waits up to timeout for ch to be closed, discarding
// values still buffered in it. Use it to check that a subscription
// ended.
func RequireClosed[T any](t TB, ch <-chan T, timeout time.Duration, msgAndArgs ...any) {
	t.Helper()
	timer := time.NewTimer(timeout) //nolint:realclock test hang prevention
	defer timer.Stop()
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timer.C:
			t.Fatalf("channel still open after %v: %s", timeout, describe(msgAndArgs))
			return
		}
	}
}

// RequireEventually polls condition every interval until it holds,
// failing the test after timeout. Use it for state behind another
// goroutine, such as a server that is still binding its socket.
func RequireEventually(t TB, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()
	ticker := time.NewTicker(interval) //nolint:realclock test hang prevention
	defer ticker.Stop()
	timer := time.NewTimer(timeout) //nolint:realclock test hang prevention
	defer timer.Stop()
	for !condition() {
		select {
		case <-ticker.C:
		case <-timer.C:
			t.Fatalf("condition still false after %v: %s", timeout, describe(msgAndArgs))
			return
		}
	}
}

// describe renders an optional message: nothing, a single value, or
// a format string followed by its arguments.
func describe(msgAndArgs []any) string {
	switch {
	case len(msgAndArgs) == 0:
		return "(no message)"
	case len(msgAndArgs) == 1:
		return fmt.Sprint(msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}
