// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock is a Clock for tests whose time only moves on Advance. It
// is safe for concurrent use.
type FakeClock struct {
	mutex   sync.Mutex
	now     time.Time
	pending []alarm
	added   *sync.Cond
}

// alarm is one outstanding After call.
type alarm struct {
	due     time.Time
	channel chan time.Time
}

// Fake returns a FakeClock reading initial.
func Fake(initial time.Time) *FakeClock {
	fake := &FakeClock{now: initial}
	fake.added = sync.NewCond(&fake.mutex)
	return fake
}

// Now returns the fake time.
func (fake *FakeClock) Now() time.Time {
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	return fake.now
}

// After returns a channel that receives once the clock has been
// advanced by at least d.
func (fake *FakeClock) After(d time.Duration) <-chan time.Time {
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- fake.now
		return channel
	}
	fake.pending = append(fake.pending, alarm{due: fake.now.Add(d), channel: channel})
	fake.added.Broadcast()
	return channel
}

// Advance moves the clock forward by d and delivers every alarm that
// came due, earliest first.
func (fake *FakeClock) Advance(d time.Duration) {
	fake.mutex.Lock()
	fake.now = fake.now.Add(d)
	now := fake.now
	var due []alarm
	fake.pending = slices.DeleteFunc(fake.pending, func(pending alarm) bool {
		if pending.due.After(now) {
			return false
		}
		due = append(due, pending)
		return true
	})
	fake.mutex.Unlock()

	slices.SortStableFunc(due, func(left, right alarm) int {
		return left.due.Compare(right.due)
	})
	for _, ready := range due {
		ready.channel <- now
	}
}

// WaitForTimers blocks until at least n After calls are outstanding,
// so a test does not advance past a timer that is about to be set.
func (fake *FakeClock) WaitForTimers(n int) {
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	for len(fake.pending) < n {
		fake.added.Wait()
	}
}

// PendingCount returns the number of outstanding After calls.
func (fake *FakeClock) PendingCount() int {
	fake.mutex.Lock()
	defer fake.mutex.Unlock()
	return len(fake.pending)
}
