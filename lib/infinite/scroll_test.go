// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package infinite

import "testing"

// fakePager is a Pager whose state the test sets directly.
type fakePager struct {
	state State
}

func (pager *fakePager) State() State { return pager.state }

func TestThresholdDistance(t *testing.T) {
	tests := []struct {
		name      string
		threshold Threshold
		client    int
		want      float64
	}{
		{"default fraction", Threshold{}, 600, 120},
		{"fraction", Threshold{Fraction: 0.5}, 40, 20},
		{"absolute lines win", Threshold{Lines: 7, Fraction: 0.5}, 40, 7},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.threshold.Distance(test.client); got != test.want {
				t.Fatalf("Distance(%d) = %v, want %v", test.client, got, test.want)
			}
		})
	}
}

func TestControllerTriggersOncePerCrossing(t *testing.T) {
	pager := &fakePager{state: State{FetchedCount: 50, TotalCount: 200, HasNextPage: true, Loaded: true}}
	triggered := 0
	controller := NewController(pager, Threshold{Fraction: 0.2}, func() {
		triggered++
		pager.state.IsFetching = true
	})

	metrics := Metrics{ScrollHeight: 2000, ClientHeight: 600, ScrollTop: 1450}
	if !controller.OnScroll(metrics) {
		t.Fatal("first scroll past the threshold did not trigger")
	}
	if controller.OnScroll(metrics) {
		t.Fatal("second identical scroll triggered again")
	}
	if triggered != 1 {
		t.Fatalf("callback ran %d times, want 1", triggered)
	}
}

func TestControllerOutsideThreshold(t *testing.T) {
	pager := &fakePager{state: State{HasNextPage: true}}
	controller := NewController(pager, Threshold{Fraction: 0.2}, func() {
		t.Fatal("callback ran outside the threshold")
	})
	if controller.OnScroll(Metrics{ScrollHeight: 2000, ClientHeight: 600, ScrollTop: 100}) {
		t.Fatal("OnScroll reported a trigger")
	}
}

func TestControllerGatesOnPagerState(t *testing.T) {
	metrics := Metrics{ScrollHeight: 100, ClientHeight: 50, ScrollTop: 50}
	tests := []struct {
		name  string
		state State
	}{
		{"fetching", State{HasNextPage: true, IsFetching: true}},
		{"exhausted", State{FetchedCount: 10, TotalCount: 10, Loaded: true}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			controller := NewController(&fakePager{state: test.state}, Threshold{}, func() {
				t.Fatal("callback ran")
			})
			if controller.OnScroll(metrics) {
				t.Fatal("OnScroll reported a trigger")
			}
		})
	}
}

func TestControllerRetriggersAfterSettle(t *testing.T) {
	pager := &fakePager{state: State{HasNextPage: true}}
	triggered := 0
	controller := NewController(pager, Threshold{Lines: 5}, func() {
		triggered++
		pager.state.IsFetching = true
	})
	atBottom := Metrics{ScrollHeight: 100, ClientHeight: 20, ScrollTop: 80}

	controller.OnScroll(atBottom)

	// The fetch succeeds but the page was short: still in the zone.
	pager.state.IsFetching = false
	pager.state.Settled++
	if !controller.OnScroll(atBottom) {
		t.Fatal("a settled fetch did not rearm the trigger")
	}
	if triggered != 2 {
		t.Fatalf("callback ran %d times, want 2", triggered)
	}
}

func TestControllerRetriesFailedFetchOnlyAfterScrolling(t *testing.T) {
	pager := &fakePager{state: State{HasNextPage: true}}
	triggered := 0
	controller := NewController(pager, Threshold{Lines: 5}, func() {
		triggered++
		pager.state.IsFetching = true
	})
	atBottom := Metrics{ScrollHeight: 100, ClientHeight: 20, ScrollTop: 80}
	nearBottom := Metrics{ScrollHeight: 100, ClientHeight: 20, ScrollTop: 77}

	controller.OnScroll(atBottom)

	// The fetch fails: fetching clears, the page count is unchanged.
	pager.state.IsFetching = false
	pager.state.Settled++
	pager.state.Err = errTest

	for range 3 {
		if controller.OnScroll(atBottom) {
			t.Fatal("a failed fetch was retried without the user scrolling")
		}
	}
	if !controller.OnScroll(nearBottom) {
		t.Fatal("scrolling again after a failed fetch did not retry")
	}
	if triggered != 2 {
		t.Fatalf("callback ran %d times, want 2", triggered)
	}

	// The retry fails too; it is again held until the next scroll.
	pager.state.IsFetching = false
	pager.state.Settled++
	if controller.OnScroll(nearBottom) {
		t.Fatal("a second failure was retried without scrolling")
	}
	if !controller.OnScroll(atBottom) {
		t.Fatal("scrolling after the second failure did not retry")
	}
	if triggered != 3 {
		t.Fatalf("callback ran %d times, want 3", triggered)
	}
}

func TestControllerRearmsWhenLeavingZone(t *testing.T) {
	pager := &fakePager{state: State{HasNextPage: true}}
	triggered := 0
	controller := NewController(pager, Threshold{Lines: 5}, func() { triggered++ })
	atBottom := Metrics{ScrollHeight: 100, ClientHeight: 20, ScrollTop: 80}
	nearTop := Metrics{ScrollHeight: 100, ClientHeight: 20, ScrollTop: 0}

	controller.OnScroll(atBottom)
	controller.OnScroll(atBottom)
	controller.OnScroll(nearTop)
	controller.OnScroll(atBottom)
	if triggered != 2 {
		t.Fatalf("callback ran %d times, want 2", triggered)
	}

	controller.Rearm()
	controller.OnScroll(atBottom)
	if triggered != 3 {
		t.Fatalf("callback ran %d times after Rearm, want 3", triggered)
	}
}

type testError string

func (err testError) Error() string { return string(err) }

const errTest = testError("fetch failed")
