// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"testing"
	"time"
)

func TestHeatDecay(t *testing.T) {
	tracker := NewHeatTracker()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tracker.Ignite("row-1", HeatPut, start)

	if heat := tracker.Heat("row-1", start); heat != 1 {
		t.Fatalf("heat at ignition = %v, want 1", heat)
	}
	if heat := tracker.Heat("row-1", start.Add(HeatDecayDuration/2)); heat != 0.5 {
		t.Fatalf("heat at half life = %v, want 0.5", heat)
	}
	if heat := tracker.Heat("row-2", start); heat != 0 {
		t.Fatalf("unknown row heat = %v", heat)
	}
	if !tracker.HasHot(start.Add(time.Second)) {
		t.Fatal("HasHot false while a row glows")
	}
	if tracker.HasHot(start.Add(HeatDecayDuration)) {
		t.Fatal("HasHot true after full decay")
	}
	if len(tracker.entries) != 0 {
		t.Fatal("decayed entries not collected")
	}
}

func TestHeatBackground(t *testing.T) {
	tracker := NewHeatTracker()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tracker.Ignite("gone", HeatRemove, now)
	tracker.Ignite("new", HeatPut, now)

	if color, ok := tracker.Background(DefaultTheme, "gone", now); !ok || color != DefaultTheme.HotAccentRemove {
		t.Fatalf("remove tint = %q, %v", color, ok)
	}
	if color, ok := tracker.Background(DefaultTheme, "new", now); !ok || color != DefaultTheme.HotAccentPut {
		t.Fatalf("put tint = %q, %v", color, ok)
	}
	if _, ok := tracker.Background(DefaultTheme, "new", now.Add(HeatDecayDuration*3/4)); ok {
		t.Fatal("cool row still tinted")
	}
}
