// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

// HeatDecayDuration is how long a row glows after a change event.
const HeatDecayDuration = 3 * time.Second

// HeatTickInterval is the re-render interval while any row is hot.
const HeatTickInterval = 100 * time.Millisecond

// HeatKind distinguishes the change that ignited a row.
type HeatKind int

const (
	// HeatPut marks a row created or updated by a live source.
	HeatPut HeatKind = iota
	// HeatRemove marks a row the live source removed.
	HeatRemove
)

type heatEntry struct {
	ignition time.Time
	kind     HeatKind
}

// HeatTracker maps row keys to ignition times. Heat decays linearly
// from 1 to 0 over [HeatDecayDuration]. Callers pass the current time
// so tests can drive the decay with a fake clock.
type HeatTracker struct {
	entries map[string]heatEntry
}

// NewHeatTracker creates an empty tracker.
func NewHeatTracker() *HeatTracker {
	return &HeatTracker{entries: make(map[string]heatEntry)}
}

// Ignite records a change to key, restarting its decay.
func (tracker *HeatTracker) Ignite(key string, kind HeatKind, now time.Time) {
	tracker.entries[key] = heatEntry{ignition: now, kind: kind}
}

// Heat returns the intensity for key in [0, 1].
func (tracker *HeatTracker) Heat(key string, now time.Time) float64 {
	entry, exists := tracker.entries[key]
	if !exists {
		return 0
	}
	elapsed := now.Sub(entry.ignition)
	if elapsed >= HeatDecayDuration || elapsed < 0 {
		return 0
	}
	return 1 - float64(elapsed)/float64(HeatDecayDuration)
}

// Kind returns the change kind for key. Only meaningful while hot.
func (tracker *HeatTracker) Kind(key string) HeatKind {
	return tracker.entries[key].kind
}

// HasHot reports whether any row still glows, dropping decayed
// entries as it goes.
func (tracker *HeatTracker) HasHot(now time.Time) bool {
	hot := false
	for key, entry := range tracker.entries {
		if now.Sub(entry.ignition) < HeatDecayDuration {
			hot = true
			continue
		}
		delete(tracker.entries, key)
	}
	return hot
}

// Background returns the tint for a hot row, or false when the row is
// cold. Rows above half heat get the full accent; cooler rows fade to
// no tint rather than blending, since 256-color terminals cannot
// interpolate.
func (tracker *HeatTracker) Background(theme Theme, key string, now time.Time) (lipgloss.Color, bool) {
	heat := tracker.Heat(key, now)
	if heat <= 0.5 {
		return "", false
	}
	if tracker.Kind(key) == HeatRemove {
		return theme.HotAccentRemove, true
	}
	return theme.HotAccentPut, true
}
