// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sorturl

import "slices"

// Policy controls how [Toggle] edits the sort list.
type Policy struct {
	// MultiSort keeps the other sorted columns when one is toggled.
	// Without it the toggled column replaces the whole list.
	MultiSort bool

	// EnableRemoval lets a descending column drop out of the sort on
	// the next toggle. Without it the column cycles back to ascending.
	EnableRemoval bool
}

// Toggle applies one click-to-sort on fieldID and returns the new
// list; current is not modified. An unsorted column is appended
// ascending (or becomes the only entry without multi-sort). A sorted
// ascending column flips to descending in place. A sorted descending
// column is removed when the policy allows removal, and otherwise
// flips back to ascending.
func Toggle(current []Descriptor, fieldID string, policy Policy) []Descriptor {
	position := slices.IndexFunc(current, func(descriptor Descriptor) bool {
		return descriptor.FieldID == fieldID
	})

	if position < 0 {
		added := Descriptor{FieldID: fieldID, Direction: Ascending}
		if !policy.MultiSort {
			return []Descriptor{added}
		}
		return append(slices.Clone(current), added)
	}

	existing := current[position]
	remove := existing.Direction == Descending && policy.EnableRemoval

	if !policy.MultiSort {
		if remove {
			return nil
		}
		return []Descriptor{{FieldID: fieldID, Direction: existing.Direction.Reverse()}}
	}

	next := slices.Clone(current)
	if remove {
		return slices.Delete(next, position, position+1)
	}
	next[position].Direction = existing.Direction.Reverse()
	return next
}
