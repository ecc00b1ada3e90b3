// Package selection tracks which elements are selected for batch operations.
package selection

import (
	"maps"
	"slices"
)

// Tracker holds the set of selected original indexes.
// Selection is transient; it is never part of a commit.
type Tracker struct {
	selected map[int]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{selected: make(map[int]struct{})}
}

// Toggle adds the index if absent and removes it if present.
// It reports whether the index is selected afterwards.
func (t *Tracker) Toggle(originalIndex int) bool {
	if _, ok := t.selected[originalIndex]; ok {
		delete(t.selected, originalIndex)
		return false
	}
	t.selected[originalIndex] = struct{}{}
	return true
}

// Clear empties the selection.
func (t *Tracker) Clear() {
	clear(t.selected)
}

// Len returns the number of selected indexes.
func (t *Tracker) Len() int {
	return len(t.selected)
}

// Empty reports whether nothing is selected.
func (t *Tracker) Empty() bool {
	return len(t.selected) == 0
}

// Selected returns the selected indexes in ascending order.
func (t *Tracker) Selected() []int {
	return slices.Sorted(maps.Keys(t.selected))
}

// Only returns the selected index when exactly one is selected.
func (t *Tracker) Only() (int, bool) {
	if len(t.selected) != 1 {
		return 0, false
	}
	for idx := range t.selected {
		return idx, true
	}
	return 0, false
}
