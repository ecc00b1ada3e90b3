package element

import (
	"fmt"
	"iter"
	"slices"
)

// Store holds the canonical working order of a document's elements.
//
// The underlying array contains every element, deleted ones included, so
// that rearrangement never loses an element's identity. Store is not safe
// for concurrent use; callers serialize access.
type Store struct {
	elements []Element
	count    int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// NewStoreWithCount creates a store initialized with count elements.
func NewStoreWithCount(count int) (*Store, error) {
	s := NewStore()
	if err := s.Initialize(count); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize replaces the store contents with count elements whose
// original indexes are 1..count, with no rotation and nothing deleted.
func (s *Store) Initialize(count int) error {
	if count < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}

	elements := make([]Element, count)
	for i := range elements {
		elements[i] = Element{OriginalIndex: i + 1}
	}
	s.elements = elements
	s.count = count
	return nil
}

// Count returns the number of elements the store was initialized with.
func (s *Store) Count() int {
	return s.count
}

// Len returns the length of the underlying array, deleted elements included.
func (s *Store) Len() int {
	return len(s.elements)
}

// VisibleOrder yields the non-deleted elements in array order.
// The sequence can be ranged over any number of times.
func (s *Store) VisibleOrder() iter.Seq[Element] {
	return func(yield func(Element) bool) {
		for _, e := range s.elements {
			if e.Deleted {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Visible returns the visible order as a slice.
func (s *Store) Visible() []Element {
	return slices.Collect(s.VisibleOrder())
}

// VisibleLen returns the number of non-deleted elements.
func (s *Store) VisibleLen() int {
	n := 0
	for _, e := range s.elements {
		if !e.Deleted {
			n++
		}
	}
	return n
}

// VisibleIndexes returns the original indexes of the visible order.
func (s *Store) VisibleIndexes() []int {
	indexes := make([]int, 0, len(s.elements))
	for e := range s.VisibleOrder() {
		indexes = append(indexes, e.OriginalIndex)
	}
	return indexes
}

// Snapshot returns a copy of the underlying array.
func (s *Store) Snapshot() []Element {
	return slices.Clone(s.elements)
}

// Get returns the element with the given original index.
func (s *Store) Get(originalIndex int) (Element, error) {
	pos, err := s.PositionOf(originalIndex)
	if err != nil {
		return Element{}, err
	}
	return s.elements[pos], nil
}

// PositionOf returns the array position of the element with the given
// original index.
func (s *Store) PositionOf(originalIndex int) (int, error) {
	for i, e := range s.elements {
		if e.OriginalIndex == originalIndex {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: original index %d", ErrNotFound, originalIndex)
}

// VisualToArray translates a 0-based position in the visible order into
// its position in the underlying array.
func (s *Store) VisualToArray(visual int) (int, error) {
	if visual < 0 {
		return -1, fmt.Errorf("%w: visual position %d", ErrOutOfRange, visual)
	}
	n := 0
	for i, e := range s.elements {
		if e.Deleted {
			continue
		}
		if n == visual {
			return i, nil
		}
		n++
	}
	return -1, fmt.Errorf("%w: visual position %d of %d", ErrOutOfRange, visual, n)
}

// ReindexByMove moves the element at fromPos to toPos in the underlying
// array, shifting the elements in between by one.
func (s *Store) ReindexByMove(fromPos, toPos int) error {
	n := len(s.elements)
	if fromPos < 0 || fromPos >= n {
		return fmt.Errorf("%w: from %d of %d", ErrOutOfRange, fromPos, n)
	}
	if toPos < 0 || toPos >= n {
		return fmt.Errorf("%w: to %d of %d", ErrOutOfRange, toPos, n)
	}
	if fromPos == toPos {
		return nil
	}

	moved := s.elements[fromPos]
	s.elements = slices.Delete(s.elements, fromPos, fromPos+1)
	s.elements = slices.Insert(s.elements, toPos, moved)
	return nil
}

// SetRotation adds delta degrees to the element's rotation.
func (s *Store) SetRotation(originalIndex, delta int) error {
	pos, err := s.PositionOf(originalIndex)
	if err != nil {
		return err
	}
	s.elements[pos].Rotation = NormalizeRotation(s.elements[pos].Rotation + NormalizeRotation(delta))
	return nil
}

// MarkDeleted sets the deleted flag of the element. Setting the current
// value again is a no-op.
func (s *Store) MarkDeleted(originalIndex int, value bool) error {
	pos, err := s.PositionOf(originalIndex)
	if err != nil {
		return err
	}
	s.elements[pos].Deleted = value
	return nil
}

// Rebuild reorders the underlying array to follow order, a permutation of
// the original indexes currently held. Element state travels with the
// element.
func (s *Store) Rebuild(order []int) error {
	if len(order) != len(s.elements) {
		return fmt.Errorf("%w: rebuild with %d of %d elements",
			ErrInvariantViolation, len(order), len(s.elements))
	}

	byIndex := make(map[int]Element, len(s.elements))
	for _, e := range s.elements {
		byIndex[e.OriginalIndex] = e
	}

	rebuilt := make([]Element, 0, len(order))
	for _, idx := range order {
		e, ok := byIndex[idx]
		if !ok {
			return fmt.Errorf("%w: original index %d missing or repeated",
				ErrInvariantViolation, idx)
		}
		delete(byIndex, idx)
		rebuilt = append(rebuilt, e)
	}
	s.elements = rebuilt
	return nil
}

// Validate checks that the original indexes form a permutation of
// 1..Count() and that every rotation is normalized.
func (s *Store) Validate() error {
	if len(s.elements) != s.count {
		return fmt.Errorf("%w: %d elements, expected %d",
			ErrInvariantViolation, len(s.elements), s.count)
	}
	seen := make([]bool, s.count+1)
	for _, e := range s.elements {
		if e.OriginalIndex < 1 || e.OriginalIndex > s.count || seen[e.OriginalIndex] {
			return fmt.Errorf("%w: original index %d missing or repeated",
				ErrInvariantViolation, e.OriginalIndex)
		}
		seen[e.OriginalIndex] = true
		if e.Rotation != NormalizeRotation(e.Rotation) {
			return fmt.Errorf("%w: rotation %d on element %d",
				ErrInvariantViolation, e.Rotation, e.OriginalIndex)
		}
	}
	return nil
}

// Modified reports whether the arrangement differs from the one produced
// by Initialize.
func (s *Store) Modified() bool {
	for i, e := range s.elements {
		if e.OriginalIndex != i+1 || e.Rotation != 0 || e.Deleted {
			return true
		}
	}
	return false
}
