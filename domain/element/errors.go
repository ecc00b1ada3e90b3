package element

import "errors"

// Domain errors for element store operations.
var (
	// ErrInvalidCount indicates a negative element count.
	ErrInvalidCount = errors.New("invalid element count")

	// ErrOutOfRange indicates a position outside the store bounds.
	ErrOutOfRange = errors.New("position out of range")

	// ErrNotFound indicates no element carries the given original index.
	ErrNotFound = errors.New("element not found")

	// ErrInvariantViolation indicates the store no longer holds a
	// permutation of its original indexes.
	ErrInvariantViolation = errors.New("element invariant violated")
)
