package commit

import "errors"

// Domain errors for commit history operations.
var (
	// ErrRecordNotFound is returned when a record does not exist.
	ErrRecordNotFound = errors.New("commit record not found")

	// ErrRecordExists is returned when saving a record whose ID is taken.
	ErrRecordExists = errors.New("commit record already exists")

	// ErrInvalidRecordID is returned when a record ID is empty.
	ErrInvalidRecordID = errors.New("invalid commit record ID")

	// ErrConnectionFailed is returned when the store backend is unreachable.
	ErrConnectionFailed = errors.New("commit store connection failed")
)
