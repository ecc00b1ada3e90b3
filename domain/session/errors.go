package session

import (
	"errors"
	"fmt"
)

// Domain errors for rearrangement sessions.
var (
	// ErrEmptyDocument indicates a commit with no visible elements.
	// It is raised before any request is sent.
	ErrEmptyDocument = errors.New("document has no remaining elements")

	// ErrStaleResponse indicates a response arrived for a superseded
	// request and was discarded.
	ErrStaleResponse = errors.New("stale response discarded")

	// ErrSessionClosed indicates the session was committed or replaced.
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionBroken indicates a prior invariant violation. Only reset
	// is accepted until the session is reinitialized.
	ErrSessionBroken = errors.New("session broken, reset required")

	// ErrUnknownVerb indicates a command with an unrecognized verb.
	ErrUnknownVerb = errors.New("unknown verb")

	// ErrUnknownKind indicates an unsupported document kind.
	ErrUnknownKind = errors.New("unknown document kind")

	// ErrMissingDocumentRef indicates a document without a reference.
	ErrMissingDocumentRef = errors.New("document reference is required")

	// ErrNoSession indicates no document has been opened.
	ErrNoSession = errors.New("no open session")
)

// ErrorCode classifies user input errors.
type ErrorCode string

// User input error codes.
const (
	CodeEmptySelection       ErrorCode = "empty_selection"
	CodeSelectionCardinality ErrorCode = "selection_cardinality"
	CodeInvalidPosition      ErrorCode = "invalid_position"
	CodeUnsupported          ErrorCode = "unsupported"
	CodeConfirmationRequired ErrorCode = "confirmation_required"
	CodeBusy                 ErrorCode = "busy"
	CodeCommitInFlight       ErrorCode = "commit_in_flight"
	CodeUnknownElement       ErrorCode = "unknown_element"
)

// UserInputError is a recoverable rejection of a verb. The session state
// is unchanged when one is returned.
type UserInputError struct {
	Code    ErrorCode
	Message string
}

// NewUserInputError creates a user input error.
func NewUserInputError(code ErrorCode, format string, args ...any) *UserInputError {
	return &UserInputError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *UserInputError) Error() string {
	return e.Message
}

// InvariantViolation reports an internal inconsistency detected while
// applying a verb.
type InvariantViolation struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *InvariantViolation) Unwrap() error {
	return e.Err
}

// ExternalServiceError reports a failure of the structure or processing
// service. The working order is left untouched.
type ExternalServiceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// IsUserError reports whether err is a user input error.
func IsUserError(err error) bool {
	var target *UserInputError
	return errors.As(err, &target)
}

// HasCode reports whether err is a user input error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var target *UserInputError
	return errors.As(err, &target) && target.Code == code
}

// IsInvariantViolation reports whether err is an invariant violation.
func IsInvariantViolation(err error) bool {
	var target *InvariantViolation
	return errors.As(err, &target)
}

// IsExternal reports whether err came from an external service.
func IsExternal(err error) bool {
	var target *ExternalServiceError
	return errors.As(err, &target)
}
