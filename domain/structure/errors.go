package structure

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors for structure and organize operations.
var (
	// ErrInvalidStructure indicates inconsistent structure metadata.
	ErrInvalidStructure = errors.New("invalid structure")

	// ErrInvalidRequest indicates an organize request the service would reject.
	ErrInvalidRequest = errors.New("invalid organize request")

	// ErrDocumentNotFound indicates the service does not know the document.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrRejected matches service errors that retrying cannot fix.
	ErrRejected = errors.New("request rejected by service")
)

// ServiceError is an error reported by the processing service.
type ServiceError struct {
	// Status is the HTTP status code.
	Status int

	// Message is the service's error message.
	Message string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("service returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("service returned %d: %s", e.Status, e.Message)
}

// Temporary reports whether retrying may succeed.
func (e *ServiceError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// Is maps a 404 onto ErrDocumentNotFound and any non-temporary status
// onto ErrRejected.
func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrDocumentNotFound:
		return e.Status == http.StatusNotFound
	case ErrRejected:
		return !e.Temporary()
	default:
		return false
	}
}
