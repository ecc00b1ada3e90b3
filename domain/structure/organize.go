package structure

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/arrange-go/domain/session"
)

// Entry is one element of a commit, in final order.
type Entry struct {
	// OriginalIndexReference is the 1-based source position.
	OriginalIndexReference int `json:"original_index"`

	// RotationDegrees is nil for kinds without rotation.
	RotationDegrees *int `json:"rotation,omitempty"`
}

// Rotation returns the rotation or zero.
func (e Entry) Rotation() int {
	if e.RotationDegrees == nil {
		return 0
	}
	return *e.RotationDegrees
}

// OrganizeRequest asks the processing service to produce a new document
// with the given elements in order.
type OrganizeRequest struct {
	Document session.Document `json:"document"`
	Entries  []Entry          `json:"entries"`
}

// Validate checks that entries reference distinct elements.
func (r OrganizeRequest) Validate() error {
	if err := r.Document.Validate(); err != nil {
		return err
	}
	if len(r.Entries) == 0 {
		return session.ErrEmptyDocument
	}
	seen := make(map[int]struct{}, len(r.Entries))
	for _, e := range r.Entries {
		if e.OriginalIndexReference < 1 {
			return fmt.Errorf("%w: original index %d", ErrInvalidRequest, e.OriginalIndexReference)
		}
		if _, dup := seen[e.OriginalIndexReference]; dup {
			return fmt.Errorf("%w: original index %d repeated", ErrInvalidRequest, e.OriginalIndexReference)
		}
		seen[e.OriginalIndexReference] = struct{}{}
	}
	return nil
}

// Indexes returns the original indexes in entry order.
func (r OrganizeRequest) Indexes() []int {
	out := make([]int, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.OriginalIndexReference
	}
	return out
}

// Output references the document produced by a commit.
type Output struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// Organizer submits a rearrangement to the processing service.
type Organizer interface {
	Organize(ctx context.Context, req OrganizeRequest) (Output, error)
}

// OrganizerFunc adapts a function to the Organizer interface.
type OrganizerFunc func(ctx context.Context, req OrganizeRequest) (Output, error)

// Organize calls f.
func (f OrganizerFunc) Organize(ctx context.Context, req OrganizeRequest) (Output, error) {
	return f(ctx, req)
}
