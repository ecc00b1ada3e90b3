// Package structure provides the domain model for document structure
// metadata and the processing service contracts.
package structure

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/arrange-go/domain/session"
)

// ElementInfo describes one page or sheet as reported by the structure
// service. Fields that do not apply to the document kind are zero.
type ElementInfo struct {
	// Index is the 1-based position in the source document.
	Index int `json:"index"`

	// Name is the sheet name for workbooks.
	Name string `json:"name,omitempty"`

	// Rows and Columns are the used range of a sheet.
	Rows    int `json:"rows,omitempty"`
	Columns int `json:"columns,omitempty"`

	// Width and Height are page dimensions in points.
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// Rotation is the rotation already stored in the source page.
	Rotation int `json:"rotation,omitempty"`
}

// Label returns a display label for the element.
func (i ElementInfo) Label(kind session.Kind) string {
	if i.Name != "" {
		return i.Name
	}
	return fmt.Sprintf("%s %d", kind.Noun(), i.Index)
}

// Structure is the element metadata of a document.
type Structure struct {
	Document      session.Document `json:"document"`
	TotalElements int              `json:"total_elements"`
	Elements      []ElementInfo    `json:"elements,omitempty"`
}

// Validate checks the count and the element indexes.
func (s Structure) Validate() error {
	if s.TotalElements < 0 {
		return fmt.Errorf("%w: negative total %d", ErrInvalidStructure, s.TotalElements)
	}
	if len(s.Elements) == 0 {
		return nil
	}
	if len(s.Elements) != s.TotalElements {
		return fmt.Errorf("%w: %d elements listed, total %d",
			ErrInvalidStructure, len(s.Elements), s.TotalElements)
	}
	for i, e := range s.Elements {
		if e.Index != i+1 {
			return fmt.Errorf("%w: element %d has index %d", ErrInvalidStructure, i+1, e.Index)
		}
	}
	return nil
}

// Info returns the metadata of the element with the given 1-based index.
func (s Structure) Info(originalIndex int) (ElementInfo, bool) {
	if originalIndex < 1 || originalIndex > len(s.Elements) {
		return ElementInfo{}, false
	}
	return s.Elements[originalIndex-1], true
}

// Loader fetches document structure metadata.
type Loader interface {
	Load(ctx context.Context, doc session.Document) (Structure, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, doc session.Document) (Structure, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, doc session.Document) (Structure, error) {
	return f(ctx, doc)
}
