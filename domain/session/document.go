package session

import (
	"fmt"
	"strings"
)

// Kind identifies the type of paged document.
type Kind string

// Supported document kinds.
const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindXLSX Kind = "xlsx"
)

// ParseKind parses a kind name, accepting a leading dot and any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// IsValid returns true for supported kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindPDF, KindDOCX, KindXLSX:
		return true
	default:
		return false
	}
}

// Noun returns the word used for one element of this kind.
func (k Kind) Noun() string {
	if k == KindXLSX {
		return "sheet"
	}
	return "page"
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Capabilities lists the batch transforms a document kind supports.
type Capabilities struct {
	Rotate bool `json:"rotate"`
	Delete bool `json:"delete"`
}

// CapabilitiesFor returns the capabilities of a document kind.
// DOCX and XLSX reorder endpoints take a full permutation only.
func CapabilitiesFor(k Kind) Capabilities {
	switch k {
	case KindPDF:
		return Capabilities{Rotate: true, Delete: true}
	default:
		return Capabilities{}
	}
}

// Document identifies the document a session rearranges.
type Document struct {
	// Ref is the external file identifier.
	Ref string `json:"ref"`

	// Kind is the document type.
	Kind Kind `json:"kind"`
}

// Validate checks the document reference.
func (d Document) Validate() error {
	if strings.TrimSpace(d.Ref) == "" {
		return ErrMissingDocumentRef
	}
	if !d.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, d.Kind)
	}
	return nil
}

// Capabilities returns the capabilities of the document's kind.
func (d Document) Capabilities() Capabilities {
	return CapabilitiesFor(d.Kind)
}

// String returns kind:ref.
func (d Document) String() string {
	return string(d.Kind) + ":" + d.Ref
}
