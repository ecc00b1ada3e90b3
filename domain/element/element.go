// Package element provides the ordered element model for paged documents.
//
// An element is a page of a PDF or DOCX document, or a sheet of an XLSX
// workbook. Each element keeps the 1-based position it had when the
// document was loaded so that any rearrangement can be mapped back to the
// source document.
package element

// Element is a single page or sheet in the working order.
type Element struct {
	// OriginalIndex is the 1-based position in the source document.
	// Assigned once at initialization and never reassigned.
	OriginalIndex int `json:"original_index"`

	// Rotation is the pending clockwise rotation in degrees.
	// Always one of 0, 90, 180 or 270.
	Rotation int `json:"rotation"`

	// Deleted excludes the element from the visible order.
	Deleted bool `json:"deleted"`
}

// Rotated reports whether the element carries a pending rotation.
func (e Element) Rotated() bool {
	return e.Rotation != 0
}

// NormalizeRotation maps any degree value onto {0, 90, 180, 270}.
// Values are reduced modulo 360 and floored to a multiple of 90.
func NormalizeRotation(degrees int) int {
	r := degrees % 360
	if r < 0 {
		r += 360
	}
	return r - r%90
}
