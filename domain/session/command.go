package session

import "fmt"

// VerbKind identifies a rearrangement verb.
type VerbKind string

// Rearrangement verbs.
const (
	VerbToggle         VerbKind = "toggle"
	VerbClearSelection VerbKind = "clear_selection"
	VerbDragReorder    VerbKind = "drag_reorder"
	VerbMoveToPosition VerbKind = "move_to_position"
	VerbRotate         VerbKind = "rotate"
	VerbDelete         VerbKind = "delete"
	VerbReset          VerbKind = "reset"
)

// IsValid returns true for recognized verbs.
func (v VerbKind) IsValid() bool {
	switch v {
	case VerbToggle, VerbClearSelection, VerbDragReorder, VerbMoveToPosition,
		VerbRotate, VerbDelete, VerbReset:
		return true
	default:
		return false
	}
}

// Mutates returns true if the verb changes the working order or the
// transform state of an element.
func (v VerbKind) Mutates() bool {
	switch v {
	case VerbDragReorder, VerbMoveToPosition, VerbRotate, VerbDelete, VerbReset:
		return true
	default:
		return false
	}
}

// String returns the string representation of the verb.
func (v VerbKind) String() string {
	return string(v)
}

// Command is a tagged verb invocation. Only the fields relevant to Verb
// are read.
type Command struct {
	Verb VerbKind `json:"verb" yaml:"verb"`

	// Index is the original index for toggle.
	Index int `json:"index,omitempty" yaml:"index,omitempty"`

	// From and To are 0-based visual positions for drag_reorder.
	From int `json:"from,omitempty" yaml:"from,omitempty"`
	To   int `json:"to,omitempty" yaml:"to,omitempty"`

	// Position is the 1-based target for move_to_position.
	Position int `json:"position,omitempty" yaml:"position,omitempty"`

	// Degrees is the rotation delta for rotate.
	Degrees int `json:"degrees,omitempty" yaml:"degrees,omitempty"`

	// Confirm acknowledges a delete.
	Confirm bool `json:"confirm,omitempty" yaml:"confirm,omitempty"`
}

// Validate checks that the verb is recognized.
func (c Command) Validate() error {
	if !c.Verb.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownVerb, c.Verb)
	}
	return nil
}

// String returns a compact description of the command.
func (c Command) String() string {
	switch c.Verb {
	case VerbToggle:
		return fmt.Sprintf("%s(%d)", c.Verb, c.Index)
	case VerbDragReorder:
		return fmt.Sprintf("%s(%d->%d)", c.Verb, c.From, c.To)
	case VerbMoveToPosition:
		return fmt.Sprintf("%s(%d)", c.Verb, c.Position)
	case VerbRotate:
		return fmt.Sprintf("%s(%d)", c.Verb, c.Degrees)
	case VerbDelete:
		return fmt.Sprintf("%s(confirm=%t)", c.Verb, c.Confirm)
	default:
		return string(c.Verb)
	}
}

// Toggle creates a toggle command.
func Toggle(originalIndex int) Command {
	return Command{Verb: VerbToggle, Index: originalIndex}
}

// ClearSelection creates a clear selection command.
func ClearSelection() Command {
	return Command{Verb: VerbClearSelection}
}

// DragReorder creates a drag reorder command.
func DragReorder(from, to int) Command {
	return Command{Verb: VerbDragReorder, From: from, To: to}
}

// MoveToPosition creates a move command with a 1-based target.
func MoveToPosition(position int) Command {
	return Command{Verb: VerbMoveToPosition, Position: position}
}

// Rotate creates a rotate command.
func Rotate(degrees int) Command {
	return Command{Verb: VerbRotate, Degrees: degrees}
}

// Delete creates a delete command.
func Delete(confirm bool) Command {
	return Command{Verb: VerbDelete, Confirm: confirm}
}

// Reset creates a reset command.
func Reset() Command {
	return Command{Verb: VerbReset}
}
