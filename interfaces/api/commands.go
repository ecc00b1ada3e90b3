package api

import "github.com/felixgeelhaar/arrange-go/domain/session"

// Verbs.
const (
	VerbToggle         = session.VerbToggle
	VerbClearSelection = session.VerbClearSelection
	VerbDragReorder    = session.VerbDragReorder
	VerbMoveToPosition = session.VerbMoveToPosition
	VerbRotate         = session.VerbRotate
	VerbDelete         = session.VerbDelete
	VerbReset          = session.VerbReset
)

// User input error codes.
const (
	CodeEmptySelection       = session.CodeEmptySelection
	CodeSelectionCardinality = session.CodeSelectionCardinality
	CodeInvalidPosition      = session.CodeInvalidPosition
	CodeUnsupported          = session.CodeUnsupported
	CodeConfirmationRequired = session.CodeConfirmationRequired
	CodeBusy                 = session.CodeBusy
	CodeCommitInFlight       = session.CodeCommitInFlight
	CodeUnknownElement       = session.CodeUnknownElement
)

// NewToggleCommand selects or deselects an element by original index.
func NewToggleCommand(originalIndex int) Command {
	return session.Toggle(originalIndex)
}

// NewClearSelectionCommand deselects every element.
func NewClearSelectionCommand() Command {
	return session.ClearSelection()
}

// NewDragReorderCommand moves the element at visual position from to to.
func NewDragReorderCommand(from, to int) Command {
	return session.DragReorder(from, to)
}

// NewMoveToPositionCommand moves the selected element to a 1-based position.
func NewMoveToPositionCommand(position int) Command {
	return session.MoveToPosition(position)
}

// NewRotateCommand rotates the selected pages by degrees.
func NewRotateCommand(degrees int) Command {
	return session.Rotate(degrees)
}

// NewDeleteCommand removes the selected pages.
func NewDeleteCommand(confirm bool) Command {
	return session.Delete(confirm)
}

// NewResetCommand restores the loaded order.
func NewResetCommand() Command {
	return session.Reset()
}
