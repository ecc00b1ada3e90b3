package application

import (
	"context"
	"sync"
)

// DragSession follows one pointer drag over the visible order. Each hover
// over a new position moves the dragged element there, so the element
// travels with the pointer and the final order is the same however many
// hover events the host delivers.
type DragSession struct {
	session *Session

	mu       sync.Mutex
	active   bool
	position int
}

// NewDragSession creates an idle drag helper for s.
func NewDragSession(s *Session) *DragSession {
	return &DragSession{session: s}
}

// Start begins dragging the element at the 0-based visual position.
func (d *DragSession) Start(position int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = true
	d.position = position
}

// Over handles the pointer hovering the 0-based visual position. Hovers
// while idle and repeated hovers over the current position are ignored.
func (d *DragSession) Over(ctx context.Context, hover int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active || hover == d.position {
		return nil
	}
	if err := d.session.DragReorder(ctx, d.position, hover); err != nil {
		return err
	}
	d.position = hover
	return nil
}

// End finishes the drag.
func (d *DragSession) End() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = false
}

// Active reports whether a drag is in progress.
func (d *DragSession) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Position returns the visual position of the dragged element.
func (d *DragSession) Position() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position
}
