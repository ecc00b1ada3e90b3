// Package application provides the rearrangement sessions, the commit
// coordinator and the workspace that ties them to the processing service.
package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/felixgeelhaar/statekit"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/arrange-go/domain/element"
	"github.com/felixgeelhaar/arrange-go/domain/ledger"
	"github.com/felixgeelhaar/arrange-go/domain/notification"
	"github.com/felixgeelhaar/arrange-go/domain/selection"
	"github.com/felixgeelhaar/arrange-go/domain/session"
	"github.com/felixgeelhaar/arrange-go/domain/structure"
	"github.com/felixgeelhaar/arrange-go/domain/telemetry"
	"github.com/felixgeelhaar/arrange-go/infrastructure/logging"
	"github.com/felixgeelhaar/arrange-go/infrastructure/statemachine"
)

// SessionConfig contains configuration for a session.
type SessionConfig struct {
	// ID identifies the session. Generated when empty.
	ID string

	// Structure is the loaded metadata of the document.
	Structure structure.Structure

	// Recorder receives session metrics.
	Recorder telemetry.Recorder

	// Notifier receives session events.
	Notifier notification.Notifier
}

type handler func(ctx context.Context, cmd session.Command) error

// Session is the rearrangement controller for one loaded document. It owns
// the element store and the selection, and enforces every edge-case policy
// before a verb reaches the store.
//
// Session is safe for concurrent use. Verbs are serialized by an internal
// mutex that is never held across a network call.
type Session struct {
	id        string
	doc       session.Document
	caps      session.Capabilities
	structure structure.Structure
	recorder  telemetry.Recorder
	notifier  notification.Notifier
	handlers  map[session.VerbKind]handler

	mu      sync.Mutex
	store   *element.Store
	sel     *selection.Tracker
	interp  *statemachine.Interpreter
	ledger  *ledger.Ledger
	epoch   uint64
	broken  bool
	pending []*notification.Event
}

// NewSession creates a ready session over a loaded structure.
func NewSession(cfg SessionConfig) (*Session, error) {
	doc := cfg.Structure.Document
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Structure.Validate(); err != nil {
		return nil, err
	}

	store, err := element.NewStoreWithCount(cfg.Structure.TotalElements)
	if err != nil {
		return nil, err
	}

	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}

	s := &Session{
		id:        id,
		doc:       doc,
		caps:      doc.Capabilities(),
		structure: cfg.Structure,
		recorder:  cfg.Recorder,
		notifier:  cfg.Notifier,
		store:     store,
		sel:       selection.NewTracker(),
		ledger:    ledger.New(id),
	}
	if s.recorder == nil {
		s.recorder = telemetry.NoopRecorder{}
	}
	if s.notifier == nil {
		s.notifier = notification.NopNotifier{}
	}
	s.handlers = s.buildHandlers()

	mctx := statemachine.NewContext(id, s.ledger, func() bool {
		return s.store.VisibleLen() > 0
	})
	mctx.Recorder = s.recorder

	interp, err := statemachine.NewSessionInterpreter(mctx)
	if err != nil {
		return nil, err
	}
	s.interp = interp

	s.ledger.RecordOpened(doc, store.Count())
	if _, err := s.fire(statemachine.EventLoaded, "structure loaded"); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) buildHandlers() map[session.VerbKind]handler {
	return map[session.VerbKind]handler{
		session.VerbToggle: func(_ context.Context, c session.Command) error {
			return s.toggleLocked(c.Index)
		},
		session.VerbClearSelection: func(context.Context, session.Command) error {
			s.sel.Clear()
			return nil
		},
		session.VerbDragReorder: func(_ context.Context, c session.Command) error {
			return s.dragReorderLocked(c.From, c.To)
		},
		session.VerbMoveToPosition: func(_ context.Context, c session.Command) error {
			return s.moveToPositionLocked(c.Position)
		},
		session.VerbRotate: func(_ context.Context, c session.Command) error {
			return s.rotateSelectedLocked(c.Degrees)
		},
		session.VerbDelete: func(_ context.Context, c session.Command) error {
			return s.deleteSelectedLocked(c.Confirm)
		},
		session.VerbReset: func(context.Context, session.Command) error {
			return s.resetLocked()
		},
	}
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Document returns the document being rearranged.
func (s *Session) Document() session.Document {
	return s.doc
}

// Capabilities returns the batch transforms the document supports.
func (s *Session) Capabilities() session.Capabilities {
	return s.caps
}

// Ledger returns the session's audit ledger.
func (s *Session) Ledger() *ledger.Ledger {
	return s.ledger
}

// State returns the current lifecycle state.
func (s *Session) State() session.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interp.State()
}

// Broken reports whether an invariant violation is pending a reset.
func (s *Session) Broken() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broken
}

// Epoch returns the reset generation of the session.
func (s *Session) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Count returns the number of elements the document was loaded with.
func (s *Session) Count() int {
	return s.structure.TotalElements
}

// VisibleOrder returns a snapshot of the working order.
func (s *Session) VisibleOrder() []element.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Visible()
}

// VisibleIndexes returns the original indexes of the working order.
func (s *Session) VisibleIndexes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.VisibleIndexes()
}

// Selected returns the selected original indexes in ascending order.
func (s *Session) Selected() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Selected()
}

// Dirty reports whether the arrangement differs from the loaded one.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Modified()
}

// Info returns the source metadata of an element.
func (s *Session) Info(originalIndex int) (structure.ElementInfo, bool) {
	if info, ok := s.structure.Info(originalIndex); ok {
		return info, true
	}
	if originalIndex < 1 || originalIndex > s.structure.TotalElements {
		return structure.ElementInfo{}, false
	}
	return structure.ElementInfo{Index: originalIndex}, true
}

// Toggle flips the selection of an element.
func (s *Session) Toggle(ctx context.Context, originalIndex int) error {
	return s.Dispatch(ctx, session.Toggle(originalIndex))
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection(ctx context.Context) error {
	return s.Dispatch(ctx, session.ClearSelection())
}

// DragReorder puts the element at visual position dragged where the
// element at visual position hover is. Both positions are 0-based.
func (s *Session) DragReorder(ctx context.Context, dragged, hover int) error {
	return s.Dispatch(ctx, session.DragReorder(dragged, hover))
}

// MoveToPosition moves the single selected element to the 1-based target
// position of the visible order.
func (s *Session) MoveToPosition(ctx context.Context, target int) error {
	return s.Dispatch(ctx, session.MoveToPosition(target))
}

// RotateSelected adds delta degrees to every selected element.
func (s *Session) RotateSelected(ctx context.Context, delta int) error {
	return s.Dispatch(ctx, session.Rotate(delta))
}

// DeleteSelected removes every selected element from the visible order.
func (s *Session) DeleteSelected(ctx context.Context, confirm bool) error {
	return s.Dispatch(ctx, session.Delete(confirm))
}

// Reset restores the loaded arrangement and invalidates any commit in
// flight.
func (s *Session) Reset(ctx context.Context) error {
	return s.Dispatch(ctx, session.Reset())
}

// Dispatch executes a command.
func (s *Session) Dispatch(ctx context.Context, cmd session.Command) error {
	h, ok := s.handlers[cmd.Verb]
	if !ok {
		return fmt.Errorf("%w: %q", session.ErrUnknownVerb, cmd.Verb)
	}

	s.mu.Lock()
	err := s.dispatchLocked(ctx, cmd, h)
	events := s.takeEventsLocked()
	s.mu.Unlock()

	s.publish(ctx, events)
	return err
}

func (s *Session) dispatchLocked(ctx context.Context, cmd session.Command, h handler) error {
	state := s.interp.State()

	if err := s.admitLocked(cmd.Verb, state); err != nil {
		s.rejectLocked(ctx, state, cmd, err)
		return err
	}

	err := h(ctx, cmd)
	if err == nil && cmd.Verb.Mutates() {
		if verr := s.store.Validate(); verr != nil {
			err = &session.InvariantViolation{Op: string(cmd.Verb), Err: verr}
		}
	}
	if err != nil {
		if session.IsInvariantViolation(err) {
			s.breakLocked(err)
		}
		s.rejectLocked(ctx, state, cmd, err)
		return err
	}

	s.ledger.RecordVerb(s.interp.State(), cmd)
	s.recorder.Verb(ctx, string(cmd.Verb), true)

	logging.Debug().
		Add(logging.SessionID(s.id)).
		Add(logging.Verb(cmd.Verb)).
		Add(logging.Str("command", cmd.String())).
		Msg("verb applied")
	return nil
}

// admitLocked decides whether a verb may run in the current state.
func (s *Session) admitLocked(verb session.VerbKind, state session.State) error {
	if s.broken && verb != session.VerbReset {
		return session.ErrSessionBroken
	}

	switch state {
	case session.StateReady:
		return nil
	case session.StateCommitting:
		if verb == session.VerbReset {
			return nil
		}
		return session.NewUserInputError(session.CodeBusy, "commit in progress")
	case session.StateCommitted, session.StateClosed:
		return session.ErrSessionClosed
	default:
		return session.NewUserInputError(session.CodeBusy, "document is still loading")
	}
}

func (s *Session) rejectLocked(ctx context.Context, state session.State, cmd session.Command, err error) {
	var code session.ErrorCode
	var uie *session.UserInputError
	if errors.As(err, &uie) {
		code = uie.Code
	}

	s.ledger.RecordRejected(state, cmd, code, err)
	s.recorder.Verb(ctx, string(cmd.Verb), false)

	logging.Debug().
		Add(logging.SessionID(s.id)).
		Add(logging.Verb(cmd.Verb)).
		Add(logging.Code(code)).
		Add(logging.ErrorField(err)).
		Msg("verb rejected")
}

func (s *Session) breakLocked(err error) {
	s.broken = true

	logging.Error().
		Add(logging.SessionID(s.id)).
		Add(logging.Document(s.doc)).
		Add(logging.ErrorField(err)).
		Msg("session broken")

	s.emitLocked(notification.EventSessionBroken, notification.SessionBrokenPayload{Reason: err.Error()})
}

func (s *Session) toggleLocked(originalIndex int) error {
	e, err := s.store.Get(originalIndex)
	if err != nil || e.Deleted {
		return session.NewUserInputError(session.CodeUnknownElement,
			"no %s %d in the working order", s.doc.Kind.Noun(), originalIndex)
	}
	s.sel.Toggle(originalIndex)
	return nil
}

func (s *Session) dragReorderLocked(dragged, hover int) error {
	if dragged == hover {
		return nil
	}

	from, err := s.store.VisualToArray(dragged)
	if err != nil {
		return &session.InvariantViolation{Op: "drag_reorder", Err: err}
	}
	to, err := s.store.VisualToArray(hover)
	if err != nil {
		return &session.InvariantViolation{Op: "drag_reorder", Err: err}
	}

	if err := s.store.ReindexByMove(from, to); err != nil {
		return &session.InvariantViolation{Op: "drag_reorder", Err: err}
	}
	return nil
}

func (s *Session) moveToPositionLocked(target int) error {
	idx, ok := s.sel.Only()
	if !ok {
		return session.NewUserInputError(session.CodeSelectionCardinality,
			"select exactly one %s to move", s.doc.Kind.Noun())
	}

	visible := s.store.VisibleIndexes()
	if target < 1 || target > len(visible) {
		return session.NewUserInputError(session.CodeInvalidPosition,
			"position must be between 1 and %d", len(visible))
	}

	current := slices.Index(visible, idx)
	if current < 0 {
		return &session.InvariantViolation{
			Op:  "move_to_position",
			Err: fmt.Errorf("%w: selected index %d not visible", element.ErrNotFound, idx),
		}
	}
	if current == target-1 {
		return nil
	}

	order := slices.Delete(visible, current, current+1)
	order = slices.Insert(order, target-1, idx)
	for _, e := range s.store.Snapshot() {
		if e.Deleted {
			order = append(order, e.OriginalIndex)
		}
	}

	if err := s.store.Rebuild(order); err != nil {
		return &session.InvariantViolation{Op: "move_to_position", Err: err}
	}
	return nil
}

func (s *Session) rotateSelectedLocked(delta int) error {
	if !s.caps.Rotate {
		return session.NewUserInputError(session.CodeUnsupported,
			"%s documents cannot be rotated", s.doc.Kind)
	}
	if s.sel.Empty() {
		return session.NewUserInputError(session.CodeEmptySelection, "select elements first")
	}

	for _, idx := range s.sel.Selected() {
		if err := s.store.SetRotation(idx, delta); err != nil {
			return &session.InvariantViolation{Op: "rotate", Err: err}
		}
	}
	return nil
}

func (s *Session) deleteSelectedLocked(confirm bool) error {
	if !s.caps.Delete {
		return session.NewUserInputError(session.CodeUnsupported,
			"%s documents do not support deleting %ss", s.doc.Kind, s.doc.Kind.Noun())
	}
	if s.sel.Empty() {
		return session.NewUserInputError(session.CodeEmptySelection, "select elements first")
	}
	if !confirm {
		return session.NewUserInputError(session.CodeConfirmationRequired,
			"deleting %d %s(s) needs confirmation", s.sel.Len(), s.doc.Kind.Noun())
	}

	for _, idx := range s.sel.Selected() {
		if err := s.store.MarkDeleted(idx, true); err != nil {
			return &session.InvariantViolation{Op: "delete", Err: err}
		}
	}
	s.sel.Clear()
	return nil
}

func (s *Session) resetLocked() error {
	from := s.interp.State()
	if from == session.StateCommitting {
		if _, err := s.fire(statemachine.EventReset, "reset during commit"); err != nil {
			return &session.InvariantViolation{Op: "reset", Err: err}
		}
	}

	if err := s.store.Initialize(s.structure.TotalElements); err != nil {
		return &session.InvariantViolation{Op: "reset", Err: err}
	}
	s.sel.Clear()
	s.epoch++
	s.broken = false
	s.ledger.RecordReset(s.interp.State(), s.store.Count())

	if from == session.StateCommitting {
		s.emitLocked(notification.EventStateChanged, notification.StateChangedPayload{
			FromState: string(from),
			ToState:   string(s.interp.State()),
			Verb:      string(session.VerbReset),
		})
	}
	return nil
}

// Close ends the session. Responses for a commit in flight are discarded
// when they arrive.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.interp.State().IsTerminal() {
		s.mu.Unlock()
		return nil
	}
	_, err := s.fire(statemachine.EventClose, "document replaced")
	s.mu.Unlock()

	if err == nil {
		s.recorder.SessionClosed(ctx, string(s.doc.Kind))
	}
	return err
}

// fire sends a lifecycle event. Callers hold s.mu.
func (s *Session) fire(event statekit.EventType, reason string) (session.State, error) {
	from := s.interp.State()
	to, err := s.interp.Fire(event, reason)
	if err != nil {
		return to, err
	}

	logging.Debug().
		Add(logging.SessionID(s.id)).
		Add(logging.FromState(from)).
		Add(logging.ToState(to)).
		Add(logging.Str("event", string(event))).
		Msg("session transition")
	return to, nil
}

// beginCommit snapshots the working order and moves the session to
// committing. The returned epoch identifies the request.
func (s *Session) beginCommit(ctx context.Context) (structure.OrganizeRequest, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.broken {
		return structure.OrganizeRequest{}, 0, session.ErrSessionBroken
	}

	switch state := s.interp.State(); state {
	case session.StateReady:
	case session.StateCommitting:
		return structure.OrganizeRequest{}, 0, session.NewUserInputError(session.CodeCommitInFlight,
			"a commit is already in progress")
	case session.StateCommitted, session.StateClosed:
		return structure.OrganizeRequest{}, 0, session.ErrSessionClosed
	default:
		return structure.OrganizeRequest{}, 0, session.NewUserInputError(session.CodeBusy,
			"document is still loading")
	}

	entries := s.entriesLocked()
	if len(entries) == 0 {
		return structure.OrganizeRequest{}, 0, session.ErrEmptyDocument
	}

	req := structure.OrganizeRequest{Document: s.doc, Entries: entries}
	if _, err := s.fire(statemachine.EventCommit, "commit requested"); err != nil {
		return structure.OrganizeRequest{}, 0, &session.InvariantViolation{Op: "commit", Err: err}
	}
	s.ledger.RecordCommitRequested(req.Indexes())
	return req, s.epoch, nil
}

func (s *Session) entriesLocked() []structure.Entry {
	entries := make([]structure.Entry, 0, s.store.Len())
	for e := range s.store.VisibleOrder() {
		entry := structure.Entry{OriginalIndexReference: e.OriginalIndex}
		if s.caps.Rotate {
			rotation := e.Rotation
			entry.RotationDegrees = &rotation
		}
		entries = append(entries, entry)
	}
	return entries
}

// finishCommit reconciles a service response with the session. It reports
// ErrStaleResponse when the session was reset or closed after the request
// identified by epoch was sent.
func (s *Session) finishCommit(epoch uint64, out structure.Output, callErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.interp.State()
	if epoch != s.epoch || state != session.StateCommitting {
		s.ledger.RecordCommitDiscarded(state, out.ID)
		return session.ErrStaleResponse
	}

	if callErr != nil {
		if _, err := s.fire(statemachine.EventCommitFailed, callErr.Error()); err != nil {
			return &session.InvariantViolation{Op: "commit", Err: err}
		}
		return &session.ExternalServiceError{Op: "commit", Err: callErr}
	}

	if _, err := s.fire(statemachine.EventCommitSucceeded, "output "+out.ID); err != nil {
		return &session.InvariantViolation{Op: "commit", Err: err}
	}
	return nil
}

func (s *Session) emitLocked(eventType notification.EventType, payload any) {
	event, err := notification.NewEvent(uuid.NewString(), eventType, s.id, payload)
	if err != nil {
		return
	}
	s.pending = append(s.pending, event)
}

func (s *Session) takeEventsLocked() []*notification.Event {
	events := s.pending
	s.pending = nil
	return events
}

func (s *Session) publish(ctx context.Context, events []*notification.Event) {
	if len(events) == 0 {
		return
	}
	if err := s.notifier.NotifyBatch(ctx, events); err != nil {
		logging.Warn().
			Add(logging.SessionID(s.id)).
			Add(logging.Count(len(events))).
			Add(logging.ErrorField(err)).
			Msg("session notification failed")
	}
}
