package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/arrange-go/domain/commit"
	"github.com/felixgeelhaar/arrange-go/domain/notification"
	"github.com/felixgeelhaar/arrange-go/domain/session"
	"github.com/felixgeelhaar/arrange-go/domain/structure"
	"github.com/felixgeelhaar/arrange-go/domain/telemetry"
	"github.com/felixgeelhaar/arrange-go/infrastructure/logging"
	"github.com/felixgeelhaar/arrange-go/infrastructure/observability"
)

// ErrHistoryDisabled indicates the workspace was built without a commit
// history store.
var ErrHistoryDisabled = errors.New("commit history is not configured")

// cachedLoader is implemented by loaders that can report cache hits.
type cachedLoader interface {
	LoadCached(ctx context.Context, doc session.Document) (structure.Structure, bool, error)
}

// invalidator is implemented by loaders that cache structures.
type invalidator interface {
	Invalidate(ctx context.Context, doc session.Document) error
}

// Workspace holds the session of the currently opened document. Opening a
// document discards the previous session, and a load that completes after
// a newer one was started is discarded.
type Workspace struct {
	loader      structure.Loader
	coordinator *Coordinator
	history     commit.Store
	notifier    notification.Notifier
	tracer      telemetry.Tracer
	recorder    telemetry.Recorder
	reload      bool

	mu         sync.Mutex
	current    *Session
	generation uint64
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*workspaceOptions)

type workspaceOptions struct {
	history  commit.Store
	notifier notification.Notifier
	tracer   telemetry.Tracer
	recorder telemetry.Recorder
	reload   bool
	now      func() time.Time
}

// WithHistory records successful commits in store.
func WithHistory(store commit.Store) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.history = store
	}
}

// WithNotifier publishes session and commit events to n.
func WithNotifier(n notification.Notifier) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.notifier = n
	}
}

// WithTracer traces loads and commits.
func WithTracer(t telemetry.Tracer) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.tracer = t
	}
}

// WithRecorder records session metrics.
func WithRecorder(r telemetry.Recorder) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.recorder = r
	}
}

// WithReloadAfterCommit opens the output document of each successful
// commit as the new session.
func WithReloadAfterCommit(enabled bool) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.reload = enabled
	}
}

// WithClock sets the time source used for commit records.
func WithClock(now func() time.Time) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.now = now
	}
}

// NewWorkspace creates a workspace that loads structures with loader and
// commits arrangements with organizer.
func NewWorkspace(loader structure.Loader, organizer structure.Organizer, opts ...WorkspaceOption) (*Workspace, error) {
	if loader == nil {
		return nil, errors.New("loader is required")
	}

	o := workspaceOptions{
		notifier: notification.NopNotifier{},
		tracer:   observability.NewNoopTracer(),
		recorder: telemetry.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	coordinator, err := NewCoordinator(CoordinatorConfig{
		Organizer: organizer,
		History:   o.history,
		Notifier:  o.notifier,
		Tracer:    o.tracer,
		Recorder:  o.recorder,
		Now:       o.now,
	})
	if err != nil {
		return nil, err
	}

	return &Workspace{
		loader:      loader,
		coordinator: coordinator,
		history:     o.history,
		notifier:    o.notifier,
		tracer:      o.tracer,
		recorder:    o.recorder,
		reload:      o.reload,
	}, nil
}

// Open loads the structure of doc and makes it the current session. The
// previous session is closed. When another Open or Close starts before the
// load completes, the result is discarded with session.ErrStaleResponse.
func (w *Workspace) Open(ctx context.Context, doc session.Document) (*Session, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.generation++
	generation := w.generation
	w.mu.Unlock()

	s, err := w.load(ctx, doc)
	if err != nil {
		if w.superseded(generation) {
			return nil, session.ErrStaleResponse
		}
		return nil, err
	}

	sess, err := NewSession(SessionConfig{
		Structure: s,
		Recorder:  w.recorder,
		Notifier:  w.notifier,
	})
	if err != nil {
		return nil, &session.ExternalServiceError{Op: "load", Err: err}
	}

	w.mu.Lock()
	if generation != w.generation {
		w.mu.Unlock()
		w.recorder.Discarded(ctx, "load")
		logging.Info().
			Add(logging.Document(doc)).
			Msg("discarded stale structure load")
		return nil, session.ErrStaleResponse
	}
	previous := w.current
	w.current = sess
	w.mu.Unlock()

	if previous != nil {
		if err := previous.Close(ctx); err != nil {
			logging.Warn().
				Add(logging.SessionID(previous.ID())).
				Add(logging.ErrorField(err)).
				Msg("failed to close previous session")
		}
	}

	w.recorder.SessionOpened(ctx, string(doc.Kind))
	logging.Info().
		Add(logging.SessionID(sess.ID())).
		Add(logging.Document(doc)).
		Add(logging.Count(s.TotalElements)).
		Msg("session opened")

	w.publish(ctx, sess.ID(), notification.EventSessionOpened, notification.SessionOpenedPayload{
		DocumentRef:  doc.Ref,
		Kind:         string(doc.Kind),
		ElementCount: s.TotalElements,
	})
	return sess, nil
}

func (w *Workspace) load(ctx context.Context, doc session.Document) (structure.Structure, error) {
	ctx, span := w.tracer.StartSpan(ctx, "structure.load",
		telemetry.WithSpanKind(telemetry.SpanKindClient),
		telemetry.WithAttributes(
			telemetry.String("document.ref", doc.Ref),
			telemetry.String("document.kind", string(doc.Kind)),
		),
	)
	defer span.End()

	start := time.Now()
	var (
		s      structure.Structure
		cached bool
		err    error
	)
	if cl, ok := w.loader.(cachedLoader); ok {
		s, cached, err = cl.LoadCached(ctx, doc)
	} else {
		s, err = w.loader.Load(ctx, doc)
	}
	duration := time.Since(start)
	w.recorder.Load(ctx, string(doc.Kind), cached, err == nil, duration)

	if err != nil {
		logging.Warn().
			Add(logging.Document(doc)).
			Add(logging.Duration(duration)).
			Add(logging.ErrorField(err)).
			Msg("structure load failed")
		span.RecordError(err)
		span.SetStatus(telemetry.StatusCodeError, err.Error())
		return structure.Structure{}, &session.ExternalServiceError{Op: "load", Err: err}
	}
	s.Document = doc

	logging.Debug().
		Add(logging.Document(doc)).
		Add(logging.Count(s.TotalElements)).
		Add(logging.Cached(cached)).
		Add(logging.Duration(duration)).
		Msg("structure loaded")
	span.SetAttributes(
		telemetry.Int("document.elements", s.TotalElements),
		telemetry.Bool("cache.hit", cached),
	)
	span.SetStatus(telemetry.StatusCodeOK, "")
	return s, nil
}

func (w *Workspace) superseded(generation uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return generation != w.generation
}

// Session returns the current session.
func (w *Workspace) Session() (*Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return nil, session.ErrNoSession
	}
	return w.current, nil
}

// Dispatch executes a command on the current session.
func (w *Workspace) Dispatch(ctx context.Context, cmd session.Command) error {
	s, err := w.Session()
	if err != nil {
		return err
	}
	return s.Dispatch(ctx, cmd)
}

// Commit submits the current session. With reload after commit enabled,
// the output document is opened as the new session; a failed reload is
// returned together with the successful result.
func (w *Workspace) Commit(ctx context.Context) (CommitResult, error) {
	s, err := w.Session()
	if err != nil {
		return CommitResult{}, err
	}

	res, err := w.coordinator.Commit(ctx, s)
	if err != nil || !w.reload {
		return res, err
	}

	next := session.Document{Ref: res.Output.ID, Kind: s.Document().Kind}
	if _, err := w.Open(ctx, next); err != nil {
		return res, fmt.Errorf("reload output %s: %w", res.Output.ID, err)
	}
	return res, nil
}

// Refresh fetches the structure of the current document again, bypassing
// the cache, and replaces the session with a fresh one.
func (w *Workspace) Refresh(ctx context.Context) (*Session, error) {
	s, err := w.Session()
	if err != nil {
		return nil, err
	}

	doc := s.Document()
	if inv, ok := w.loader.(invalidator); ok {
		if err := inv.Invalidate(ctx, doc); err != nil {
			logging.Warn().
				Add(logging.Document(doc)).
				Add(logging.ErrorField(err)).
				Msg("failed to invalidate cached structure")
		}
	}
	return w.Open(ctx, doc)
}

// History lists recorded commits.
func (w *Workspace) History(ctx context.Context, filter commit.ListFilter) ([]commit.Record, error) {
	if w.history == nil {
		return nil, ErrHistoryDisabled
	}
	return w.history.List(ctx, filter)
}

// Close closes the current session and discards loads in flight.
func (w *Workspace) Close(ctx context.Context) error {
	w.mu.Lock()
	w.generation++
	current := w.current
	w.current = nil
	w.mu.Unlock()

	if current == nil {
		return nil
	}
	return current.Close(ctx)
}

func (w *Workspace) publish(ctx context.Context, sessionID string, eventType notification.EventType, payload any) {
	event, err := notification.NewEvent(uuid.NewString(), eventType, sessionID, payload)
	if err != nil {
		return
	}
	if err := w.notifier.Notify(ctx, event); err != nil {
		logging.Warn().
			Add(logging.SessionID(sessionID)).
			Add(logging.ErrorField(err)).
			Msg("session notification failed")
	}
}
