// Package api provides the public API for arrange-go.
//
// A Workspace holds at most one rearrangement session at a time. Open loads
// a document's structure and starts a session, the session's verbs edit the
// working order, and Commit submits the visible order to the processing
// service:
//
//	ws, err := api.New(api.WithService("https://files.example.com", token))
//	if err != nil {
//		return err
//	}
//	s, err := ws.Open(ctx, api.Document{Ref: fileID, Kind: api.KindPDF})
//	...
//	_ = s.DragReorder(ctx, 0, 3)
//	res, err := ws.Commit(ctx)
package api

import (
	"errors"
	"time"

	"github.com/felixgeelhaar/arrange-go/application"
	"github.com/felixgeelhaar/arrange-go/domain/cache"
	"github.com/felixgeelhaar/arrange-go/domain/commit"
	"github.com/felixgeelhaar/arrange-go/domain/element"
	"github.com/felixgeelhaar/arrange-go/domain/notification"
	"github.com/felixgeelhaar/arrange-go/domain/session"
	"github.com/felixgeelhaar/arrange-go/domain/structure"
	"github.com/felixgeelhaar/arrange-go/domain/telemetry"
	"github.com/felixgeelhaar/arrange-go/infrastructure/processing"
)

// Re-export application types.
type (
	// Workspace owns the current session and commits it.
	Workspace = application.Workspace
	// Session is a rearrangement session over one document.
	Session = application.Session
	// CommitResult describes a successful commit.
	CommitResult = application.CommitResult
	// DragSession tracks a pointer drag over the visible order.
	DragSession = application.DragSession
)

// Re-export domain types.
type (
	// Document identifies the document a session rearranges.
	Document = session.Document
	// Kind identifies the type of paged document.
	Kind = session.Kind
	// State is a session lifecycle state.
	State = session.State
	// Command is a tagged verb invocation.
	Command = session.Command
	// VerbKind names a verb.
	VerbKind = session.VerbKind
	// ErrorCode classifies user input errors.
	ErrorCode = session.ErrorCode
	// UserInputError is a recoverable rejection of a verb.
	UserInputError = session.UserInputError
	// InvariantViolation marks the session broken until reset.
	InvariantViolation = session.InvariantViolation
	// ExternalServiceError wraps a processing service failure.
	ExternalServiceError = session.ExternalServiceError
	// Element is a page or sheet in the working order.
	Element = element.Element
	// Structure is the element metadata of a document.
	Structure = structure.Structure
	// ElementInfo is the source metadata of one element.
	ElementInfo = structure.ElementInfo
	// Output references a produced document.
	Output = structure.Output
	// CommitRecord is a successful commit in history.
	CommitRecord = commit.Record
	// HistoryFilter filters commit history.
	HistoryFilter = commit.ListFilter
)

// Document kinds.
const (
	KindPDF  = session.KindPDF
	KindDOCX = session.KindDOCX
	KindXLSX = session.KindXLSX
)

// Session states.
const (
	StateLoading    = session.StateLoading
	StateReady      = session.StateReady
	StateCommitting = session.StateCommitting
	StateCommitted  = session.StateCommitted
	StateClosed     = session.StateClosed
)

// Session errors.
var (
	ErrEmptyDocument      = session.ErrEmptyDocument
	ErrStaleResponse      = session.ErrStaleResponse
	ErrSessionClosed      = session.ErrSessionClosed
	ErrSessionBroken      = session.ErrSessionBroken
	ErrNoSession          = session.ErrNoSession
	ErrUnknownKind        = session.ErrUnknownKind
	ErrDocumentNotFound   = structure.ErrDocumentNotFound
	ErrHistoryDisabled    = application.ErrHistoryDisabled
	ErrMissingDocumentRef = session.ErrMissingDocumentRef
)

// ParseKind parses a kind name such as "pdf" or ".XLSX".
func ParseKind(s string) (Kind, error) {
	return session.ParseKind(s)
}

// IsUserError reports whether err is a recoverable verb rejection.
func IsUserError(err error) bool {
	return session.IsUserError(err)
}

// HasCode reports whether err is a user input error with the given code.
func HasCode(err error, code ErrorCode) bool {
	return session.HasCode(err, code)
}

// IsExternal reports whether err came from the processing service.
func IsExternal(err error) bool {
	return session.IsExternal(err)
}

// NewDragSession creates a drag helper for s.
func NewDragSession(s *Session) *DragSession {
	return application.NewDragSession(s)
}

// Option configures a workspace created by New.
type Option func(*options)

type options struct {
	service   processing.Config
	httpOpts  []processing.Option
	loader    structure.Loader
	organizer structure.Organizer
	cache     cache.Cache
	cacheTTL  time.Duration
	workspace []application.WorkspaceOption
}

// WithService points the workspace at a processing service.
func WithService(baseURL, token string) Option {
	return func(o *options) {
		o.service.BaseURL = baseURL
		o.service.Token = token
	}
}

// WithServiceConfig replaces the processing client configuration.
func WithServiceConfig(cfg processing.Config) Option {
	return func(o *options) {
		o.service = cfg
	}
}

// WithLoader replaces the structure loader.
func WithLoader(l structure.Loader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithOrganizer replaces the commit organizer.
func WithOrganizer(org structure.Organizer) Option {
	return func(o *options) {
		o.organizer = org
	}
}

// WithCache caches loaded structures in c.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(o *options) {
		o.cache = c
		o.cacheTTL = ttl
	}
}

// WithHistory records successful commits in store.
func WithHistory(store commit.Store) Option {
	return func(o *options) {
		o.workspace = append(o.workspace, application.WithHistory(store))
	}
}

// WithNotifier publishes session events through n.
func WithNotifier(n notification.Notifier) Option {
	return func(o *options) {
		o.workspace = append(o.workspace, application.WithNotifier(n))
	}
}

// WithTracer traces loads and commits.
func WithTracer(t telemetry.Tracer) Option {
	return func(o *options) {
		o.workspace = append(o.workspace, application.WithTracer(t))
		o.httpOpts = append(o.httpOpts, processing.WithTracer(t))
	}
}

// WithRecorder records session metrics.
func WithRecorder(r telemetry.Recorder) Option {
	return func(o *options) {
		o.workspace = append(o.workspace, application.WithRecorder(r))
	}
}

// WithReloadAfterCommit opens the output document after each commit.
func WithReloadAfterCommit(enabled bool) Option {
	return func(o *options) {
		o.workspace = append(o.workspace, application.WithReloadAfterCommit(enabled))
	}
}

// New creates a workspace. Without WithLoader or WithOrganizer the
// processing client configured by WithService fills the gaps.
func New(opts ...Option) (*Workspace, error) {
	o := &options{service: processing.DefaultConfig()}
	for _, opt := range opts {
		opt(o)
	}

	if o.loader == nil || o.organizer == nil {
		if o.service.BaseURL == "" {
			return nil, errors.New("a processing service or a loader and organizer is required")
		}
		client := processing.New(o.service, o.httpOpts...)
		if o.loader == nil {
			o.loader = client
		}
		if o.organizer == nil {
			o.organizer = client
		}
	}

	loader := o.loader
	if o.cache != nil {
		loader = application.NewCachingLoader(loader, o.cache, o.cacheTTL)
	}
	return application.NewWorkspace(loader, o.organizer, o.workspace...)
}
