package application

import (
	"context"
	"errors"
	"strconv"
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

// CoordinatorConfig contains configuration for a commit coordinator.
type CoordinatorConfig struct {
	// Organizer submits arrangements to the processing service. Required.
	Organizer structure.Organizer

	// History records successful commits. Optional.
	History commit.Store

	// Notifier receives commit events. Optional.
	Notifier notification.Notifier

	// Tracer traces commits. Optional.
	Tracer telemetry.Tracer

	// Recorder receives commit metrics. Optional.
	Recorder telemetry.Recorder

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Coordinator serializes a session's working order, submits it, and
// reconciles the response with the session.
type Coordinator struct {
	organizer structure.Organizer
	history   commit.Store
	notifier  notification.Notifier
	tracer    telemetry.Tracer
	recorder  telemetry.Recorder
	now       func() time.Time
}

// NewCoordinator creates a commit coordinator.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.Organizer == nil {
		return nil, errors.New("organizer is required")
	}

	c := &Coordinator{
		organizer: cfg.Organizer,
		history:   cfg.History,
		notifier:  cfg.Notifier,
		tracer:    cfg.Tracer,
		recorder:  cfg.Recorder,
		now:       cfg.Now,
	}
	if c.notifier == nil {
		c.notifier = notification.NopNotifier{}
	}
	if c.tracer == nil {
		c.tracer = observability.NewNoopTracer()
	}
	if c.recorder == nil {
		c.recorder = telemetry.NoopRecorder{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// CommitResult describes a successful commit.
type CommitResult struct {
	Output structure.Output `json:"output"`
	Record commit.Record    `json:"record"`
}

// Commit submits the visible order of s. An empty order fails with
// session.ErrEmptyDocument before any request is sent. A response that
// arrives after s was reset or closed is discarded with
// session.ErrStaleResponse.
func (c *Coordinator) Commit(ctx context.Context, s *Session) (CommitResult, error) {
	req, epoch, err := s.beginCommit(ctx)
	if err != nil {
		return CommitResult{}, err
	}

	kind := string(req.Document.Kind)
	ctx, span := c.tracer.StartSpan(ctx, "session.commit",
		telemetry.WithSpanKind(telemetry.SpanKindClient),
		telemetry.WithAttributes(
			telemetry.String("session.id", s.ID()),
			telemetry.String("document.ref", req.Document.Ref),
			telemetry.String("document.kind", kind),
			telemetry.Int("commit.elements", len(req.Entries)),
		),
	)
	defer span.End()

	c.publish(ctx, s, []*notification.Event{c.event(notification.EventStateChanged, s.ID(), notification.StateChangedPayload{
		FromState: string(session.StateReady),
		ToState:   string(session.StateCommitting),
	})})

	start := c.now()
	out, callErr := c.organizer.Organize(ctx, req)
	duration := c.now().Sub(start)

	if err := s.finishCommit(epoch, out, callErr); err != nil {
		switch {
		case errors.Is(err, session.ErrStaleResponse):
			c.discarded(ctx, s, req, out)
		case session.IsExternal(err):
			c.failed(ctx, s, req, callErr, duration)
		}
		span.RecordError(err)
		span.SetStatus(telemetry.StatusCodeError, err.Error())
		return CommitResult{}, err
	}

	rec := commit.Record{
		ID:          uuid.NewString(),
		SessionID:   s.ID(),
		Document:    req.Document,
		Entries:     req.Entries,
		Output:      out,
		CommittedAt: c.now(),
	}
	c.succeeded(ctx, s, rec, duration)

	span.AddEvent("commit.order", telemetry.Ints("original_indexes", rec.Indexes()))
	span.SetAttributes(telemetry.String("output.id", out.ID))
	span.SetStatus(telemetry.StatusCodeOK, "")
	return CommitResult{Output: out, Record: rec}, nil
}

func (c *Coordinator) succeeded(ctx context.Context, s *Session, rec commit.Record, duration time.Duration) {
	kind := string(rec.Document.Kind)
	s.Ledger().RecordCommitSucceeded(rec.Output.ID, duration)
	c.recorder.Commit(ctx, kind, true, len(rec.Entries), duration)

	logging.Info().
		Add(logging.SessionID(s.ID())).
		Add(logging.Document(rec.Document)).
		Add(logging.Count(len(rec.Entries))).
		Add(logging.Str("output_id", rec.Output.ID)).
		Add(logging.Duration(duration)).
		Msg("commit succeeded")

	if c.history != nil {
		if err := c.history.Save(ctx, rec); err != nil {
			logging.Warn().
				Add(logging.SessionID(s.ID())).
				Add(logging.Str("record_id", rec.ID)).
				Add(logging.ErrorField(err)).
				Msg("failed to record commit history")
		}
	}

	c.publish(ctx, s, []*notification.Event{
		c.event(notification.EventStateChanged, s.ID(), notification.StateChangedPayload{
			FromState: string(session.StateCommitting),
			ToState:   string(session.StateCommitted),
		}),
		c.event(notification.EventCommitSucceeded, s.ID(), notification.CommitSucceededPayload{
			RecordID:    rec.ID,
			DocumentRef: rec.Document.Ref,
			Kind:        kind,
			Order:       rec.Indexes(),
			OutputID:    rec.Output.ID,
			OutputURL:   rec.Output.URL,
			Duration:    duration,
		}),
	})
}

func (c *Coordinator) failed(ctx context.Context, s *Session, req structure.OrganizeRequest, callErr error, duration time.Duration) {
	kind := string(req.Document.Kind)
	s.Ledger().RecordCommitFailed(callErr, duration)
	c.recorder.Commit(ctx, kind, false, len(req.Entries), duration)

	logging.Warn().
		Add(logging.SessionID(s.ID())).
		Add(logging.Document(req.Document)).
		Add(logging.Duration(duration)).
		Add(logging.ErrorField(callErr)).
		Msg("commit failed")

	payload := notification.CommitFailedPayload{
		DocumentRef: req.Document.Ref,
		Kind:        kind,
		Error:       callErr.Error(),
	}
	var svcErr *structure.ServiceError
	if errors.As(callErr, &svcErr) {
		payload.Code = strconv.Itoa(svcErr.Status)
	}

	c.publish(ctx, s, []*notification.Event{
		c.event(notification.EventStateChanged, s.ID(), notification.StateChangedPayload{
			FromState: string(session.StateCommitting),
			ToState:   string(session.StateReady),
		}),
		c.event(notification.EventCommitFailed, s.ID(), payload),
	})
}

func (c *Coordinator) discarded(ctx context.Context, s *Session, req structure.OrganizeRequest, out structure.Output) {
	c.recorder.Discarded(ctx, "commit")

	logging.Info().
		Add(logging.SessionID(s.ID())).
		Add(logging.Document(req.Document)).
		Add(logging.Str("output_id", out.ID)).
		Msg("discarded stale commit response")

	c.publish(ctx, s, []*notification.Event{
		c.event(notification.EventCommitDiscarded, s.ID(), notification.CommitDiscardedPayload{
			DocumentRef: req.Document.Ref,
			OutputID:    out.ID,
		}),
	})
}

func (c *Coordinator) event(eventType notification.EventType, sessionID string, payload any) *notification.Event {
	event, _ := notification.NewEvent(uuid.NewString(), eventType, sessionID, payload)
	return event
}

func (c *Coordinator) publish(ctx context.Context, s *Session, events []*notification.Event) {
	if err := c.notifier.NotifyBatch(ctx, events); err != nil {
		logging.Warn().
			Add(logging.SessionID(s.ID())).
			Add(logging.Count(len(events))).
			Add(logging.ErrorField(err)).
			Msg("commit notification failed")
	}
}
