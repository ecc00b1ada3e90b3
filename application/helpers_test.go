package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/arrange-go/domain/notification"
	"github.com/felixgeelhaar/arrange-go/domain/session"
	"github.com/felixgeelhaar/arrange-go/domain/structure"
)

func pdf(ref string) session.Document {
	return session.Document{Ref: ref, Kind: session.KindPDF}
}

func newTestSession(t *testing.T, doc session.Document, count int) *Session {
	t.Helper()
	s, err := NewSession(SessionConfig{
		Structure: structure.Structure{Document: doc, TotalElements: count},
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

func assertOrder(t *testing.T, s *Session, want ...int) {
	t.Helper()
	got := s.VisibleIndexes()
	if len(got) != len(want) {
		t.Fatalf("VisibleIndexes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("VisibleIndexes() = %v, want %v", got, want)
		}
	}
}

// fakeLoader serves structures from a map of element counts.
type fakeLoader struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
	calls  int

	// gate, when set, blocks loads of the matching ref until closed.
	gate    chan struct{}
	gateRef string
	started chan struct{}
}

func (l *fakeLoader) Load(ctx context.Context, doc session.Document) (structure.Structure, error) {
	l.mu.Lock()
	l.calls++
	gate, gateRef, started := l.gate, l.gateRef, l.started
	count, ok := l.counts[doc.Ref]
	err := l.err
	l.mu.Unlock()

	if gate != nil && doc.Ref == gateRef {
		if started != nil {
			close(started)
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return structure.Structure{}, ctx.Err()
		}
	}

	if err != nil {
		return structure.Structure{}, err
	}
	if !ok {
		return structure.Structure{}, &structure.ServiceError{Status: 404, Message: "not found"}
	}
	return structure.Structure{Document: doc, TotalElements: count}, nil
}

func (l *fakeLoader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// fakeOrganizer records requests and returns a fixed output.
type fakeOrganizer struct {
	mu       sync.Mutex
	requests []structure.OrganizeRequest
	output   structure.Output
	err      error

	// gate, when set, blocks Organize until closed.
	gate    chan struct{}
	started chan struct{}
}

func (o *fakeOrganizer) Organize(ctx context.Context, req structure.OrganizeRequest) (structure.Output, error) {
	o.mu.Lock()
	o.requests = append(o.requests, req)
	gate, started := o.gate, o.started
	o.mu.Unlock()

	if gate != nil {
		if started != nil {
			close(started)
		}
		<-gate
	}
	if o.err != nil {
		return structure.Output{}, o.err
	}
	return o.output, nil
}

func (o *fakeOrganizer) Requests() []structure.OrganizeRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]structure.OrganizeRequest(nil), o.requests...)
}

// recordingNotifier collects published events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []*notification.Event
}

func (n *recordingNotifier) Notify(_ context.Context, event *notification.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) NotifyBatch(ctx context.Context, events []*notification.Event) error {
	for _, e := range events {
		_ = n.Notify(ctx, e)
	}
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) Types() []notification.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]notification.EventType, len(n.events))
	for i, e := range n.events {
		types[i] = e.Type
	}
	return types
}

func (n *recordingNotifier) Has(eventType notification.EventType) bool {
	for _, t := range n.Types() {
		if t == eventType {
			return true
		}
	}
	return false
}

// countingRecorder counts recorder calls.
type countingRecorder struct {
	mu        sync.Mutex
	opened    int
	closed    int
	applied   int
	rejected  int
	loads     int
	cached    int
	commits   int
	failures  int
	discarded []string
}

func (r *countingRecorder) SessionOpened(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened++
}

func (r *countingRecorder) SessionClosed(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
}

func (r *countingRecorder) Verb(_ context.Context, _ string, applied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if applied {
		r.applied++
	} else {
		r.rejected++
	}
}

func (r *countingRecorder) Transition(context.Context, string, string) {}

func (r *countingRecorder) Load(_ context.Context, _ string, cached, _ bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	if cached {
		r.cached++
	}
}

func (r *countingRecorder) Commit(_ context.Context, _ string, success bool, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if success {
		r.commits++
	} else {
		r.failures++
	}
}

func (r *countingRecorder) Discarded(_ context.Context, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discarded = append(r.discarded, op)
}
