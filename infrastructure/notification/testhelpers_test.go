package notification

import (
	"sync"

	"github.com/felixgeelhaar/arrange-go/domain/notification"
)

func newTestEvent(sessionID string) *notification.Event {
	event, _ := notification.NewEvent("evt-1", notification.EventCommitSucceeded, sessionID, notification.CommitSucceededPayload{
		RecordID:    "rec-1",
		DocumentRef: "doc-1",
		Kind:        "pdf",
		Order:       []int{2, 1},
	})
	return event
}

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]*notification.Event
}

func (r *batchRecorder) record(batch []*notification.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, batch)
}

func (r *batchRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *batchRecorder) sizes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.batches))
	for i, b := range r.batches {
		out[i] = len(b)
	}
	return out
}
