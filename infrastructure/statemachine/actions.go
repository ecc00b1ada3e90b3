package statemachine

import (
	"context"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/arrange-go/infrastructure/logging"
)

// logStateEntry logs when entering a state.
// Actions receive a pointer to the context; the context is *Context, so
// actions receive **Context.
func logStateEntry(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	c := *ctx

	payload, ok := event.Payload.(TransitionPayload)
	if !ok {
		return
	}
	c.current = payload.To

	logging.Debug().
		Add(logging.SessionID(c.SessionID)).
		Add(logging.State(payload.To)).
		Add(logging.Str("event", string(event.Type))).
		Msg("entered state")
}

// recordTransition records the state transition in the ledger.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	c := *ctx

	payload, ok := event.Payload.(TransitionPayload)
	if !ok {
		return
	}

	if c.Ledger != nil {
		c.Ledger.RecordTransition(payload.From, payload.To, payload.Reason)
	}
	if c.Recorder != nil {
		c.Recorder.Transition(context.Background(), string(payload.From), string(payload.To))
	}
	c.current = payload.To
}
