// Package statemachine provides the statekit integration for session lifecycles.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/arrange-go/domain/ledger"
	"github.com/felixgeelhaar/arrange-go/domain/session"
	"github.com/felixgeelhaar/arrange-go/domain/telemetry"
)

// Context carries session state through the state machine.
type Context struct {
	SessionID string
	Ledger    *ledger.Ledger
	Recorder  telemetry.Recorder

	// CanCommit reports whether the working order may be committed.
	CanCommit func() bool

	current session.State
}

// NewContext creates a new machine context.
func NewContext(sessionID string, l *ledger.Ledger, canCommit func() bool) *Context {
	return &Context{
		SessionID: sessionID,
		Ledger:    l,
		Recorder:  telemetry.NoopRecorder{},
		CanCommit: canCommit,
		current:   session.StateLoading,
	}
}

// Current returns the state last recorded by the machine actions.
func (c *Context) Current() session.State {
	return c.current
}

// Lifecycle events.
const (
	EventLoaded          = "LOADED"
	EventCommit          = "COMMIT"
	EventCommitSucceeded = "COMMIT_SUCCEEDED"
	EventCommitFailed    = "COMMIT_FAILED"
	EventReset           = "RESET"
	EventClose           = "CLOSE"
)

const machineID = "session"

// State IDs as StateID type for statekit.
const (
	stateLoading    statekit.StateID = statekit.StateID(session.StateLoading)
	stateReady      statekit.StateID = statekit.StateID(session.StateReady)
	stateCommitting statekit.StateID = statekit.StateID(session.StateCommitting)
	stateCommitted  statekit.StateID = statekit.StateID(session.StateCommitted)
	stateClosed     statekit.StateID = statekit.StateID(session.StateClosed)
)

// transitions mirrors the chart below and lets the interpreter reject an
// event before handing it to statekit.
var transitions = map[session.State]map[statekit.EventType]session.State{
	session.StateLoading: {
		EventLoaded: session.StateReady,
		EventClose:  session.StateClosed,
	},
	session.StateReady: {
		EventCommit: session.StateCommitting,
		EventClose:  session.StateClosed,
	},
	session.StateCommitting: {
		EventCommitSucceeded: session.StateCommitted,
		EventCommitFailed:    session.StateReady,
		EventReset:           session.StateReady,
		EventClose:           session.StateClosed,
	},
}

// Target returns the state an event leads to from the given state.
func Target(from session.State, event statekit.EventType) (session.State, bool) {
	to, ok := transitions[from][event]
	return to, ok
}

// NewSessionMachine creates the session lifecycle statechart.
func NewSessionMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context](machineID).
		WithInitial(stateLoading).
		WithContext(&Context{}).
		WithAction("logEntry", logStateEntry).
		WithAction("recordTransition", recordTransition).
		WithGuard("canCommit", guardCanCommit).
		State(stateLoading).
			OnEntry("logEntry").
			On(EventLoaded).Target(stateReady).Do("recordTransition").
			On(EventClose).Target(stateClosed).Do("recordTransition").
			Done().
		State(stateReady).
			OnEntry("logEntry").
			On(EventCommit).Target(stateCommitting).Guard("canCommit").Do("recordTransition").
			On(EventClose).Target(stateClosed).Do("recordTransition").
			Done().
		State(stateCommitting).
			OnEntry("logEntry").
			On(EventCommitSucceeded).Target(stateCommitted).Do("recordTransition").
			On(EventCommitFailed).Target(stateReady).Do("recordTransition").
			On(EventReset).Target(stateReady).Do("recordTransition").
			On(EventClose).Target(stateClosed).Do("recordTransition").
			Done().
		State(stateCommitted).
			Final().
			OnEntry("logEntry").
			Done().
		State(stateClosed).
			Final().
			OnEntry("logEntry").
			Done().
		Build()
}

// StateFromMachine converts the machine state ID to a session state.
func StateFromMachine(stateID statekit.StateID) session.State {
	return session.State(stateID)
}
