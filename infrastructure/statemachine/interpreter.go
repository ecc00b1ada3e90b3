package statemachine

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/arrange-go/domain/session"
)

// ErrTransitionRejected indicates an event that is not valid in the
// current state or whose guard did not pass.
var ErrTransitionRejected = errors.New("transition rejected")

// TransitionPayload carries additional data with a transition event.
type TransitionPayload struct {
	From   session.State
	To     session.State
	Reason string
}

// Interpreter wraps the statekit interpreter with session-specific
// functionality.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates a new interpreter for the session machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{
		interp: interp,
		ctx:    ctx,
	}
}

// NewSessionInterpreter builds the machine and a started interpreter.
func NewSessionInterpreter(ctx *Context) (*Interpreter, error) {
	machine, err := NewSessionMachine()
	if err != nil {
		return nil, fmt.Errorf("build session machine: %w", err)
	}
	i := NewInterpreter(machine, ctx)
	i.Start()
	return i, nil
}

// Start initializes the interpreter and enters the initial state.
func (i *Interpreter) Start() {
	i.interp.Start()
	i.ctx.current = session.State(i.interp.State().Value)
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// State returns the current state.
func (i *Interpreter) State() session.State {
	return session.State(i.interp.State().Value)
}

// Can reports whether event is defined for the current state. Guards are
// not evaluated.
func (i *Interpreter) Can(event statekit.EventType) bool {
	_, ok := Target(i.State(), event)
	return ok
}

// Fire sends event and returns the resulting state.
func (i *Interpreter) Fire(event statekit.EventType, reason string) (session.State, error) {
	from := i.State()
	to, ok := Target(from, event)
	if !ok {
		return from, fmt.Errorf("%w: %s in %s", ErrTransitionRejected, event, from)
	}

	// statekit panics on events it cannot route; Target has already
	// confirmed the route exists.
	i.interp.Send(statekit.Event{
		Type:    event,
		Payload: TransitionPayload{From: from, To: to, Reason: reason},
	})

	if got := i.State(); got != to {
		return got, fmt.Errorf("%w: %s in %s blocked by guard", ErrTransitionRejected, event, from)
	}
	return to, nil
}

// IsTerminal returns true if the interpreter is in a final state.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Matches checks if the current state matches the given state.
func (i *Interpreter) Matches(state session.State) bool {
	return i.interp.Matches(statekit.StateID(state))
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}
