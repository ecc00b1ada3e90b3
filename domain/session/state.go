// Package session provides the domain model for a rearrangement session.
//
// A session owns the working order of one loaded document from the moment
// its structure is fetched until the arrangement is committed or the
// document is replaced.
package session

// State identifies the lifecycle stage of a session.
type State string

// Session lifecycle states.
const (
	StateLoading    State = "loading"    // Structure being fetched
	StateReady      State = "ready"      // Accepting verbs
	StateCommitting State = "committing" // Request in flight
	StateCommitted  State = "committed"  // Terminal success
	StateClosed     State = "closed"     // Replaced by another document
)

// IsTerminal returns true if no further verbs are accepted.
func (s State) IsTerminal() bool {
	return s == StateCommitted || s == StateClosed
}

// AcceptsVerbs returns true if mutating verbs may run.
func (s State) AcceptsVerbs() bool {
	return s == StateReady
}

// IsValid returns true if the state is a recognized lifecycle state.
func (s State) IsValid() bool {
	switch s {
	case StateLoading, StateReady, StateCommitting, StateCommitted, StateClosed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// AllStates returns all lifecycle states.
func AllStates() []State {
	return []State{StateLoading, StateReady, StateCommitting, StateCommitted, StateClosed}
}
