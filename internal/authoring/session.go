package authoring

import (
	"errors"
	"fmt"
)

// SessionState is the lifecycle position of an authoring session.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateEditing    SessionState = "editing"
	StateValidating SessionState = "validating"
	StateWriting    SessionState = "writing"
	StateClosed     SessionState = "closed"
)

// ErrInvalidTransition is returned when a session is asked to move along an
// edge its current state does not have.
var ErrInvalidTransition = errors.New("invalid session transition")

var transitions = map[SessionState][]SessionState{
	StateIdle:       {StateEditing, StateClosed},
	StateEditing:    {StateValidating, StateClosed},
	StateValidating: {StateEditing, StateWriting},
	StateWriting:    {StateEditing, StateClosed},
}

// Machine guards the transitions of one session. The zero value is idle.
type Machine struct {
	state   SessionState
	lastErr string
}

// State reports the current state.
func (m *Machine) State() SessionState {
	if m.state == "" {
		return StateIdle
	}
	return m.state
}

// LastError is the message recorded by the most recent failed transition
// back to editing.
func (m *Machine) LastError() string {
	return m.lastErr
}

// Transition moves to next or returns ErrInvalidTransition.
func (m *Machine) Transition(next SessionState) error {
	current := m.State()
	for _, allowed := range transitions[current] {
		if allowed == next {
			m.state = next
			m.lastErr = ""
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
}

// Fail returns the session to editing and records reason.
func (m *Machine) Fail(reason string) error {
	if err := m.Transition(StateEditing); err != nil {
		return err
	}
	m.lastErr = reason
	return nil
}

// CanEdit reports whether form edits are accepted in the current state.
func (m *Machine) CanEdit() bool {
	return m.State() == StateEditing
}
