// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives an idea through the backend's sequential stages:
// save, collect, analyze, generate report. A Machine holds the stage state
// and rejects out-of-order transitions; a Runner executes the chain against
// the API and reports progress to an observer.
package pipeline

import (
	"errors"
	"fmt"
	"sync"
)

// State is one stage of the chain.
type State string

const (
	Idle             State = "idle"
	Saving           State = "saving"
	Collecting       State = "collecting"
	Analyzing        State = "analyzing"
	GeneratingReport State = "generating_report"
	Done             State = "done"
	Failed           State = "failed"
)

// ErrInvalidTransition is returned for a transition the chain does not allow.
var ErrInvalidTransition = errors.New("invalid pipeline transition")

// next maps each state to the only state it may advance to on success.
var next = map[State]State{
	Idle:             Saving,
	Saving:           Collecting,
	Collecting:       Analyzing,
	Analyzing:        GeneratingReport,
	GeneratingReport: Done,
}

// stageMessages are the user-facing summaries for a failure in each stage.
var stageMessages = map[State]string{
	Saving:           "could not save the idea",
	Collecting:       "data collection failed",
	Analyzing:        "analysis failed",
	GeneratingReport: "report generation failed",
}

// Running reports whether s is one of the working stages.
func (s State) Running() bool {
	_, ok := stageMessages[s]
	return ok
}

// Terminal reports whether s is done or failed.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// StageError reports which stage aborted the chain.
type StageError struct {
	Stage   State
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Machine is the chain's state. It is safe for concurrent use.
type Machine struct {
	mu    sync.Mutex
	state State
	err   *StageError
}

// NewMachine returns a machine in Idle.
func NewMachine() *Machine {
	return &Machine{state: Idle}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the error that moved the machine to Failed, or nil.
func (m *Machine) Err() *StageError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Advance moves to the successor of the current state and returns it.
func (m *Machine) Advance() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	to, ok := next[m.state]
	if !ok {
		return m.state, fmt.Errorf("%w: %s has no successor", ErrInvalidTransition, m.state)
	}
	m.state = to
	return to, nil
}

// Transition moves to to, which must be the successor of the current state.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if next[m.state] != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	m.state = to
	return nil
}

// Fail aborts the chain from the current working stage. Failed is absorbing
// until Reset.
func (m *Machine) Fail(cause error) (*StageError, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Running() {
		return nil, fmt.Errorf("%w: cannot fail from %s", ErrInvalidTransition, m.state)
	}
	m.err = &StageError{Stage: m.state, Message: stageMessages[m.state], Err: cause}
	m.state = Failed
	return m.err, nil
}

// Reset returns a finished machine to Idle.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Terminal() {
		return fmt.Errorf("%w: cannot reset from %s", ErrInvalidTransition, m.state)
	}
	m.state = Idle
	m.err = nil
	return nil
}
