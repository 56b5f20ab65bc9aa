package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionEnded is returned when input arrives for a call that already ended.
var ErrSessionEnded = errors.New("session already ended")

// ErrFlowNotFound is returned when a flow name is not part of the active definitions.
var ErrFlowNotFound = errors.New("flow not found")

// UnknownFlowError is raised during a turn when a cross-flow jump names a missing flow.
type UnknownFlowError struct {
	From string
	Flow string
}

func (e *UnknownFlowError) Error() string {
	return fmt.Sprintf("flow %q: jump to unknown flow %q", e.From, e.Flow)
}

func (e *UnknownFlowError) Unwrap() error {
	return ErrFlowNotFound
}

// MalformedStateError is raised when a reachable state cannot be rendered.
type MalformedStateError struct {
	Flow   string
	State  string
	Reason string
}

func (e *MalformedStateError) Error() string {
	return fmt.Sprintf("flow %q state %q is malformed: %s", e.Flow, e.State, e.Reason)
}

// StateNotFoundError is raised when a state id does not exist in its flow,
// typically because a reload removed it while a call was parked there.
// Err is set when the whole flow is gone.
type StateNotFoundError struct {
	Flow  string
	State string
	Err   error
}

func (e *StateNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("state %q of flow %q: %v", e.State, e.Flow, e.Err)
	}
	return fmt.Sprintf("flow %q has no state %q", e.Flow, e.State)
}

func (e *StateNotFoundError) Unwrap() error { return e.Err }

// RejectionError is returned by a collect validator refusing the input.
type RejectionError struct {
	Field  string
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("input rejected for %q: %s", e.Field, e.Reason)
}
