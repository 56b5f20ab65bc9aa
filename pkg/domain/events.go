package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateEnter EventType = "state_enter"
	EventFlowJump   EventType = "flow_jump"
	EventRecovery   EventType = "recovery"
	EventReload     EventType = "reload"
	EventCallEnd    EventType = "call_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// StateEvent is emitted when a turn lands on a state.
type StateEvent struct {
	EventBase
	Flow  string     `json:"flow"`
	State string     `json:"state"`
	Class InputClass `json:"class"`
}

// JumpEvent is emitted on a cross-flow transition.
type JumpEvent struct {
	EventBase
	From string `json:"from"`
	To   string `json:"to"`
}

// RecoveryEvent is emitted when a turn fault was absorbed.
type RecoveryEvent struct {
	EventBase
	Flow  string `json:"flow"`
	State string `json:"state"`
	Kind  string `json:"kind"`
	Err   error  `json:"-"`
}

// ReloadEvent is emitted after every reload attempt.
type ReloadEvent struct {
	EventBase
	Flows int   `json:"flows"`
	Err   error `json:"-"`
}

// CallEvent is emitted when a call ends.
type CallEvent struct {
	EventBase
	Duration  time.Duration `json:"duration"`
	Exchanges int           `json:"exchanges"`
}

// LifecycleHooks defines callbacks for engine observability. Nil hooks are skipped.
type LifecycleHooks struct {
	OnStateEnter func(context.Context, *StateEvent)
	OnFlowJump   func(context.Context, *JumpEvent)
	OnRecovery   func(context.Context, *RecoveryEvent)
	OnReload     func(context.Context, *ReloadEvent)
	OnCallEnd    func(context.Context, *CallEvent)
}

// Merge combines two hook sets; both callbacks run, h first.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStateEnter: chain(h.OnStateEnter, other.OnStateEnter),
		OnFlowJump:   chain(h.OnFlowJump, other.OnFlowJump),
		OnRecovery:   chain(h.OnRecovery, other.OnRecovery),
		OnReload:     chain(h.OnReload, other.OnReload),
		OnCallEnd:    chain(h.OnCallEnd, other.OnCallEnd),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
