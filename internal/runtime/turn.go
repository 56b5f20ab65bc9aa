package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/input"
	"github.com/aretw0/ivrflow/pkg/ports"
)

// Recovery kinds reported through LifecycleHooks.OnRecovery.
const (
	RecoveryRejected    = "rejected"
	RecoveryUnknownFlow = "unknown_flow"
	RecoveryMalformed   = "malformed_state"
	RecoveryRelocated   = "relocated"
	RecoveryNoOp        = "no_op"
)

// PanicError wraps a value recovered from a panicking turn.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic during turn: %v", e.Value)
}

// Turn is the orchestration boundary: it always returns a usable session and result.
// catalog must be the snapshot captured for this turn. Faults are absorbed:
//   - a jump to a missing flow keeps the caller in place with an apology;
//   - a state that cannot be rendered keeps the caller in place with a generic re-prompt;
//   - a session whose state or flow vanished after a reload restarts at the main flow;
//   - anything else, panics included, is a no-op turn with the fixed apology.
func (e *Engine) Turn(ctx context.Context, catalog ports.FlowCatalog, sess *domain.Session, raw string) (next *domain.Session, res domain.StepResult) {
	defer func() {
		if r := recover(); r != nil {
			err := &PanicError{Value: r}
			e.logger.Error("Turn panicked", "session_id", sess.ID, "flow", sess.CurrentFlow, "state", sess.CurrentState, "err", err)
			next, res = e.noOp(ctx, sess, err)
		}
	}()

	next, res, err := e.Step(ctx, catalog, sess, raw)
	if err != nil {
		next, res = e.absorb(ctx, catalog, sess, err)
		return next, res
	}

	if res.Fault != nil {
		e.emitRecovery(ctx, sess, RecoveryRejected, res.Fault)
	}
	if next.CurrentFlow != sess.CurrentFlow {
		e.emitJump(ctx, sess.ID, sess.CurrentFlow, next.CurrentFlow)
	}
	e.emitStateEnter(ctx, next, raw)
	return next, res
}

func (e *Engine) absorb(ctx context.Context, catalog ports.FlowCatalog, sess *domain.Session, err error) (*domain.Session, domain.StepResult) {
	var unknown *domain.UnknownFlowError
	var malformed *domain.MalformedStateError
	var missing *domain.StateNotFoundError

	switch {
	case errors.As(err, &unknown):
		e.logger.Warn("Jump to unknown flow", "session_id", sess.ID, "flow", sess.CurrentFlow, "state", sess.CurrentState, "target", unknown.Flow)
		if res, perr := e.Prompt(catalog, sess); perr == nil {
			res.Message = joinSentences(e.messages.Unavailable, res.Message)
			res.Fault = err
			e.emitRecovery(ctx, sess, RecoveryUnknownFlow, err)
			return sess.Clone(), res
		}

	case errors.As(err, &malformed):
		e.logger.Warn("Malformed state reached", "session_id", sess.ID, "flow", malformed.Flow, "state", malformed.State, "reason", malformed.Reason)
		res := domain.StepResult{Flow: sess.CurrentFlow, State: sess.CurrentState, Message: e.messages.Reprompt, Fault: err}
		if cur, perr := e.Prompt(catalog, sess); perr == nil {
			res.Options = cur.Options
			res.Terminal = cur.Terminal
		}
		e.emitRecovery(ctx, sess, RecoveryMalformed, err)
		return sess.Clone(), res

	case errors.As(err, &missing) && missing.Flow == sess.CurrentFlow && missing.State == sess.CurrentState:
		e.logger.Warn("Session state no longer exists, restarting at main flow", "session_id", sess.ID, "flow", sess.CurrentFlow, "state", sess.CurrentState)
		if next, res, eerr := e.Enter(catalog, sess, e.mainFlow); eerr == nil {
			res.Message = joinSentences(e.messages.Relocated, res.Message)
			res.Fault = err
			e.emitRecovery(ctx, sess, RecoveryRelocated, err)
			if next.CurrentFlow != sess.CurrentFlow {
				e.emitJump(ctx, sess.ID, sess.CurrentFlow, next.CurrentFlow)
			}
			return next, res
		}
	}

	return e.noOp(ctx, sess, err)
}

// noOp leaves the session exactly as it was before the turn.
func (e *Engine) noOp(ctx context.Context, sess *domain.Session, err error) (*domain.Session, domain.StepResult) {
	e.logger.Error("Turn failed, returning apology", "session_id", sess.ID, "flow", sess.CurrentFlow, "state", sess.CurrentState, "err", err)
	e.emitRecovery(ctx, sess, RecoveryNoOp, err)
	return sess.Clone(), domain.StepResult{
		Flow:    sess.CurrentFlow,
		State:   sess.CurrentState,
		Message: e.messages.Apology,
		Options: domain.Options{},
		Fault:   err,
	}
}

func (e *Engine) emitStateEnter(ctx context.Context, sess *domain.Session, raw string) {
	if e.hooks.OnStateEnter == nil {
		return
	}
	e.hooks.OnStateEnter(ctx, &domain.StateEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStateEnter, SessionID: sess.ID},
		Flow:      sess.CurrentFlow,
		State:     sess.CurrentState,
		Class:     classOf(raw),
	})
}

func (e *Engine) emitJump(ctx context.Context, sessionID, from, to string) {
	if e.hooks.OnFlowJump == nil {
		return
	}
	e.hooks.OnFlowJump(ctx, &domain.JumpEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventFlowJump, SessionID: sessionID},
		From:      from,
		To:        to,
	})
}

func (e *Engine) emitRecovery(ctx context.Context, sess *domain.Session, kind string, err error) {
	if e.hooks.OnRecovery == nil {
		return
	}
	e.hooks.OnRecovery(ctx, &domain.RecoveryEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRecovery, SessionID: sess.ID},
		Flow:      sess.CurrentFlow,
		State:     sess.CurrentState,
		Kind:      kind,
		Err:       err,
	})
}

func classOf(raw string) domain.InputClass {
	return input.Classify(input.Normalize(raw))
}
