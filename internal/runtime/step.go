package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/input"
	"github.com/aretw0/ivrflow/pkg/ports"
)

var errNoCatalog = errors.New("no flow definitions loaded")

// Step computes the outcome of one caller input.
// It never mutates sess; the returned session is a fresh copy carrying the new
// position, collected data and attempt counter. Step is deterministic: equal
// arguments yield equal results.
func (e *Engine) Step(ctx context.Context, catalog ports.FlowCatalog, sess *domain.Session, raw string) (*domain.Session, domain.StepResult, error) {
	flow, state, err := e.locate(catalog, sess.CurrentFlow, sess.CurrentState)
	if err != nil {
		return nil, domain.StepResult{}, err
	}

	next := sess.Clone()
	normalized := input.Normalize(raw)
	if normalized == "" {
		res, err := e.reprompt(flow, state, next, e.messages.NoInput)
		return next, res, err
	}

	class := input.Classify(normalized)
	tr, ok := match(state, normalized, class)
	if !ok {
		res, err := e.reprompt(flow, state, next, e.messages.NoMatch)
		return next, res, err
	}

	e.logger.Debug("Transition matched",
		"session_id", sess.ID, "flow", flow.Name, "state", state.ID,
		"key", tr.Key, "class", class.String(), "target", tr.Target.String())

	return e.advance(catalog, flow, state, next, tr.Target, strings.TrimSpace(raw))
}

// Prompt renders the session's current state without consuming input.
func (e *Engine) Prompt(catalog ports.FlowCatalog, sess *domain.Session) (domain.StepResult, error) {
	flow, state, err := e.locate(catalog, sess.CurrentFlow, sess.CurrentState)
	if err != nil {
		return domain.StepResult{}, err
	}
	return e.render(flow, state, sess)
}

// Enter positions a session at the initial state of flowName and renders it.
// Entry actions are not run: there is no input to collect yet.
func (e *Engine) Enter(catalog ports.FlowCatalog, sess *domain.Session, flowName string) (*domain.Session, domain.StepResult, error) {
	if catalog == nil {
		return nil, domain.StepResult{}, errNoCatalog
	}
	flow, err := catalog.Get(flowName)
	if err != nil {
		return nil, domain.StepResult{}, err
	}
	state, ok := flow.State(flow.InitialState)
	if !ok {
		return nil, domain.StepResult{}, &domain.StateNotFoundError{Flow: flow.Name, State: flow.InitialState}
	}
	next := sess.Clone()
	next.CurrentFlow, next.CurrentState, next.Attempts = flow.Name, state.ID, 0
	res, err := e.render(flow, state, next)
	if err != nil {
		return nil, domain.StepResult{}, err
	}
	return next, res, nil
}

func (e *Engine) locate(catalog ports.FlowCatalog, flowName, stateID string) (*domain.FlowDefinition, *domain.StateDefinition, error) {
	if catalog == nil {
		return nil, nil, errNoCatalog
	}
	flow, err := catalog.Get(flowName)
	if errors.Is(err, domain.ErrFlowNotFound) {
		return nil, nil, &domain.StateNotFoundError{Flow: flowName, State: stateID, Err: err}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("current flow: %w", err)
	}
	state, ok := flow.State(stateID)
	if !ok || state == nil {
		return nil, nil, &domain.StateNotFoundError{Flow: flowName, State: stateID}
	}
	return flow, state, nil
}

// match finds the transition for a normalized input.
// Control codes only ever match their own key. Free text matches a key verbatim,
// then the first transition (in declaration order) whose keyword it contains.
// Both fall back to "default".
func match(state *domain.StateDefinition, in string, class domain.InputClass) (domain.Transition, bool) {
	if in != domain.DefaultKey {
		if tr, ok := state.Transition(in); ok {
			return tr, true
		}
	}
	if class == domain.FreeText {
		for _, tr := range state.Transitions {
			if tr.Key == domain.DefaultKey {
				continue
			}
			for _, kw := range tr.Keywords {
				if kw != "" && strings.Contains(in, kw) {
					return tr, true
				}
			}
		}
	}
	return state.Transition(domain.DefaultKey)
}

// resolve turns a target into a concrete flow and state.
func (e *Engine) resolve(catalog ports.FlowCatalog, from *domain.FlowDefinition, target domain.Target) (*domain.FlowDefinition, *domain.StateDefinition, error) {
	flow := from
	stateID := target.State
	if target.IsCrossFlow() {
		f, err := catalog.Get(target.Flow)
		if err != nil {
			if errors.Is(err, domain.ErrFlowNotFound) {
				return nil, nil, &domain.UnknownFlowError{From: from.Name, Flow: target.Flow}
			}
			return nil, nil, err
		}
		flow, stateID = f, f.InitialState
	}
	state, ok := flow.State(stateID)
	if !ok || state == nil {
		return nil, nil, &domain.StateNotFoundError{Flow: flow.Name, State: stateID}
	}
	return flow, state, nil
}

// advance moves next to target, running the target's entry actions with value.
func (e *Engine) advance(catalog ports.FlowCatalog, flow *domain.FlowDefinition, state *domain.StateDefinition, next *domain.Session, target domain.Target, value string) (*domain.Session, domain.StepResult, error) {
	destFlow, dest, err := e.resolve(catalog, flow, target)
	if err != nil {
		return nil, domain.StepResult{}, err
	}

	if rej := checkCollect(dest.Actions, value); rej != nil {
		return e.reject(catalog, flow, state, next, rej)
	}
	applyCollect(dest.Actions, value, next)

	return e.land(destFlow, dest, next, "")
}

// land positions next on dest and renders it, with an optional lead-in sentence.
func (e *Engine) land(flow *domain.FlowDefinition, dest *domain.StateDefinition, next *domain.Session, lead string) (*domain.Session, domain.StepResult, error) {
	next.CurrentFlow, next.CurrentState, next.Attempts = flow.Name, dest.ID, 0
	res, err := e.render(flow, dest, next)
	if err != nil {
		return nil, domain.StepResult{}, err
	}
	res.Message = joinSentences(lead, res.Message)
	return next, res, nil
}

// reprompt keeps the caller where they are and repeats the prompt after lead.
func (e *Engine) reprompt(flow *domain.FlowDefinition, state *domain.StateDefinition, sess *domain.Session, lead string) (domain.StepResult, error) {
	res, err := e.render(flow, state, sess)
	if err != nil {
		return domain.StepResult{}, err
	}
	res.Message = joinSentences(lead, res.Message)
	return res, nil
}

func joinSentences(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
