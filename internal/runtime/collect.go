package runtime

import (
	"fmt"
	"unicode/utf8"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/ports"
)

// rejection pairs a refused input with the action that refused it.
type rejection struct {
	collect *domain.CollectData
	err     *domain.RejectionError
}

// checkCollect validates value against every collect_data action before any is applied,
// so a rejection never leaves half-collected data behind.
func checkCollect(actions []domain.ActionSpec, value string) *rejection {
	for _, a := range actions {
		if a.Type != domain.ActionCollectData || a.Collect == nil {
			continue
		}
		if err := Validate(a.Collect, value); err != nil {
			return &rejection{collect: a.Collect, err: err}
		}
	}
	return nil
}

// applyCollect stores value verbatim under every collect_data field, in declaration order.
func applyCollect(actions []domain.ActionSpec, value string, sess *domain.Session) {
	for _, a := range actions {
		if a.Type != domain.ActionCollectData || a.Collect == nil {
			continue
		}
		if sess.Data == nil {
			sess.Data = make(map[string]string)
		}
		sess.Data[a.Collect.Field] = value
	}
}

// Validate applies the collect validator to value. A nil validator accepts everything.
func Validate(c *domain.CollectData, value string) *domain.RejectionError {
	v := c.Validator
	if v == nil {
		return nil
	}
	n := utf8.RuneCountInString(value)
	reject := func(format string, args ...any) *domain.RejectionError {
		return &domain.RejectionError{Field: c.Field, Reason: fmt.Sprintf(format, args...)}
	}

	if v.Digits {
		for _, r := range value {
			if r < '0' || r > '9' {
				return reject("expected digits only")
			}
		}
		if n == 0 {
			return reject("expected digits only")
		}
	}
	if v.Length > 0 && n != v.Length {
		return reject("expected %d characters, got %d", v.Length, n)
	}
	if v.MinLength > 0 && n < v.MinLength {
		return reject("expected at least %d characters, got %d", v.MinLength, n)
	}
	if v.MaxLength > 0 && n > v.MaxLength {
		return reject("expected at most %d characters, got %d", v.MaxLength, n)
	}
	if v.Pattern != nil && !v.Pattern.MatchString(value) {
		return reject("does not match %s", v.Pattern.String())
	}
	return nil
}

// reject keeps the caller on the asking state with a corrective message.
// Once the collect's attempt budget is spent the call follows on_exhausted, if declared.
func (e *Engine) reject(catalog ports.FlowCatalog, flow *domain.FlowDefinition, state *domain.StateDefinition, next *domain.Session, rej *rejection) (*domain.Session, domain.StepResult, error) {
	next.Attempts++
	e.logger.Debug("Input rejected",
		"session_id", next.ID, "flow", flow.Name, "state", state.ID,
		"field", rej.collect.Field, "reason", rej.err.Reason, "attempts", next.Attempts)

	corrective := e.messages.Rejected
	if rej.collect.Validator != nil && rej.collect.Validator.Message != "" {
		corrective = rej.collect.Validator.Message
	}

	c := rej.collect
	if c.MaxAttempts > 0 && next.Attempts >= c.MaxAttempts && c.OnExhausted != nil {
		destFlow, dest, err := e.resolve(catalog, flow, *c.OnExhausted)
		if err != nil {
			return nil, domain.StepResult{}, err
		}
		landed, res, err := e.land(destFlow, dest, next, corrective)
		if err != nil {
			return nil, domain.StepResult{}, err
		}
		res.Fault = rej.err
		return landed, res, nil
	}

	res, err := e.reprompt(flow, state, next, corrective)
	if err != nil {
		return nil, domain.StepResult{}, err
	}
	res.Fault = rej.err
	return next, res, nil
}
