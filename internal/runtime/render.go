package runtime

import (
	"regexp"
	"strings"

	"github.com/aretw0/ivrflow/pkg/domain"
)

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// render builds the result for landing on state. Options are shared with the
// definition, which is immutable.
func (e *Engine) render(flow *domain.FlowDefinition, state *domain.StateDefinition, sess *domain.Session) (domain.StepResult, error) {
	if strings.TrimSpace(state.Message) == "" {
		return domain.StepResult{}, &domain.MalformedStateError{Flow: flow.Name, State: state.ID, Reason: "empty message"}
	}
	for _, opt := range state.Options {
		if opt.Key == "" || strings.TrimSpace(opt.Label) == "" {
			return domain.StepResult{}, &domain.MalformedStateError{Flow: flow.Name, State: state.ID, Reason: "option without key or label"}
		}
	}
	return domain.StepResult{
		Flow:     flow.Name,
		State:    state.ID,
		Message:  Interpolate(state.Message, sess.Data),
		Options:  state.Options,
		Terminal: state.Terminal(),
	}, nil
}

// Interpolate replaces {field} placeholders with collected data.
// Unknown fields are left as written.
func Interpolate(text string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(text, "{") {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		if v, ok := data[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}
