package schema

import (
	"github.com/aretw0/ivrflow/pkg/domain"
)

// Validate checks a set of flows for internal consistency.
// It returns nil or an *AggregateError listing every problem found.
func Validate(flows []*domain.FlowDefinition) error {
	var errs []error

	byName := make(map[string]*domain.FlowDefinition, len(flows))
	for _, f := range flows {
		if f == nil {
			errs = append(errs, invalid("", "", "nil flow definition"))
			continue
		}
		if f.Name == "" {
			errs = append(errs, invalid("", "", "flow name is required"))
			continue
		}
		if _, dup := byName[f.Name]; dup {
			errs = append(errs, invalid(f.Name, "", "duplicate flow name"))
			continue
		}
		byName[f.Name] = f
	}

	for _, f := range flows {
		if f == nil || byName[f.Name] != f {
			continue
		}
		errs = append(errs, validateFlow(f, byName)...)
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func validateFlow(f *domain.FlowDefinition, flows map[string]*domain.FlowDefinition) []error {
	var errs []error

	if len(f.States) == 0 {
		return append(errs, invalid(f.Name, "", "flow has no states"))
	}
	if f.InitialState == "" {
		errs = append(errs, invalid(f.Name, "", "initial_state is required"))
	} else if _, ok := f.States[f.InitialState]; !ok {
		errs = append(errs, invalid(f.Name, "", "initial_state %q is not a state of the flow", f.InitialState))
	}

	checkTarget := func(state, what string, t domain.Target) {
		switch t.Kind {
		case domain.TargetCrossFlow:
			if _, ok := flows[t.Flow]; !ok {
				errs = append(errs, invalid(f.Name, state, "%s: unknown flow %q", what, t.Flow))
			}
		default:
			if _, ok := f.States[t.State]; !ok {
				errs = append(errs, invalid(f.Name, state, "%s: unknown state %q", what, t.State))
			}
		}
	}

	for _, id := range f.StateIDs() {
		st := f.States[id]
		if st == nil {
			errs = append(errs, invalid(f.Name, id, "nil state definition"))
			continue
		}

		keys := make(map[string]bool, len(st.Transitions))
		for _, t := range st.Transitions {
			if keys[t.Key] {
				errs = append(errs, invalid(f.Name, id, "duplicate transition key %q", t.Key))
			}
			keys[t.Key] = true
			checkTarget(id, "transition "+quote(t.Key), t.Target)
		}

		for i, a := range st.Actions {
			switch a.Type {
			case domain.ActionCollectData:
				if a.Collect == nil || a.Collect.Field == "" {
					errs = append(errs, invalid(f.Name, id, "action %d: collect_data requires a field", i))
					continue
				}
				if a.Collect.MaxAttempts < 0 {
					errs = append(errs, invalid(f.Name, id, "action %d: max_attempts must not be negative", i))
				}
				if a.Collect.OnExhausted != nil {
					checkTarget(id, "on_exhausted", *a.Collect.OnExhausted)
				}
			default:
				errs = append(errs, invalid(f.Name, id, "action %d: unknown type %q", i, a.Type))
			}
		}

		// Total transition coverage: every offered key must lead somewhere.
		if st.End || len(st.Transitions) == 0 || keys[domain.DefaultKey] {
			if !st.End && len(st.Transitions) == 0 && len(st.Options) > 0 {
				errs = append(errs, invalid(f.Name, id, "options are offered but the state has no transitions"))
			}
			continue
		}
		for _, opt := range st.Options {
			if !keys[opt.Key] {
				errs = append(errs, invalid(f.Name, id, "option %q has no transition and there is no default", opt.Key))
			}
		}
	}

	return errs
}

func quote(s string) string {
	return "\"" + s + "\""
}
