package dsl

import (
	"strings"

	"github.com/aretw0/ivrflow/pkg/adapters/memory"
	"github.com/aretw0/ivrflow/pkg/domain"
)

// FlowBuilder manages the construction of one flow.
type FlowBuilder struct {
	flow   domain.FlowDefinition
	states []*StateBuilder
}

// NewFlow starts a flow. The first state added becomes the initial state unless Initial is called.
func NewFlow(name string) *FlowBuilder {
	return &FlowBuilder{flow: domain.FlowDefinition{Name: name}}
}

// Describe sets the flow description.
func (b *FlowBuilder) Describe(text string) *FlowBuilder {
	b.flow.Description = text
	return b
}

// Initial sets the initial state id.
func (b *FlowBuilder) Initial(id string) *FlowBuilder {
	b.flow.InitialState = id
	return b
}

// State adds a state, or returns the existing builder for id.
func (b *FlowBuilder) State(id string) *StateBuilder {
	for _, sb := range b.states {
		if sb.state.ID == id {
			return sb
		}
	}
	sb := &StateBuilder{
		state:    domain.StateDefinition{ID: id},
		keywords: make(map[string][]string),
		flow:     b,
	}
	b.states = append(b.states, sb)
	if b.flow.InitialState == "" {
		b.flow.InitialState = id
	}
	return sb
}

// Build produces the flow definition. It does not validate; the flow store does.
func (b *FlowBuilder) Build() *domain.FlowDefinition {
	f := b.flow
	f.States = make(map[string]*domain.StateDefinition, len(b.states))
	f.Order = make([]string, 0, len(b.states))
	for _, sb := range b.states {
		st := sb.build()
		f.States[st.ID] = st
		f.Order = append(f.Order, st.ID)
	}
	return &f
}

// Source builds every flow into an in-memory flow source.
func Source(flows ...*FlowBuilder) *memory.FlowSource {
	defs := make([]*domain.FlowDefinition, len(flows))
	for i, fb := range flows {
		defs[i] = fb.Build()
	}
	return memory.NewFlowSource(defs...)
}

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	state    domain.StateDefinition
	keywords map[string][]string
	flow     *FlowBuilder
}

// State continues with another state of the same flow.
func (s *StateBuilder) State(id string) *StateBuilder {
	return s.flow.State(id)
}

// Say sets the prompt.
func (s *StateBuilder) Say(message string) *StateBuilder {
	s.state.Message = message
	return s
}

// Option appends a menu entry.
func (s *StateBuilder) Option(key, label string) *StateBuilder {
	s.state.Options = append(s.state.Options, domain.Option{Key: key, Label: label})
	return s
}

// Go maps key to target. A target of the form "flow:<name>" jumps to another flow.
func (s *StateBuilder) Go(key, target string) *StateBuilder {
	for i, t := range s.state.Transitions {
		if t.Key == key {
			s.state.Transitions[i].Target = domain.ParseTarget(target)
			return s
		}
	}
	s.state.Transitions = append(s.state.Transitions, domain.Transition{
		Key:    key,
		Target: domain.ParseTarget(target),
	})
	return s
}

// Default sets the fallback transition.
func (s *StateBuilder) Default(target string) *StateBuilder {
	return s.Go(domain.DefaultKey, target)
}

// Keywords sets the free-text keywords for key, replacing the label fallback.
func (s *StateBuilder) Keywords(key string, words ...string) *StateBuilder {
	s.keywords[key] = append(s.keywords[key], words...)
	return s
}

// Collect adds a collect_data action.
func (s *StateBuilder) Collect(field string, opts ...CollectOption) *StateBuilder {
	c := &domain.CollectData{Field: field}
	for _, opt := range opts {
		opt(c)
	}
	s.state.Actions = append(s.state.Actions, domain.ActionSpec{
		Type:    domain.ActionCollectData,
		Collect: c,
	})
	return s
}

// End marks the state as end-of-call.
func (s *StateBuilder) End() *StateBuilder {
	s.state.End = true
	return s
}

func (s *StateBuilder) build() *domain.StateDefinition {
	st := s.state
	st.Options = append(domain.Options(nil), s.state.Options...)
	st.Actions = append([]domain.ActionSpec(nil), s.state.Actions...)
	st.Transitions = make([]domain.Transition, len(s.state.Transitions))
	for i, t := range s.state.Transitions {
		if t.Key != domain.DefaultKey {
			t.Keywords = s.keywordsFor(t.Key)
		}
		st.Transitions[i] = t
	}
	return &st
}

func (s *StateBuilder) keywordsFor(key string) []string {
	words, ok := s.keywords[key]
	if !ok {
		if label, found := s.state.Options.Get(key); found {
			words = []string{label}
		}
	}
	var out []string
	for _, w := range words {
		if w = strings.Join(strings.Fields(strings.ToLower(w)), " "); w != "" {
			out = append(out, w)
		}
	}
	return out
}
