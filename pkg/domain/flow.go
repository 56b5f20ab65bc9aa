package domain

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// CrossFlowPrefix marks a transition reference that jumps to another flow's initial state.
const CrossFlowPrefix = "flow:"

// DefaultKey is the transition key followed when no other key matches.
const DefaultKey = "default"

// TargetKind distinguishes same-flow transitions from cross-flow jumps.
type TargetKind int

const (
	// TargetState points at a state id inside the current flow.
	TargetState TargetKind = iota
	// TargetCrossFlow points at another flow; the jump lands on its initial state.
	TargetCrossFlow
)

// Target is the resolved destination of a transition.
type Target struct {
	Kind  TargetKind
	State string
	Flow  string
}

// StateTarget builds a same-flow target.
func StateTarget(id string) Target {
	return Target{Kind: TargetState, State: id}
}

// FlowTarget builds a cross-flow target.
func FlowTarget(name string) Target {
	return Target{Kind: TargetCrossFlow, Flow: name}
}

// ParseTarget decodes a transition reference as written in flow documents.
// "flow:<name>" becomes a cross-flow target, anything else a state id.
func ParseTarget(ref string) Target {
	ref = strings.TrimSpace(ref)
	if name, ok := strings.CutPrefix(ref, CrossFlowPrefix); ok {
		return FlowTarget(strings.TrimSpace(name))
	}
	return StateTarget(ref)
}

// IsCrossFlow reports whether the target leaves the current flow.
func (t Target) IsCrossFlow() bool {
	return t.Kind == TargetCrossFlow
}

// String renders the target back into document form.
func (t Target) String() string {
	if t.Kind == TargetCrossFlow {
		return CrossFlowPrefix + t.Flow
	}
	return t.State
}

// Option is a single menu entry presented to the caller.
type Option struct {
	Key   string
	Label string
}

// Options is an ordered menu. It encodes to JSON as an object whose keys
// keep the declared order.
type Options []Option

// Get returns the label for key.
func (o Options) Get(key string) (string, bool) {
	for _, opt := range o {
		if opt.Key == key {
			return opt.Label, true
		}
	}
	return "", false
}

// Keys returns the option keys in order.
func (o Options) Keys() []string {
	keys := make([]string, len(o))
	for i, opt := range o {
		keys[i] = opt.Key
	}
	return keys
}

// MarshalJSON writes the options as an ordered JSON object.
func (o Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(opt.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Transition maps an input key to a target. Keywords drive free-text matching.
type Transition struct {
	Key      string
	Target   Target
	Keywords []string
}

// StateDefinition is a node of a flow: what to say, what to offer, where to go.
type StateDefinition struct {
	ID          string
	Message     string
	Options     Options
	Transitions []Transition
	Actions     []ActionSpec
	// End flags the state as end-of-call.
	End bool
}

// Transition looks up the transition registered for key.
func (s *StateDefinition) Transition(key string) (Transition, bool) {
	for _, t := range s.Transitions {
		if t.Key == key {
			return t, true
		}
	}
	return Transition{}, false
}

// Terminal reports whether visiting the state ends the call.
func (s *StateDefinition) Terminal() bool {
	return s.End || len(s.Transitions) == 0
}

// FlowDefinition is a named, immutable state machine.
type FlowDefinition struct {
	Name         string
	Description  string
	InitialState string
	States       map[string]*StateDefinition
	// Order lists state ids in declaration order.
	Order []string
}

// State returns the state definition for id.
func (f *FlowDefinition) State(id string) (*StateDefinition, bool) {
	if f == nil || f.States == nil {
		return nil, false
	}
	s, ok := f.States[id]
	return s, ok
}

// StateIDs returns the state ids in declaration order, or sorted when no order was recorded.
func (f *FlowDefinition) StateIDs() []string {
	if len(f.Order) == len(f.States) {
		return append([]string(nil), f.Order...)
	}
	ids := make([]string, 0, len(f.States))
	for id := range f.States {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
