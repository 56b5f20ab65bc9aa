// Package validator finds flow states no call can reach.
//
// Unreachable states are legal flow definitions, so they are reported as
// warnings rather than load errors.
package validator

import (
	"fmt"
	"sort"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/ports"
)

// Warning describes a state or flow that cannot be reached from the entry flow.
type Warning struct {
	Flow  string
	State string
}

func (w Warning) String() string {
	if w.State == "" {
		return fmt.Sprintf("flow %q is never entered", w.Flow)
	}
	return fmt.Sprintf("flow %q: state %q is unreachable", w.Flow, w.State)
}

type node struct {
	flow  string
	state string
}

// Unreachable crawls breadth-first from the initial state of entry, following
// same-flow transitions, cross-flow jumps and on_exhausted targets. It returns
// a warning per flow never entered and per unreachable state of entered flows,
// sorted by flow then state declaration order.
func Unreachable(catalog ports.FlowCatalog, entry string) ([]Warning, error) {
	start, err := catalog.Get(entry)
	if err != nil {
		return nil, fmt.Errorf("entry flow: %w", err)
	}

	visited := map[node]bool{}
	entered := map[string]bool{}
	queue := []node{{flow: start.Name, state: start.InitialState}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		entered[cur.flow] = true

		flow, err := catalog.Get(cur.flow)
		if err != nil {
			continue
		}
		st, ok := flow.State(cur.state)
		if !ok {
			continue
		}
		for _, t := range targets(st) {
			next, ok := follow(catalog, cur.flow, t)
			if ok && !visited[next] {
				queue = append(queue, next)
			}
		}
	}

	names := catalog.Names()
	sort.Strings(names)
	var warnings []Warning
	for _, name := range names {
		if !entered[name] {
			warnings = append(warnings, Warning{Flow: name})
			continue
		}
		flow, err := catalog.Get(name)
		if err != nil {
			continue
		}
		for _, id := range flow.StateIDs() {
			if !visited[node{flow: name, state: id}] {
				warnings = append(warnings, Warning{Flow: name, State: id})
			}
		}
	}
	return warnings, nil
}

func targets(st *domain.StateDefinition) []domain.Target {
	out := make([]domain.Target, 0, len(st.Transitions))
	for _, t := range st.Transitions {
		out = append(out, t.Target)
	}
	for _, a := range st.Actions {
		if a.Collect != nil && a.Collect.OnExhausted != nil {
			out = append(out, *a.Collect.OnExhausted)
		}
	}
	return out
}

func follow(catalog ports.FlowCatalog, from string, t domain.Target) (node, bool) {
	if !t.IsCrossFlow() {
		return node{flow: from, state: t.State}, true
	}
	flow, err := catalog.Get(t.Flow)
	if err != nil {
		return node{}, false
	}
	return node{flow: flow.Name, state: flow.InitialState}, true
}
