package flowstore

import (
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/schema"
)

// Set is an immutable, validated collection of flows. It implements ports.FlowCatalog.
type Set struct {
	flows    map[string]*domain.FlowDefinition
	names    []string
	version  uint64
	loadedAt time.Time
}

// NewSet validates flows and wraps them in a Set.
func NewSet(flows []*domain.FlowDefinition) (*Set, error) {
	if err := schema.Validate(flows); err != nil {
		return nil, err
	}

	s := &Set{
		flows:    make(map[string]*domain.FlowDefinition, len(flows)),
		names:    make([]string, 0, len(flows)),
		loadedAt: time.Now(),
	}
	for _, f := range flows {
		s.flows[f.Name] = f
		s.names = append(s.names, f.Name)
	}
	sort.Strings(s.names)
	return s, nil
}

// Get returns the named flow.
func (s *Set) Get(name string) (*domain.FlowDefinition, error) {
	if s != nil {
		if f, ok := s.flows[name]; ok {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrFlowNotFound, name)
}

// Names lists flow names, sorted.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// Flows returns the definitions sorted by name.
func (s *Set) Flows() []*domain.FlowDefinition {
	if s == nil {
		return nil
	}
	out := make([]*domain.FlowDefinition, len(s.names))
	for i, n := range s.names {
		out[i] = s.flows[n]
	}
	return out
}

// Len returns the number of flows.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.flows)
}

// Version increases by one with every successful reload of the owning store.
func (s *Set) Version() uint64 {
	if s == nil {
		return 0
	}
	return s.version
}

// LoadedAt is when the set was built.
func (s *Set) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}
