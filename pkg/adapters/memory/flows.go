package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/schema"
)

// FlowSource implements ports.FlowSource and ports.Watchable over in-memory definitions.
// Replace swaps the definitions and notifies watchers, which makes it handy for reload tests.
type FlowSource struct {
	mu       sync.RWMutex
	flows    []*domain.FlowDefinition
	err      error
	watchers []chan string
}

// NewFlowSource creates a source serving the given flows.
func NewFlowSource(flows ...*domain.FlowDefinition) *FlowSource {
	return &FlowSource{flows: flows}
}

// NewFlowSourceFromYAML decodes each document with schema.Decode.
func NewFlowSourceFromYAML(docs ...string) (*FlowSource, error) {
	flows := make([]*domain.FlowDefinition, 0, len(docs))
	for i, doc := range docs {
		f, err := schema.Decode([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		flows = append(flows, f)
	}
	return NewFlowSource(flows...), nil
}

// Load returns the current definitions.
func (s *FlowSource) Load(ctx context.Context) ([]*domain.FlowDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]*domain.FlowDefinition(nil), s.flows...), nil
}

// Replace swaps the served definitions and signals watchers.
func (s *FlowSource) Replace(flows ...*domain.FlowDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows = flows
	s.err = nil
	notify(s.watchers, "replace")
}

// Fail makes subsequent Loads return err until the next Replace.
func (s *FlowSource) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	notify(s.watchers, "fail")
}

// Watch implements ports.Watchable. The channel closes when ctx is done.
func (s *FlowSource) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

// notify must be called with s.mu held so it never races a closing watcher.
func notify(watchers []chan string, ev string) {
	for _, w := range watchers {
		select {
		case w <- ev:
		default:
		}
	}
}
