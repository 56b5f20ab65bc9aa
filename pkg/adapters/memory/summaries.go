package memory

import (
	"context"
	"sync"

	"github.com/aretw0/ivrflow/pkg/domain"
)

// SummarySink keeps call summaries in memory. It implements ports.SummarySink.
type SummarySink struct {
	mu        sync.Mutex
	summaries []domain.CallSummary
}

// NewSummarySink creates an empty sink.
func NewSummarySink() *SummarySink {
	return &SummarySink{}
}

// Record appends the summary.
func (s *SummarySink) Record(ctx context.Context, summary domain.CallSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, summary)
	return nil
}

// Summaries returns the recorded summaries in arrival order.
func (s *SummarySink) Summaries() []domain.CallSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CallSummary(nil), s.summaries...)
}
