package file

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/aretw0/ivrflow/pkg/domain"
)

// SummarySink writes each call summary to <dir>/call_<session id>.json.
// It implements ports.SummarySink.
type SummarySink struct {
	Dir string
}

// NewSummarySink creates a sink writing into dir (default "logs").
func NewSummarySink(dir string) *SummarySink {
	if dir == "" {
		dir = "logs"
	}
	return &SummarySink{Dir: dir}
}

// Path returns where the summary of sessionID is written.
func (s *SummarySink) Path(sessionID string) string {
	return filepath.Join(s.Dir, "call_"+sessionID+".json")
}

// Record writes the summary as indented JSON.
func (s *SummarySink) Record(ctx context.Context, summary domain.CallSummary) error {
	if err := checkID(summary.SessionID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal call summary: %w", err)
	}
	return writeAtomic(s.Dir, "call_"+summary.SessionID+".json", data)
}
