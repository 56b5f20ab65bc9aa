package middleware

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/ports"
)

// Mask replaces sensitive values.
const Mask = "***"

type maskingSink struct {
	next     ports.SummarySink
	patterns []*regexp.Regexp
}

// NewMaskingSink wraps next so that collected fields whose name matches one of
// patterns are masked, together with every transcript line carrying their value.
func NewMaskingSink(next ports.SummarySink, patterns []string) (ports.SummarySink, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &maskingSink{next: next, patterns: compiled}, nil
}

func (m *maskingSink) Record(ctx context.Context, summary domain.CallSummary) error {
	return m.next.Record(ctx, MaskSummary(summary, m.patterns))
}

// MaskSummary returns a copy of summary with sensitive fields masked.
// Their values are also redacted wherever they appear in the transcript.
func MaskSummary(summary domain.CallSummary, patterns []*regexp.Regexp) domain.CallSummary {
	out := summary
	out.CollectedData = make(map[string]string, len(summary.CollectedData))
	var secrets []string
	for k, v := range summary.CollectedData {
		if matchesAny(k, patterns) {
			out.CollectedData[k] = Mask
			if v = strings.TrimSpace(v); v != "" {
				secrets = append(secrets, regexp.QuoteMeta(v))
			}
			continue
		}
		out.CollectedData[k] = v
	}

	out.Transcript = make([]domain.Exchange, len(summary.Transcript))
	copy(out.Transcript, summary.Transcript)
	if len(secrets) == 0 {
		return out
	}

	// Longest first so a value containing another is redacted whole.
	sort.Slice(secrets, func(i, j int) bool { return len(secrets[i]) > len(secrets[j]) })
	redact := regexp.MustCompile("(?i)" + strings.Join(secrets, "|"))
	for i := range out.Transcript {
		out.Transcript[i].Text = redact.ReplaceAllString(out.Transcript[i].Text, Mask)
	}
	return out
}

func matchesAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
