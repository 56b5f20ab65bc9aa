package domain

import (
	"math"
	"time"
)

// Origin tells who produced an exchange.
type Origin string

const (
	OriginUser   Origin = "user"
	OriginSystem Origin = "system"
)

// Exchange is one line of the call transcript.
type Exchange struct {
	Origin    Origin    `json:"type"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the mutable record of a single call.
// CurrentState always names a state inside CurrentFlow.
type Session struct {
	ID           string            `json:"session_id"`
	StartedAt    time.Time         `json:"started_at"`
	EndedAt      *time.Time        `json:"ended_at,omitempty"`
	CurrentFlow  string            `json:"current_flow"`
	CurrentState string            `json:"current_state"`
	History      []Exchange        `json:"history"`
	Data         map[string]string `json:"data"`
	// Attempts counts consecutive collect rejections at the current state.
	Attempts int `json:"attempts,omitempty"`
}

// NewSession creates a fresh session positioned at flow/state.
func NewSession(id, flow, state string, startedAt time.Time) *Session {
	return &Session{
		ID:           id,
		StartedAt:    startedAt,
		CurrentFlow:  flow,
		CurrentState: state,
		History:      []Exchange{},
		Data:         make(map[string]string),
	}
}

// Clone returns a deep copy safe for independent mutation.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	next := *s
	next.History = make([]Exchange, len(s.History))
	copy(next.History, s.History)
	next.Data = make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		next.Data[k] = v
	}
	if s.EndedAt != nil {
		ended := *s.EndedAt
		next.EndedAt = &ended
	}
	return &next
}

// Append adds an exchange to the transcript.
// Timestamps never go backwards: an earlier time is clamped to the last entry.
func (s *Session) Append(origin Origin, text string, at time.Time) {
	if n := len(s.History); n > 0 && at.Before(s.History[n-1].Timestamp) {
		at = s.History[n-1].Timestamp
	}
	s.History = append(s.History, Exchange{Origin: origin, Text: text, Timestamp: at})
}

// Ended reports whether the call has been finalized.
func (s *Session) Ended() bool {
	return s.EndedAt != nil
}

// End records the end time. Ending twice keeps the first time.
func (s *Session) End(at time.Time) {
	if s.EndedAt != nil {
		return
	}
	if at.Before(s.StartedAt) {
		at = s.StartedAt
	}
	s.EndedAt = &at
}

// UserExchanges counts the caller's turns.
func (s *Session) UserExchanges() int {
	n := 0
	for _, e := range s.History {
		if e.Origin == OriginUser {
			n++
		}
	}
	return n
}

// CallSummary is the record handed to summary sinks when a call ends.
type CallSummary struct {
	SessionID       string            `json:"session_id"`
	DurationSeconds float64           `json:"duration_seconds"`
	StartedAt       time.Time         `json:"started_at"`
	EndedAt         time.Time         `json:"ended_at"`
	TotalExchanges  int               `json:"total_exchanges"`
	Transcript      []Exchange        `json:"transcript"`
	CollectedData   map[string]string `json:"collected_data"`
}

// Summary computes the call summary. The session must have ended.
func (s *Session) Summary() CallSummary {
	ended := s.StartedAt
	if s.EndedAt != nil {
		ended = *s.EndedAt
	}
	duration := ended.Sub(s.StartedAt).Seconds()

	c := s.Clone()
	return CallSummary{
		SessionID:       s.ID,
		DurationSeconds: math.Round(duration*100) / 100,
		StartedAt:       s.StartedAt,
		EndedAt:         ended,
		TotalExchanges:  s.UserExchanges(),
		Transcript:      c.History,
		CollectedData:   c.Data,
	}
}
