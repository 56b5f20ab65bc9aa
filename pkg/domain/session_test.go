package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_AppendKeepsChronology(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewSession("id", "train_main", "main_menu", t0)

	s.Append(OriginSystem, "hello", t0.Add(2*time.Second))
	s.Append(OriginUser, "1", t0.Add(time.Second)) // clock skew

	require.Len(t, s.History, 2)
	assert.False(t, s.History[1].Timestamp.Before(s.History[0].Timestamp))
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := NewSession("id", "f", "a", time.Now())
	s.Data["pnr"] = "1"
	s.Append(OriginUser, "x", time.Now())

	c := s.Clone()
	c.Data["pnr"] = "2"
	c.Append(OriginUser, "y", time.Now())

	assert.Equal(t, "1", s.Data["pnr"])
	assert.Len(t, s.History, 1)
}

func TestSession_Summary(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewSession("call-1", "train_main", "main_menu", t0)
	s.Append(OriginSystem, "Welcome", t0)
	s.Append(OriginUser, "5", t0.Add(time.Second))
	s.Append(OriginSystem, "Enter PNR", t0.Add(time.Second))
	s.Append(OriginUser, "2415319876", t0.Add(3*time.Second))
	s.Data["pnr"] = "2415319876"
	s.End(t0.Add(12340 * time.Millisecond))

	sum := s.Summary()
	assert.Equal(t, "call-1", sum.SessionID)
	assert.Equal(t, 12.34, sum.DurationSeconds)
	assert.Equal(t, 2, sum.TotalExchanges)
	assert.Len(t, sum.Transcript, 4)
	assert.Equal(t, map[string]string{"pnr": "2415319876"}, sum.CollectedData)

	// Summary does not alias session state.
	sum.CollectedData["pnr"] = "x"
	assert.Equal(t, "2415319876", s.Data["pnr"])
}

func TestSession_EndTwiceKeepsFirst(t *testing.T) {
	t0 := time.Now()
	s := NewSession("id", "f", "a", t0)
	s.End(t0.Add(time.Second))
	s.End(t0.Add(time.Hour))
	assert.Equal(t, t0.Add(time.Second), *s.EndedAt)
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		ref  string
		want Target
	}{
		{"ask_pnr", StateTarget("ask_pnr")},
		{"flow:booking", FlowTarget("booking")},
		{" flow: status ", FlowTarget("status")},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got := ParseTarget(tt.ref)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "flow:booking", FlowTarget("booking").String())
}

func TestOptions_MarshalKeepsOrder(t *testing.T) {
	opts := Options{{"1", "Book"}, {"9", "Agent"}, {"*", "Main menu"}, {"0", "Repeat"}}
	b, err := opts.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"1":"Book","9":"Agent","*":"Main menu","0":"Repeat"}`, string(b))
}
