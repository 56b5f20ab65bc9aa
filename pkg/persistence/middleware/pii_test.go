package middleware_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ivrflow/pkg/adapters/memory"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskingSink(t *testing.T) {
	now := time.Now()
	summary := domain.CallSummary{
		SessionID: "call-1",
		Transcript: []domain.Exchange{
			{Origin: domain.OriginSystem, Text: "Please enter your PNR.", Timestamp: now},
			{Origin: domain.OriginUser, Text: "2415319876", Timestamp: now},
			{Origin: domain.OriginUser, Text: "12951", Timestamp: now},
			{Origin: domain.OriginSystem, Text: "PNR 2415319876 is confirmed.", Timestamp: now},
			{Origin: domain.OriginUser, Text: "card 4111 please", Timestamp: now},
		},
		CollectedData: map[string]string{"pnr": "2415319876", "train_number": "12951", "Card": "4111"},
	}

	inner := memory.NewSummarySink()
	sink, err := middleware.NewMaskingSink(inner, []string{"^pnr$", "card"})
	require.NoError(t, err)
	require.NoError(t, sink.Record(context.Background(), summary))

	got := inner.Summaries()
	require.Len(t, got, 1)
	assert.Equal(t, map[string]string{"pnr": middleware.Mask, "train_number": "12951", "Card": "4111"}, got[0].CollectedData)
	assert.Equal(t, "Please enter your PNR.", got[0].Transcript[0].Text)
	assert.Equal(t, middleware.Mask, got[0].Transcript[1].Text)
	assert.Equal(t, "12951", got[0].Transcript[2].Text)
	assert.Equal(t, "PNR *** is confirmed.", got[0].Transcript[3].Text)
	assert.Equal(t, "card 4111 please", got[0].Transcript[4].Text, "patterns are case sensitive")

	assert.Equal(t, "2415319876", summary.CollectedData["pnr"], "the original summary is untouched")
	assert.Equal(t, "2415319876", summary.Transcript[1].Text)

	_, err = middleware.NewMaskingSink(inner, []string{"("})
	assert.Error(t, err)
}
