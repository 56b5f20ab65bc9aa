package ivrflow_test

import (
	"context"
	"testing"

	"github.com/aretw0/ivrflow"
	"github.com/aretw0/ivrflow/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The shipped train enquiry menus.
const shippedFlows = "flows"

func TestShippedFlows_AreReachable(t *testing.T) {
	eng, err := ivrflow.New(shippedFlows)
	require.NoError(t, err)

	names := make([]string, 0)
	for _, f := range eng.Flows() {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{
		"booking", "cancellation", "fare_enquiry", "pnr_status", "schedule",
		"seat_availability", "status", "support", "train_main", "trains_between",
	}, names)

	warnings, err := validator.Unreachable(eng.Catalog(), ivrflow.DefaultMainFlow)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestShippedFlows_Scenarios(t *testing.T) {
	type turn struct {
		input    string
		flow     string
		state    string
		contains string
		end      bool
	}
	tests := []struct {
		name  string
		turns []turn
	}{
		{
			name: "PNR Status With Retry",
			turns: []turn{
				{"5", "pnr_status", "ask_pnr", "10 digit PNR", false},
				{"12345", "pnr_status", "ask_pnr", "A PNR number has 10 digits.", false},
				{"2415319876", "pnr_status", "report", "PNR 2415319876: your ticket is confirmed.", false},
				{"*", "train_main", "main_menu", "Press 1 for Booking", false},
			},
		},
		{
			name: "Free Text Prefers PNR Over Status",
			turns: []turn{
				{"what is my pnr status", "pnr_status", "ask_pnr", "10 digit PNR", false},
			},
		},
		{
			name: "Booking End To End",
			turns: []turn{
				{"I want to book a ticket", "booking", "ask_train", "five digit train number", false},
				{"12951", "booking", "ask_date", "Train 12951 noted.", false},
				{"15 August", "booking", "ask_class", "Travelling on 15 August.", false},
				{"2", "booking", "ask_passengers", "How many passengers", false},
				{"9", "booking", "ask_passengers", "Please say a number between 1 and 6.", false},
				{"2", "booking", "confirm", "for 2 passengers", false},
				{"yes please", "booking", "booked", "is confirmed", true},
			},
		},
		{
			name: "Exhausted PNR Goes To Support",
			turns: []turn{
				{"4", "cancellation", "ask_pnr", "cancel a ticket", false},
				{"1", "cancellation", "ask_pnr", "A PNR number has 10 digits.", false},
				{"2", "cancellation", "ask_pnr", "A PNR number has 10 digits.", false},
				{"3", "support", "support_menu", "customer support agent", false},
				{"1", "support", "agent", "Please hold", true},
			},
		},
		{
			name: "Unknown Input Clarifies",
			turns: []turn{
				{"weather forecast", "train_main", "main_menu", "Sorry, I didn't understand that.", false},
				{"   ", "train_main", "main_menu", "I didn't catch that.", false},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			eng, err := ivrflow.New(shippedFlows)
			require.NoError(t, err)

			start, err := eng.Start(ctx)
			require.NoError(t, err)
			require.Len(t, start.Options, 12)

			for i, step := range tt.turns {
				resp, err := eng.Input(ctx, start.SessionID, step.input)
				require.NoError(t, err, "turn %d", i)
				assert.Equal(t, step.flow, resp.Flow, "turn %d", i)
				assert.Equal(t, step.state, resp.State, "turn %d", i)
				assert.Contains(t, resp.Message, step.contains, "turn %d", i)
				assert.Equal(t, step.end, resp.IsEnd, "turn %d", i)
			}
		})
	}
}
