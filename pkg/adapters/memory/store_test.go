package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ivrflow/pkg/adapters/memory"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/ports"
	contract "github.com/aretw0/ivrflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

const mainDoc = `
name: train_main
initial_state: main_menu
states:
  main_menu:
    message: "Press 1 to book."
    options: {"1": "Book"}
    transitions: {"1": "flow:booking"}
`

const bookingDoc = `
name: booking
initial_state: ask_train
states:
  ask_train:
    message: "Train number?"
    end: true
`

func TestFlowSource_Contract(t *testing.T) {
	source, err := memory.NewFlowSourceFromYAML(mainDoc, bookingDoc)
	require.NoError(t, err)

	contract.FlowSourceContractTest(t, source, map[string]string{
		"train_main": "main_menu",
		"booking":    "ask_train",
	})
}

func TestFlowSource_WatchSignalsReplace(t *testing.T) {
	source := memory.NewFlowSource()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := source.Watch(ctx)
	require.NoError(t, err)

	source.Replace(&domain.FlowDefinition{Name: "x"})

	select {
	case ev := <-events:
		assert.Equal(t, "replace", ev)
	case <-time.After(time.Second):
		t.Fatal("no watch event")
	}

	flows, err := source.Load(ctx)
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, "x", flows[0].Name)
}

func TestSummarySink(t *testing.T) {
	sink := memory.NewSummarySink()
	require.NoError(t, sink.Record(context.Background(), domain.CallSummary{SessionID: "a"}))
	require.NoError(t, sink.Record(context.Background(), domain.CallSummary{SessionID: "b"}))

	got := sink.Summaries()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].SessionID)
}
