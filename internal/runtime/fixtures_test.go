package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/dsl"
	"github.com/aretw0/ivrflow/pkg/flowstore"
	"github.com/stretchr/testify/require"
)

var callStart = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func trainFlows() []*dsl.FlowBuilder {
	main := dsl.NewFlow("train_main").Describe("Main menu")
	main.State("main_menu").
		Say("Press 1 for Booking, 2 for Train Status, 5 for PNR Status, 9 for Support.").
		Option("1", "Book Train Ticket").Go("1", "flow:booking").
		Option("2", "Check Train Status").Go("2", "flow:status").
		Option("5", "PNR Status Check").Go("5", "flow:pnr_status").
		Option("9", "Customer Support").Go("9", "flow:support").
		Option("0", "Repeat Menu").Go("0", "main_menu").
		// "5" is also a keyword of the status entry; a keypad 5 must still mean PNR.
		Keywords("2", "train status", "running", "5")

	booking := dsl.NewFlow("booking").Describe("Ticket booking")
	booking.State("ask_train").
		Say("Please say or enter the train number.").
		Option("*", "Main Menu").Go("*", "flow:train_main").
		Keywords("*", "main menu", "go back").
		Default("ask_date").
		State("ask_date").
		Say("Train {train_number} noted. On which date do you want to travel?").
		Collect("train_number", dsl.Digits(), dsl.Length(5), dsl.RejectWith("Train numbers have five digits.")).
		Default("confirm").
		State("confirm").
		Say("Booking train {train_number} on {travel_date}. Thank you for calling.").
		Collect("travel_date").
		End()

	status := dsl.NewFlow("status")
	status.State("ask_train").Say("Which train?").End()

	pnr := dsl.NewFlow("pnr_status")
	pnr.State("ask_pnr").
		Say("Please say or enter your ten digit PNR number.").
		Default("report").
		State("report").
		Say("PNR {pnr} is confirmed. Press star for the main menu.").
		Collect("pnr", dsl.Digits(), dsl.Length(10), dsl.RejectWith("A PNR has ten digits."), dsl.Attempts(3, "flow:support")).
		Option("*", "Main Menu").Go("*", "flow:train_main")

	support := dsl.NewFlow("support")
	support.State("agent").Say("Connecting you to an agent.").End()

	return []*dsl.FlowBuilder{main, booking, status, pnr, support}
}

func loadStore(t *testing.T, flows ...*dsl.FlowBuilder) *flowstore.Store {
	t.Helper()
	store := flowstore.New(dsl.Source(flows...))
	require.NoError(t, store.Reload(context.Background()))
	return store
}

func newCall(flow, state string) *domain.Session {
	return domain.NewSession("call-1", flow, state, callStart)
}

// failingCatalog fails every lookup.
type failingCatalog struct{ err error }

func (c failingCatalog) Get(string) (*domain.FlowDefinition, error) { return nil, c.err }
func (c failingCatalog) Names() []string                         { return nil }

// flakyCatalog serves the current flow but fails on any other lookup.
type flakyCatalog struct {
	inner   *flowstore.Set
	current string
	err     error
}

func (c flakyCatalog) Get(name string) (*domain.FlowDefinition, error) {
	if name == c.current {
		return c.inner.Get(name)
	}
	return nil, c.err
}

func (c flakyCatalog) Names() []string { return c.inner.Names() }

// panickyCatalog panics on lookup.
type panickyCatalog struct{}

func (panickyCatalog) Get(string) (*domain.FlowDefinition, error) { panic("index out of range") }
func (panickyCatalog) Names() []string                          { return nil }
