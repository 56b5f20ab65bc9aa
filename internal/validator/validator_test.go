package validator_test

import (
	"context"
	"testing"

	"github.com/aretw0/ivrflow/internal/validator"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/dsl"
	"github.com/aretw0/ivrflow/pkg/flowstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnreachable(t *testing.T) {
	main := dsl.NewFlow("train_main")
	main.State("main_menu").
		Say("Press 5 for PNR status.").
		Option("5", "PNR Status").Go("5", "flow:pnr_status").
		State("legacy_menu").
		Say("This menu is no longer linked.").
		End()

	pnr := dsl.NewFlow("pnr_status")
	pnr.State("ask_pnr").
		Say("Enter your PNR.").
		Default("report").
		State("report").
		Say("PNR {pnr} is confirmed.").
		Collect("pnr", dsl.Digits(), dsl.Attempts(3, "flow:support")).
		End()

	support := dsl.NewFlow("support")
	support.State("agent").Say("Connecting you to an agent.").End()

	orphan := dsl.NewFlow("orphan")
	orphan.State("hello").Say("Nobody calls me.").End()

	store := flowstore.New(dsl.Source(main, pnr, support, orphan))
	require.NoError(t, store.Reload(context.Background()))

	warnings, err := validator.Unreachable(store.Snapshot(), "train_main")
	require.NoError(t, err)
	assert.Equal(t, []validator.Warning{
		{Flow: "orphan"},
		{Flow: "train_main", State: "legacy_menu"},
	}, warnings, "support is reached through on_exhausted")
	assert.Equal(t, `flow "orphan" is never entered`, warnings[0].String())
	assert.Equal(t, `flow "train_main": state "legacy_menu" is unreachable`, warnings[1].String())
}

func TestUnreachable_UnknownEntry(t *testing.T) {
	f := dsl.NewFlow("support")
	f.State("agent").Say("Connecting you to an agent.").End()
	store := flowstore.New(dsl.Source(f))
	require.NoError(t, store.Reload(context.Background()))

	_, err := validator.Unreachable(store.Snapshot(), "train_main")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}
