package schema_test

import (
	"testing"

	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pnrFlow = `
name: pnr_status
description: PNR status enquiry
initial_state: ask_pnr
states:
  ask_pnr:
    message: "Please say or enter your ten digit PNR number."
    options:
      "*": "Main menu"
      "0": "Repeat"
    transitions:
      "*": "flow:train_main"
      "0": ask_pnr
      default: report
    keywords:
      "*": ["Main Menu", "go back"]
  report:
    message: "PNR {pnr} is confirmed."
    actions:
      - type: collect_data
        field: pnr
        validator: {digits: true, length: "10", message: "A PNR has ten digits."}
        max_attempts: 3
        on_exhausted: "flow:support"
    end: true
`

func TestDecode(t *testing.T) {
	flow, err := schema.Decode([]byte(pnrFlow))
	require.NoError(t, err)

	assert.Equal(t, "pnr_status", flow.Name)
	assert.Equal(t, "ask_pnr", flow.InitialState)
	assert.Equal(t, []string{"ask_pnr", "report"}, flow.Order)

	ask, ok := flow.State("ask_pnr")
	require.True(t, ok)
	assert.Equal(t, []string{"*", "0"}, ask.Options.Keys(), "options keep document order")

	require.Len(t, ask.Transitions, 3)
	assert.Equal(t, domain.FlowTarget("train_main"), ask.Transitions[0].Target)
	assert.Equal(t, []string{"main menu", "go back"}, ask.Transitions[0].Keywords)
	assert.Equal(t, []string{"repeat"}, ask.Transitions[1].Keywords, "label is the fallback keyword")
	assert.Empty(t, ask.Transitions[2].Keywords)

	report, _ := flow.State("report")
	assert.True(t, report.Terminal())
	require.Len(t, report.Actions, 1)
	c := report.Actions[0].Collect
	require.NotNil(t, c)
	assert.Equal(t, "pnr", c.Field)
	assert.Equal(t, 3, c.MaxAttempts)
	require.NotNil(t, c.OnExhausted)
	assert.Equal(t, domain.FlowTarget("support"), *c.OnExhausted)
	require.NotNil(t, c.Validator)
	assert.True(t, c.Validator.Digits)
	assert.Equal(t, 10, c.Validator.Length)
}

func TestDecode_JSON(t *testing.T) {
	doc := `{"name": "x", "initial_state": "a", "states": {"a": {"message": "hi", "actions": [{"collect_data": "name"}]}}}`
	flow, err := schema.Decode([]byte(doc))
	require.NoError(t, err)
	a, _ := flow.State("a")
	require.Len(t, a.Actions, 1)
	assert.Equal(t, domain.ActionCollectData, a.Actions[0].Type)
	assert.Equal(t, "name", a.Actions[0].Collect.Field)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"Missing Name", "initial_state: a\nstates: {a: {message: hi}}"},
		{"Not YAML", "name: [unclosed"},
		{"States Not Mapping", "name: x\nstates: [a, b]"},
		{"Unknown Action", "name: x\nstates:\n  a:\n    actions: [{type: launch_rocket}]"},
		{"Unknown Action Field", "name: x\nstates:\n  a:\n    actions: [{type: collect_data, field: f, colour: red}]"},
		{"Bare Action Name", "name: x\nstates:\n  a:\n    actions: [collect_data]"},
		{"Bad Pattern", "name: x\nstates:\n  a:\n    actions: [{type: collect_data, field: f, validator: {pattern: '('}}]"},
		{"Empty Target", "name: x\nstates:\n  a:\n    transitions: {default: ''}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.Decode([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, schema.IsValidation(err), "expected a ValidationError, got %T", err)
		})
	}
}
