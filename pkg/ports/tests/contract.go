package tests

import (
	"context"
	"testing"

	"github.com/aretw0/ivrflow/pkg/ports"
)

// FlowSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.FlowSource.
// want maps each expected flow name to its expected initial state.
func FlowSourceContractTest(t *testing.T, source ports.FlowSource, want map[string]string) {
	t.Helper()

	flows, err := source.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error loading flows: %v", err)
	}

	t.Run("Load_AllFlows", func(t *testing.T) {
		got := make(map[string]string, len(flows))
		for _, f := range flows {
			got[f.Name] = f.InitialState
		}
		for name, initial := range want {
			g, ok := got[name]
			if !ok {
				t.Errorf("flow %s missing from source", name)
				continue
			}
			if g != initial {
				t.Errorf("flow %s initial state: got %q, want %q", name, g, initial)
			}
		}
	})

	t.Run("Load_StatesPopulated", func(t *testing.T) {
		for _, f := range flows {
			if len(f.States) == 0 {
				t.Errorf("flow %s has no states", f.Name)
			}
			for id, st := range f.States {
				if st.ID != id {
					t.Errorf("flow %s: state keyed %q carries id %q", f.Name, id, st.ID)
				}
			}
		}
	})
}
