package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/ivrflow/pkg/domain"
)

// GraphOverlay contains live call data to visualize on the graph.
type GraphOverlay struct {
	VisitedStates []string
	CurrentState  string
}

// GenerateMermaid produces a Mermaid flowchart for one flow.
// It applies semantic styling:
// - Initial state: ((Circle))
// - Collecting state: [/Parallelogram/]
// - Terminal state: ([Stadium])
// - Other: [Rectangle]
// - Other flows: [[Subroutine]], reached by dotted edges
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(flow *domain.FlowDefinition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	external := make(map[string]bool)
	var externalOrder []string

	for _, id := range flow.StateIDs() {
		state := flow.States[id]
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		switch {
		case id == flow.InitialState:
			opener, closer = "((", "))"
		case collects(state):
			opener, closer = "[/", "/]"
		case state.Terminal():
			opener, closer = "([", "])"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, id, closer))

		for _, t := range state.Transitions {
			label := edgeLabel(state, t.Key)
			if t.Target.IsCrossFlow() {
				to := flowNodeID(t.Target.Flow)
				if !external[t.Target.Flow] {
					external[t.Target.Flow] = true
					externalOrder = append(externalOrder, t.Target.Flow)
				}
				sb.WriteString(fmt.Sprintf("    %s -. \"%s\" .-> %s\n", safeID, label, to))
				continue
			}
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, label, sanitizeMermaidID(t.Target.State)))
		}

		for _, a := range state.Actions {
			if a.Collect == nil || a.Collect.OnExhausted == nil {
				continue
			}
			target := *a.Collect.OnExhausted
			to := sanitizeMermaidID(target.State)
			if target.IsCrossFlow() {
				to = flowNodeID(target.Flow)
				if !external[target.Flow] {
					external[target.Flow] = true
					externalOrder = append(externalOrder, target.Flow)
				}
			}
			sb.WriteString(fmt.Sprintf("    %s -. \"%s exhausted\" .-> %s\n", safeID, a.Collect.Field, to))
		}
	}

	for _, name := range externalOrder {
		sb.WriteString(fmt.Sprintf("    %s[[\"flow:%s\"]]\n", flowNodeID(name), name))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedStates {
			if _, ok := flow.States[id]; !ok {
				continue
			}
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}
		if _, ok := flow.States[overlay.CurrentState]; ok {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentState)))
		}
	}

	return sb.String()
}

func collects(state *domain.StateDefinition) bool {
	for _, a := range state.Actions {
		if a.Type == domain.ActionCollectData {
			return true
		}
	}
	return false
}

// edgeLabel shows the key and, when the state offers it, the option label.
func edgeLabel(state *domain.StateDefinition, key string) string {
	label := key
	if text, ok := state.Options.Get(key); ok {
		label = key + ": " + text
	}
	return strings.ReplaceAll(label, "\"", "'")
}

func flowNodeID(name string) string {
	return "flow_" + sanitizeMermaidID(name)
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_", "*", "star", "#", "hash")
	return r.Replace(id)
}
