package main

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/ivrflow/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <flow>",
	Short: "Export a flow as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph TD) of one flow. Jumps to other flows are
drawn as dotted edges. With --session, the call's current state is highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var overlay *graph.GraphOverlay
		if id, _ := cmd.Flags().GetString("session"); id != "" {
			o, err := sessionOverlay(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}
			overlay = o
		}
		return runGraph(cmd.Context(), cmd.OutOrStdout(), cfg.FlowsDir, args[0], overlay)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("session", "", "Highlight the position of this call")
	graphCmd.Flags().String("session-backend", "", "Session store holding the call (IVR_SESSION_BACKEND)")
	graphCmd.Flags().String("session-dir", "", "Directory for the file session store (IVR_SESSION_DIR)")
}

func runGraph(ctx context.Context, out io.Writer, dir, name string, overlay *graph.GraphOverlay) error {
	set, err := loadSet(ctx, dir)
	if err != nil {
		return err
	}
	flow, err := set.Get(name)
	if err != nil {
		return err
	}
	fmt.Fprint(out, graph.GenerateMermaid(flow, overlay))
	return nil
}

// sessionOverlay reads the call from the configured session store.
func sessionOverlay(ctx context.Context, sessionID, flow string) (*graph.GraphOverlay, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	sess, err := a.engine.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	overlay := &graph.GraphOverlay{}
	if sess.CurrentFlow == flow {
		overlay.CurrentState = sess.CurrentState
		overlay.VisitedStates = []string{sess.CurrentState}
	}
	return overlay, nil
}
