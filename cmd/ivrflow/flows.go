package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aretw0/ivrflow/pkg/adapters/file"
	"github.com/aretw0/ivrflow/pkg/flowstore"
	"github.com/spf13/cobra"
)

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "List the flows in the flow directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlows(cmd.Context(), cmd.OutOrStdout(), cfg.FlowsDir)
	},
}

func init() {
	rootCmd.AddCommand(flowsCmd)
}

// loadSet reads and validates every flow in dir.
func loadSet(ctx context.Context, dir string) (*flowstore.Set, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	defs, err := file.NewFlowSource(dir, file.WithSourceLogger(logger)).Load(ctx)
	if err != nil {
		return nil, err
	}
	return flowstore.NewSet(defs)
}

func runFlows(ctx context.Context, out io.Writer, dir string) error {
	set, err := loadSet(ctx, dir)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tINITIAL STATE\tSTATES\tDESCRIPTION")
	for _, f := range set.Flows() {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f.Name, f.InitialState, len(f.States), f.Description)
	}
	return w.Flush()
}
