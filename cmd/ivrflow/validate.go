package main

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/ivrflow/internal/validator"
	"github.com/aretw0/ivrflow/pkg/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check the flow definitions for consistency",
	Long: `Loads every flow, reports structural errors (dead targets, unknown flows, missing
transitions) and warns about flows and states no call can reach from the main flow.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.FlowsDir
		if len(args) > 0 {
			dir = args[0]
		}
		return runValidate(cmd.Context(), cmd.OutOrStdout(), dir, cfg.MainFlow)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(ctx context.Context, out io.Writer, dir, mainFlow string) error {
	set, err := loadSet(ctx, dir)
	if err != nil {
		if errs := schema.ValidationErrors(err); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintf(out, "  ✗ %v\n", e)
			}
			return fmt.Errorf("validation failed: %d errors", len(errs))
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	warnings, err := validator.Unreachable(set, mainFlow)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	for _, w := range warnings {
		fmt.Fprintf(out, "  ! %s\n", w)
	}

	fmt.Fprintf(out, "%d flows are valid! ✅\n", set.Len())
	return nil
}
