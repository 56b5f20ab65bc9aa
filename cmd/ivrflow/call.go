package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/internal/presentation/console"
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Place a simulated call in the terminal",
	Long: `Starts a call against the main flow and reads caller input from stdin, one line
per turn. Type a keypad code (0-9, *, #) or free text; "quit" hangs up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		asJSON, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")
		return runCall(ctx, asJSON, plain)
	},
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().Bool("json", false, "Print the call summary as JSON when the call ends")
	callCmd.Flags().Bool("plain", false, "Disable colours and markdown rendering")
	callCmd.Flags().String("summary-dir", "", "Directory for call summary files (IVR_SUMMARY_DIR)")
	callCmd.Flags().String("session-backend", "", "Session store: memory, file or redis (IVR_SESSION_BACKEND)")
}

func runCall(ctx context.Context, asJSON, plain bool) error {
	// Logs would interleave with the call; keep them for --debug.
	appLogger := logging.NewNop()
	if cfg.Debug {
		appLogger = logger
	}

	a, err := newApp(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer a.Close()

	var opts []console.Option
	opts = append(opts, console.WithLogger(appLogger))
	if !plain && console.IsInteractive(os.Stdin) && console.IsInteractive(os.Stdout) {
		console.PrintBanner(os.Stdout)
		if r, err := console.NewRenderer(); err == nil {
			opts = append(opts, console.WithRenderer(r))
		}
	}

	summary, err := console.New(a.engine, os.Stdin, os.Stdout, opts...).Run(ctx)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
	}
	return nil
}
