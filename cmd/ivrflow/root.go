package main

import (
	"fmt"
	"os"

	"github.com/aretw0/ivrflow/internal/config"
	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/spf13/cobra"
)

// Settings resolved before any subcommand runs.
var (
	cfg    config.Config
	logger = logging.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "ivrflow",
	Short: "ivrflow drives phone calls through declarative IVR menus",
	Long: `ivrflow loads IVR menu flows from YAML files and runs calls through them,
either over an HTTP API (serve) or as a simulated call in the terminal (call).

Settings come from IVR_* environment variables, an optional .env file and flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadSettings(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("env-file", "", "Read settings from this file instead of .env")
	f.String("flows", "", "Directory containing flow definitions (IVR_FLOWS_DIR)")
	f.String("main-flow", "", "Flow every call starts in (IVR_MAIN_FLOW)")
	f.Bool("debug", false, "Enable debug logging (IVR_DEBUG)")
	f.String("log-format", "", "Log format, text or json (IVR_LOG_FORMAT)")
}

// loadSettings reads the environment, applies flag overrides and builds the logger.
func loadSettings(cmd *cobra.Command) error {
	var files []string
	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		files = append(files, envFile)
	}
	loaded, err := config.Load(files...)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	overrideString(cmd, "flows", &loaded.FlowsDir)
	overrideString(cmd, "main-flow", &loaded.MainFlow)
	overrideString(cmd, "log-format", &loaded.LogFormat)
	overrideBool(cmd, "debug", &loaded.Debug)

	overrideString(cmd, "addr", &loaded.Addr)
	overrideBool(cmd, "watch", &loaded.Watch)
	overrideString(cmd, "session-backend", &loaded.SessionBackend)
	overrideString(cmd, "session-dir", &loaded.SessionDir)
	overrideString(cmd, "redis-addr", &loaded.RedisAddr)
	overrideString(cmd, "summary-dir", &loaded.SummaryDir)
	overrideString(cmd, "summary-db-driver", &loaded.SummaryDBDriver)
	overrideString(cmd, "summary-db-dsn", &loaded.SummaryDBDSN)
	overrideInt(cmd, "max-input-size", &loaded.MaxInputSize)

	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = loaded
	logger = logging.NewWithWriter(os.Stderr, logging.Level(cfg.Debug), logging.ParseFormat(cfg.LogFormat))
	logger.Debug("Configuration loaded",
		"flows", cfg.FlowsDir,
		"main_flow", cfg.MainFlow,
		"session_backend", cfg.SessionBackend,
		"summary_dir", cfg.SummaryDir,
		"summary_db", cfg.SummaryDBDriver,
	)
	return nil
}

// The override helpers apply a flag only when the user set it; flags not
// defined on cmd are ignored.

func overrideString(cmd *cobra.Command, name string, dst *string) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst = f.Value.String()
	}
}

func overrideBool(cmd *cobra.Command, name string, dst *bool) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst, _ = cmd.Flags().GetBool(name)
	}
}

func overrideInt(cmd *cobra.Command, name string, dst *int) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst, _ = cmd.Flags().GetInt(name)
	}
}
