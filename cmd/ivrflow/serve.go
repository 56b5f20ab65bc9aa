package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/aretw0/ivrflow/pkg/adapters/http"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the IVR HTTP API",
	Long: `Starts the engine behind a JSON API over HTTP: call start, input and end,
flow listing and reload, session inspection with a live event stream, health and metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	f := serveCmd.Flags()
	f.StringP("addr", "a", "", "Address to listen on (IVR_ADDR, default :8000)")
	f.Bool("watch", false, "Reload flows when files change (IVR_WATCH)")
	f.String("session-backend", "", "Session store: memory, file or redis (IVR_SESSION_BACKEND)")
	f.String("session-dir", "", "Directory for the file session store (IVR_SESSION_DIR)")
	f.String("redis-addr", "", "Redis address for the redis session store (IVR_REDIS_ADDR)")
	f.String("summary-dir", "", "Directory for call summary files (IVR_SUMMARY_DIR)")
	f.String("summary-db-driver", "", "Summary database driver: sqlite3 or postgres (IVR_SUMMARY_DB_DRIVER)")
	f.String("summary-db-dsn", "", "Summary database DSN (IVR_SUMMARY_DB_DSN)")
	f.Int("max-input-size", 0, "Maximum caller input in bytes (IVR_MAX_INPUT_SIZE)")
}

func runServe(ctx context.Context) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("Failed to close backends", "err", err)
		}
	}()

	if cfg.Watch {
		go func() {
			if err := a.engine.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Flow watcher stopped", "err", err)
			}
		}()
	}

	server := httpAdapter.NewServer(a.engine,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithMetrics(a.metrics.Handler()),
	)
	defer server.Close()

	// Request contexts derive from base so open event streams end on shutdown.
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting ivrflow server",
			"addr", srv.Addr,
			"flows", cfg.FlowsDir,
			"main_flow", a.engine.MainFlow(),
			"sessions", cfg.SessionBackend,
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("Start shutdown")
		cancelBase()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				logger.Error("Error killing server", "err", err)
			}
		}
		logger.Info("ivrflow server stopped gracefully")
	}
	return nil
}
