package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/ivrflow"
	"github.com/aretw0/ivrflow/internal/config"
	"github.com/aretw0/ivrflow/internal/metrics"
	"github.com/aretw0/ivrflow/pkg/adapters/file"
	"github.com/aretw0/ivrflow/pkg/adapters/memory"
	"github.com/aretw0/ivrflow/pkg/adapters/redis"
	"github.com/aretw0/ivrflow/pkg/adapters/sqlstore"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/persistence/middleware"
	"github.com/aretw0/ivrflow/pkg/ports"
)

// app is an engine wired to the configured backends.
type app struct {
	engine  *ivrflow.Engine
	metrics *metrics.Collector
	closers []func() error
}

// newApp builds the session store, summary sinks and engine described by c.
func newApp(ctx context.Context, c config.Config, logger *slog.Logger) (*app, error) {
	a := &app{metrics: metrics.New()}
	opts := []ivrflow.Option{
		ivrflow.WithLogger(logger),
		ivrflow.WithMainFlow(c.MainFlow),
		ivrflow.WithMaxInputSize(c.MaxInputSize),
	}

	hooks := a.metrics.Hooks()
	if c.Debug {
		hooks = hooks.Merge(debugHooks(logger))
	}
	opts = append(opts, ivrflow.WithLifecycleHooks(hooks))

	store, locker, err := a.sessionStore(ctx, c)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if store, err = encryptSessions(store, c); err != nil {
		_ = a.Close()
		return nil, err
	}
	opts = append(opts, ivrflow.WithSessionStore(store))
	if locker != nil {
		opts = append(opts, ivrflow.WithLocker(locker))
	}

	sinks, err := a.summarySinks(ctx, c, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	opts = append(opts, ivrflow.WithSummarySinks(sinks...))

	a.engine, err = ivrflow.New(c.FlowsDir, opts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return a, nil
}

func (a *app) sessionStore(ctx context.Context, c config.Config) (ports.SessionStore, ports.DistributedLocker, error) {
	switch c.SessionBackend {
	case config.BackendFile:
		return file.NewStore(c.SessionDir), nil, nil
	case config.BackendRedis:
		store := redis.New(c.RedisAddr, c.RedisPassword, c.RedisDB, redis.WithTTL(c.SessionTTL))
		a.closers = append(a.closers, store.Close)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", c.RedisAddr, err)
		}
		return store, redis.NewLocker(store.Client(), "ivrflow:"), nil
	default:
		return memory.NewStore(), nil, nil
	}
}

func (a *app) summarySinks(ctx context.Context, c config.Config, logger *slog.Logger) ([]ports.SummarySink, error) {
	var sinks []ports.SummarySink
	if c.SummaryDir != "" {
		sinks = append(sinks, file.NewSummarySink(c.SummaryDir))
	}
	if c.SummaryDBDSN != "" {
		db, err := sqlstore.Open(ctx, c.SummaryDBDriver, c.SummaryDBDSN, sqlstore.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		sinks = append(sinks, db)
	}
	if len(c.SummaryMask) == 0 {
		return sinks, nil
	}

	masked := make([]ports.SummarySink, 0, len(sinks))
	for _, sink := range sinks {
		m, err := middleware.NewMaskingSink(sink, c.SummaryMask)
		if err != nil {
			return nil, err
		}
		masked = append(masked, m)
	}
	return masked, nil
}

// encryptSessions wraps store with encryption at rest when a session key is configured.
func encryptSessions(store ports.SessionStore, c config.Config) (ports.SessionStore, error) {
	if c.SessionKey == "" {
		return store, nil
	}
	active, err := middleware.ParseKey(c.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("IVR_SESSION_KEY: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range c.SessionFallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("IVR_SESSION_FALLBACK_KEYS[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	mw, err := middleware.NewEncryptionMiddleware(enc)
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, mw), nil
}

// Close releases backend connections in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			logger.Debug("Enter State", "session_id", e.SessionID, "flow", e.Flow, "state", e.State, "class", e.Class)
		},
		OnFlowJump: func(ctx context.Context, e *domain.JumpEvent) {
			logger.Debug("Flow Jump", "session_id", e.SessionID, "from", e.From, "to", e.To)
		},
		OnRecovery: func(ctx context.Context, e *domain.RecoveryEvent) {
			logger.Debug("Recovery", "session_id", e.SessionID, "kind", e.Kind, "err", e.Err)
		},
		OnReload: func(ctx context.Context, e *domain.ReloadEvent) {
			logger.Debug("Reload", "flows", e.Flows, "err", e.Err)
		},
		OnCallEnd: func(ctx context.Context, e *domain.CallEvent) {
			logger.Debug("Call End", "session_id", e.SessionID, "duration", e.Duration, "exchanges", e.Exchanges)
		},
	}
}
