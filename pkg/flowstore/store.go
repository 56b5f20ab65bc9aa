package flowstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/ports"
)

// ErrNotWatchable is returned by AutoReload when the source cannot report changes.
var ErrNotWatchable = errors.New("flow source does not support watching")

// DefaultDebounce coalesces bursts of file events (editors often write twice).
const DefaultDebounce = 200 * time.Millisecond

// Store owns the active flow Set and swaps it atomically on reload.
type Store struct {
	source   ports.FlowSource
	active   atomic.Pointer[Set]
	reloadMu sync.Mutex
	version  uint64

	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	debounce time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for reload reports.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithHooks registers lifecycle hooks; only OnReload is used by the store.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Store) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithDebounce overrides the delay used by AutoReload to coalesce change events.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		s.debounce = d
	}
}

// New creates a store over source. Nothing is loaded until Reload is called.
func New(source ports.FlowSource, opts ...Option) *Store {
	s := &Store{
		source:   source,
		logger:   logging.NewNop(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads and validates the source without touching the active set.
func (s *Store) Load(ctx context.Context) (*Set, error) {
	if s.source == nil {
		return nil, errors.New("flowstore: no flow source configured")
	}
	flows, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load flows: %w", err)
	}
	set, err := NewSet(flows)
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Reload builds a new Set from the source and makes it active.
// On any error the previous Set stays active.
func (s *Store) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	set, err := s.Load(ctx)
	if err != nil {
		s.logger.Error("Flow reload rejected", "err", err, "active_version", s.Snapshot().Version())
		s.emitReload(ctx, 0, err)
		return err
	}

	s.version++
	set.version = s.version
	s.active.Store(set)

	s.logger.Info("Flows loaded", "flows", set.Len(), "version", set.version)
	s.emitReload(ctx, set.Len(), nil)
	return nil
}

// Swap installs an already built set. Used by tests and embedders that validate elsewhere.
func (s *Store) Swap(set *Set) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	s.version++
	set.version = s.version
	s.active.Store(set)
}

// Snapshot returns the active set, or nil before the first successful load.
func (s *Store) Snapshot() *Set {
	return s.active.Load()
}

// Get reads through the active snapshot.
func (s *Store) Get(name string) (*domain.FlowDefinition, error) {
	return s.Snapshot().Get(name)
}

// Names lists the flows of the active snapshot.
func (s *Store) Names() []string {
	return s.Snapshot().Names()
}

// AutoReload reloads the store whenever the source reports a change.
// It blocks until ctx is done. Failed reloads are logged and the store keeps serving.
func (s *Store) AutoReload(ctx context.Context) error {
	w, ok := s.source.(ports.Watchable)
	if !ok {
		return ErrNotWatchable
	}
	events, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch flows: %w", err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.logger.Debug("Flow source changed", "event", ev)
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			_ = s.Reload(ctx)
		}
	}
}

func (s *Store) emitReload(ctx context.Context, n int, err error) {
	if s.hooks.OnReload == nil {
		return
	}
	s.hooks.OnReload(ctx, &domain.ReloadEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventReload},
		Flows:     n,
		Err:       err,
	})
}
