package ivrflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/internal/runtime"
	"github.com/aretw0/ivrflow/pkg/adapters/file"
	"github.com/aretw0/ivrflow/pkg/adapters/memory"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/flowstore"
	"github.com/aretw0/ivrflow/pkg/input"
	"github.com/aretw0/ivrflow/pkg/ports"
	"github.com/aretw0/ivrflow/pkg/session"
	"github.com/google/uuid"
)

// DefaultMainFlow is the flow every call starts in.
const DefaultMainFlow = "train_main"

// Response is what a caller hears after starting a call or sending input.
type Response struct {
	SessionID string         `json:"session_id"`
	Message   string         `json:"message"`
	State     string         `json:"state"`
	Flow      string         `json:"flow"`
	Options   domain.Options `json:"options"`
	IsEnd     bool           `json:"is_end"`
}

// EndResult is returned when a call ends.
type EndResult struct {
	Message string             `json:"message"`
	Summary domain.CallSummary `json:"summary"`
}

// FlowInfo describes a loaded flow.
type FlowInfo struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	InitialState string   `json:"initial_state"`
	States       []string `json:"states"`
}

// SessionObserver is told about every persisted session change. before is nil for new calls.
type SessionObserver func(ctx context.Context, before, after *domain.Session)

// Engine is the high-level entry point. It owns the flow store, the session
// manager and the resolver, and serialises the turns of each call.
type Engine struct {
	source   ports.FlowSource
	flows    *flowstore.Store
	runtime  *runtime.Engine
	sessions *session.Manager
	store    ports.SessionStore
	locker   ports.DistributedLocker
	sinks    []ports.SummarySink
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	mainFlow string
	welcome  string
	maxInput int
	clock    func() time.Time
	newID    func() string

	obsMu     sync.RWMutex
	observers map[int]SessionObserver
	nextObs   int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithFlowSource replaces the default directory source.
func WithFlowSource(src ports.FlowSource) Option {
	return func(e *Engine) {
		e.source = src
	}
}

// WithSessionStore sets where sessions are kept. Defaults to memory.
func WithSessionStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serialises turns across replicas sharing a session store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithSummarySinks adds sinks receiving the summary of every ended call.
func WithSummarySinks(sinks ...ports.SummarySink) Option {
	return func(e *Engine) {
		e.sinks = append(e.sinks, sinks...)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithMainFlow sets the flow calls start in.
func WithMainFlow(name string) Option {
	return func(e *Engine) {
		e.mainFlow = name
	}
}

// WithWelcome replaces the sentence spoken after the greeting.
func WithWelcome(text string) Option {
	return func(e *Engine) {
		e.welcome = text
	}
}

// WithMaxInputSize bounds the bytes accepted per input.
func WithMaxInputSize(n int) Option {
	return func(e *Engine) {
		e.maxInput = n
	}
}

// WithClock injects the time source used for greetings and transcripts.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// WithIDGenerator replaces the UUIDv4 session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// New creates an engine reading flows from flowsDir and loads them.
// flowsDir may be empty when WithFlowSource is given.
func New(flowsDir string, opts ...Option) (*Engine, error) {
	e := &Engine{
		mainFlow:  DefaultMainFlow,
		welcome:   DefaultWelcome,
		maxInput:  input.MaxInputSize(),
		clock:     time.Now,
		newID:     uuid.NewString,
		observers: make(map[int]SessionObserver),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.source == nil {
		if flowsDir == "" {
			return nil, errors.New("flowsDir is required when no custom flow source is provided")
		}
		e.source = file.NewFlowSource(flowsDir, file.WithSourceLogger(e.logger))
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}

	e.flows = flowstore.New(e.source,
		flowstore.WithLogger(e.logger),
		flowstore.WithHooks(e.hooks),
	)
	e.runtime = runtime.NewEngine(
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithMainFlow(e.mainFlow),
	)

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(e.store, sessionOpts...)

	if err := e.flows.Reload(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load flows: %w", err)
	}
	return e, nil
}

// catalog returns the active snapshot. Callers capture it once per turn.
func (e *Engine) catalog() ports.FlowCatalog {
	if set := e.flows.Snapshot(); set != nil {
		return set
	}
	return nil
}

// Start opens a call positioned at the main flow's initial state and
// returns the greeting followed by the main menu.
func (e *Engine) Start(ctx context.Context) (Response, error) {
	now := e.clock()
	sess := domain.NewSession(e.newID(), e.mainFlow, fallbackState, now)
	lead := Greeting(now) + "! " + e.welcome

	var res domain.StepResult
	entered, entry, err := e.runtime.Enter(e.catalog(), sess, e.mainFlow)
	if err != nil {
		e.logger.Warn("Main flow unavailable, using fallback menu", "session_id", sess.ID, "flow", e.mainFlow, "err", err)
		res = domain.StepResult{
			Flow:    e.mainFlow,
			State:   fallbackState,
			Message: lead + " " + fallbackMenu,
			Options: fallbackOptions,
		}
	} else {
		sess = entered
		res = entry
		res.Message = lead + " " + entry.Message
	}
	sess.Append(domain.OriginSystem, res.Message, now)

	if err := e.sessions.Create(ctx, sess); err != nil {
		return Response{}, fmt.Errorf("failed to start call: %w", err)
	}
	e.logger.Info("Call started", "session_id", sess.ID, "flow", sess.CurrentFlow, "state", sess.CurrentState)
	e.notify(ctx, nil, sess)
	return e.response(sess.ID, res), nil
}

// Input runs one caller turn. Turns of the same call are serialised.
// Errors are limited to unknown or ended sessions, rejected input and storage failures;
// faults inside the turn come back as an apology in the Response.
func (e *Engine) Input(ctx context.Context, sessionID, raw string) (Response, error) {
	clean, err := input.SanitizeLimit(raw, e.maxInput)
	if err != nil {
		return Response{}, err
	}

	var res domain.StepResult
	var before *domain.Session
	after, err := e.sessions.Update(ctx, sessionID, func(sess *domain.Session) (*domain.Session, error) {
		if sess.Ended() {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionEnded, sessionID)
		}
		before = sess.Clone()
		catalog := e.catalog()

		sess.Append(domain.OriginUser, input.Normalize(clean), e.clock())
		next, r := e.runtime.Turn(ctx, catalog, sess, clean)
		next.Append(domain.OriginSystem, r.Message, e.clock())
		res = r
		return next, nil
	})
	if err != nil {
		return Response{}, err
	}

	if res.Recovered() {
		e.logger.Debug("Turn recovered", "session_id", sessionID, "flow", res.Flow, "state", res.State, "err", res.Fault)
	}
	e.notify(ctx, before, after)
	return e.response(sessionID, res), nil
}

// End finalises the call and hands its summary to every sink. Sink failures are
// logged, never returned. Ending an ended call returns the same summary again.
func (e *Engine) End(ctx context.Context, sessionID string) (EndResult, error) {
	var before *domain.Session
	first := false
	after, err := e.sessions.Update(ctx, sessionID, func(sess *domain.Session) (*domain.Session, error) {
		before = sess.Clone()
		if !sess.Ended() {
			first = true
			sess.End(e.clock())
		}
		return sess, nil
	})
	if err != nil {
		return EndResult{}, err
	}

	summary := after.Summary()
	if first {
		for _, sink := range e.sinks {
			if err := sink.Record(ctx, summary); err != nil {
				e.logger.Error("Failed to record call summary", "session_id", sessionID, "err", err)
			}
		}
		if e.hooks.OnCallEnd != nil {
			e.hooks.OnCallEnd(ctx, &domain.CallEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventCallEnd, SessionID: sessionID},
				Duration:  time.Duration(summary.DurationSeconds * float64(time.Second)),
				Exchanges: summary.TotalExchanges,
			})
		}
		e.logger.Info("Call ended", "session_id", sessionID, "duration_seconds", summary.DurationSeconds, "exchanges", summary.TotalExchanges)
		e.notify(ctx, before, after)
	}
	return EndResult{Message: "Call ended successfully", Summary: summary}, nil
}

// Session returns a copy of the call record.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.sessions.Get(ctx, sessionID)
}

// Sessions lists the ids of known calls.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Flows describes the active flows, sorted by name.
func (e *Engine) Flows() []FlowInfo {
	set := e.flows.Snapshot()
	if set == nil {
		return []FlowInfo{}
	}
	out := make([]FlowInfo, 0, set.Len())
	for _, f := range set.Flows() {
		out = append(out, FlowInfo{
			Name:         f.Name,
			Description:  f.Description,
			InitialState: f.InitialState,
			States:       f.StateIDs(),
		})
	}
	return out
}

// Flow returns a definition from the active snapshot.
func (e *Engine) Flow(name string) (*domain.FlowDefinition, error) {
	return e.flows.Get(name)
}

// Catalog returns the active snapshot of flow definitions.
func (e *Engine) Catalog() ports.FlowCatalog {
	return e.catalog()
}

// Reload re-reads the flow source. On failure the previous flows stay active.
func (e *Engine) Reload(ctx context.Context) error {
	return e.flows.Reload(ctx)
}

// Watch reloads flows whenever the source changes, until ctx is done.
func (e *Engine) Watch(ctx context.Context) error {
	return e.flows.AutoReload(ctx)
}

// FlowsVersion counts successful flow loads.
func (e *Engine) FlowsVersion() uint64 {
	return e.flows.Snapshot().Version()
}

// MainFlow returns the flow calls start in.
func (e *Engine) MainFlow() string {
	return e.mainFlow
}

// Observe registers fn for session changes and returns a function removing it.
func (e *Engine) Observe(fn SessionObserver) (cancel func()) {
	e.obsMu.Lock()
	id := e.nextObs
	e.nextObs++
	e.observers[id] = fn
	e.obsMu.Unlock()

	return func() {
		e.obsMu.Lock()
		delete(e.observers, id)
		e.obsMu.Unlock()
	}
}

func (e *Engine) notify(ctx context.Context, before, after *domain.Session) {
	e.obsMu.RLock()
	defer e.obsMu.RUnlock()
	for _, fn := range e.observers {
		fn(ctx, before, after)
	}
}

func (e *Engine) response(sessionID string, res domain.StepResult) Response {
	opts := res.Options
	if opts == nil {
		opts = domain.Options{}
	}
	return Response{
		SessionID: sessionID,
		Message:   strings.TrimSpace(res.Message),
		State:     res.State,
		Flow:      res.Flow,
		Options:   opts,
		IsEnd:     res.Terminal,
	}
}
