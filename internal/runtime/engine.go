package runtime

import (
	"log/slog"

	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/pkg/domain"
)

// Messages holds the fixed phrases the engine speaks on its own behalf.
type Messages struct {
	// Apology is returned by a no-op turn after an unexpected fault.
	Apology string
	// NoInput prefixes the repeated prompt when the caller said nothing.
	NoInput string
	// NoMatch prefixes the repeated prompt when nothing matched and there is no default.
	NoMatch string
	// Unavailable prefixes the repeated prompt when a jump names a missing flow.
	Unavailable string
	// Reprompt replaces a state prompt that cannot be rendered.
	Reprompt string
	// Rejected is the corrective text used when a validator has no message of its own.
	Rejected string
	// Relocated prefixes the main menu when the caller's state disappeared in a reload.
	Relocated string
}

// DefaultMessages returns the stock English phrases.
func DefaultMessages() Messages {
	return Messages{
		Apology:     "I apologize, but I encountered an issue processing your request. Let's try again! You can say your request again or use the keypad. How can I help you?",
		NoInput:     "I didn't catch that.",
		NoMatch:     "Sorry, I didn't understand that.",
		Unavailable: "Sorry, that service is not available right now.",
		Reprompt:    "Sorry, something went wrong with this menu. Please say your request again or use the keypad.",
		Rejected:    "That doesn't look right.",
		Relocated:   "Sorry, this menu has changed. Let's start again from the main menu.",
	}
}

// Engine resolves caller turns against a flow catalog.
// It holds no session state; every call passes the session in and gets a new one back.
type Engine struct {
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	mainFlow string
	messages Messages
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
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

// WithMainFlow names the flow calls are relocated to when their state disappears.
func WithMainFlow(name string) Option {
	return func(e *Engine) {
		e.mainFlow = name
	}
}

// WithMessages overrides the engine phrases. Empty fields keep their defaults.
func WithMessages(m Messages) Option {
	return func(e *Engine) {
		d := &e.messages
		set := func(dst *string, v string) {
			if v != "" {
				*dst = v
			}
		}
		set(&d.Apology, m.Apology)
		set(&d.NoInput, m.NoInput)
		set(&d.NoMatch, m.NoMatch)
		set(&d.Unavailable, m.Unavailable)
		set(&d.Reprompt, m.Reprompt)
		set(&d.Rejected, m.Rejected)
		set(&d.Relocated, m.Relocated)
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:   logging.NewNop(),
		mainFlow: "train_main",
		messages: DefaultMessages(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Messages returns the phrases in use.
func (e *Engine) Messages() Messages {
	return e.messages
}

// MainFlow returns the flow used for relocation.
func (e *Engine) MainFlow() string {
	return e.mainFlow
}
