// Package console runs a simulated call in the terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/ivrflow"
	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/input"
)

// Caller is the part of the engine a console call needs.
type Caller interface {
	Start(ctx context.Context) (ivrflow.Response, error)
	Input(ctx context.Context, sessionID, text string) (ivrflow.Response, error)
	End(ctx context.Context, sessionID string) (ivrflow.EndResult, error)
}

// Console reads caller input line by line and prints every prompt.
// A Console places a single call.
type Console struct {
	caller   Caller
	reader   *bufio.Reader
	out      io.Writer
	renderer Renderer
	logger   *slog.Logger

	lines chan line
	done  chan struct{}
	once  sync.Once
	stop  sync.Once
}

type line struct {
	text string
	err  error
}

// Option configures a Console.
type Option func(*Console)

// WithRenderer renders prompts as markdown. Without it prompts are plain text.
func WithRenderer(r Renderer) Option {
	return func(c *Console) {
		c.renderer = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a console call over in and out.
func New(caller Caller, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		caller: caller,
		reader: bufio.NewReader(in),
		out:    out,
		logger: logging.NewNop(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// hangupWords end the call from the keyboard.
var hangupWords = map[string]bool{"exit": true, "quit": true, "hangup": true}

// Run places a call and drives it until the flow ends, the caller hangs up,
// input is exhausted or ctx is cancelled. The call is always ended.
func (c *Console) Run(ctx context.Context) (domain.CallSummary, error) {
	defer c.stop.Do(func() { close(c.done) })

	resp, err := c.caller.Start(ctx)
	if err != nil {
		return domain.CallSummary{}, fmt.Errorf("failed to start call: %w", err)
	}
	c.logger.Info("Call started", "session_id", resp.SessionID)
	c.show(resp)

	for !resp.IsEnd {
		text, err := c.read(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				c.logger.Warn("Input failed", "session_id", resp.SessionID, "err", err)
			}
			break
		}
		if hangupWords[strings.ToLower(strings.TrimSpace(text))] {
			break
		}

		next, err := c.caller.Input(ctx, resp.SessionID, text)
		if errors.Is(err, input.ErrInputTooLarge) || errors.Is(err, input.ErrInvalidUTF8) {
			fmt.Fprintf(c.out, "Error: %v. Please try again.\n", err)
			continue
		}
		if err != nil {
			return domain.CallSummary{}, err
		}
		resp = next
		c.show(resp)
	}

	end, err := c.caller.End(context.WithoutCancel(ctx), resp.SessionID)
	if err != nil {
		return domain.CallSummary{}, fmt.Errorf("failed to end call: %w", err)
	}
	s := end.Summary
	fmt.Fprintf(c.out, ">>> %s (%.2fs, %d exchanges)\n", end.Message, s.DurationSeconds, s.TotalExchanges)
	return s, nil
}

func (c *Console) show(resp ivrflow.Response) {
	text := Plain(resp)
	if c.renderer != nil {
		if rendered, err := c.renderer(Markdown(resp)); err == nil {
			text = rendered
		}
	}
	fmt.Fprintln(c.out, strings.TrimSpace(text))
}

// read prompts and waits for one line, giving up when ctx is done.
func (c *Console) read(ctx context.Context) (string, error) {
	c.once.Do(func() {
		c.lines = make(chan line)
		go c.pump()
	})

	fmt.Fprint(c.out, "> ")
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	}
}

func (c *Console) pump() {
	defer close(c.lines)
	for {
		text, err := c.reader.ReadString('\n')
		if text != "" && !c.send(line{text: strings.TrimRight(text, "\r\n")}) {
			return
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.send(line{err: err})
			}
			return
		}
	}
}

// send hands a line to read, or drops it once Run has returned.
func (c *Console) send(l line) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.lines <- l:
		return true
	case <-c.done:
		return false
	}
}
