package console

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/ivrflow"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// Renderer turns markdown into terminal output.
type Renderer func(string) (string, error)

// NewRenderer returns a glamour renderer that adapts to the terminal background.
func NewRenderer() (Renderer, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Markdown formats a prompt and its menu.
func Markdown(resp ivrflow.Response) string {
	var sb strings.Builder
	sb.WriteString(resp.Message)
	if len(resp.Options) > 0 {
		sb.WriteString("\n\n")
		for _, opt := range resp.Options {
			fmt.Fprintf(&sb, "- `%s` %s\n", opt.Key, opt.Label)
		}
	}
	return sb.String()
}

// Plain formats a prompt and its menu without markup.
func Plain(resp ivrflow.Response) string {
	var sb strings.Builder
	sb.WriteString(resp.Message)
	for _, opt := range resp.Options {
		fmt.Fprintf(&sb, "\n  [%s] %s", opt.Key, opt.Label)
	}
	return sb.String()
}
