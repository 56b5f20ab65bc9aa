package console

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ivrflow banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _____   _____  ___ _", "#38bdf8"},
		{" |_ _\\ \\ / / _ \\| __| |_____ __ __", "#22d3ee"},
		{"  | | \\ V /|   /| _|| / _ \\ V  V /", "#2dd4bf"},
		{" |___| \\_/ |_|_\\|_| |_\\___/\\_/\\_/", "#34d399"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
