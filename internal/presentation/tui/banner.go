package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the surveyflow banner.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  ___ _  _ _ ___ _____ _  _ ___ _    _____      __", "#34d399"},
		{" / __| || | '_\\ V / -_) || | __| |  / _ \\ \\    / /", "#2dd4bf"},
		{" \\__ \\ || | |  \\_/\\___|\\_, | _|| |_| (_) \\ \\/\\/ / ", "#22d3ee"},
		{" |___/\\_,_|_|          |__/|_| |____\\___/ \\_/\\_/  ", "#38bdf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
