package events

import (
	"fmt"
	"io"
	"strings"
)

// ConsolePrinter renders events to an io.Writer for interactive CLI use.
// It groups output by stage header the way a terminal pipeline reporter
// conventionally does, and is safe to drive from a single goroutine
// draining a Bus subscription.
type ConsolePrinter struct {
	w         io.Writer
	verbose   bool
	lastStage string
}

// NewConsolePrinter creates a printer writing to w.
func NewConsolePrinter(w io.Writer, verbose bool) *ConsolePrinter {
	return &ConsolePrinter{w: w, verbose: verbose}
}

// Handle renders a single event. Call this from a loop draining a Bus
// subscription channel.
func (p *ConsolePrinter) Handle(e Event) {
	if e.Stage != p.lastStage {
		fmt.Fprintf(p.w, "\n%s\nSTAGE: %s\n%s\n", strings.Repeat("=", 60), strings.ToUpper(e.Stage), strings.Repeat("=", 60))
		p.lastStage = e.Stage
	}

	switch e.Severity {
	case SeverityError:
		fmt.Fprintf(p.w, "  [X] %s\n", e.Message)
	case SeverityWarn:
		fmt.Fprintf(p.w, "  [!] %s\n", e.Message)
	case SeveritySuccess:
		fmt.Fprintf(p.w, "  [OK] %s\n", e.Message)
	default:
		if !p.verbose {
			return
		}
		if e.N > 0 {
			fmt.Fprintf(p.w, "  [%d/%d] %s\n", e.I, e.N, e.Message)
		} else {
			fmt.Fprintf(p.w, "  %s\n", e.Message)
		}
	}
}

// Run drains ch until it closes, handling each event in order. Intended
// to be launched in its own goroutine by the caller.
func (p *ConsolePrinter) Run(ch <-chan Event) {
	for e := range ch {
		p.Handle(e)
	}
}
