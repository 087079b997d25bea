package cmd

import (
	"fmt"
	"os"

	"github.com/go-collectivist/collectivist/pkg/events"
)

// printProgress subscribes to bus and writes one line per event to
// stdout for the life of the returned stop function's caller; it is the
// CLI's only consumer of the bus. The logger does not read the bus; it
// records the run-level start, completion and failure entries. Call stop
// once the run returns.
func printProgress(bus *events.Bus) (stop func()) {
	ch, unsubscribe := bus.Subscribe(events.DefaultRingSize)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for e := range ch {
			fmt.Fprintln(os.Stdout, formatEvent(e))
		}
	}()

	return func() {
		unsubscribe()
		<-done
	}
}

func formatEvent(e events.Event) string {
	prefix := "[" + e.Stage + "]"
	switch {
	case e.N > 0:
		return fmt.Sprintf("%s %s (%d/%d, %.0f%%)", prefix, e.Message, e.I, e.N, e.Pct)
	default:
		return fmt.Sprintf("%s %s", prefix, e.Message)
	}
}
