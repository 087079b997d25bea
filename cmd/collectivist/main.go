// Command collectivist indexes a directory tree as an intentional
// collection: classify, scan, describe, and render, plus an optional
// organic placement workflow for newly dropped items.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-collectivist/collectivist/internal/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd.SetContext(ctx)
	os.Exit(cmd.Execute())
}
