// Package cmd implements the collectivist CLI: analyze, scan, describe,
// render, and update, each operating on the current working directory as
// the collection root.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/go-collectivist/collectivist/internal/config"
	"github.com/go-collectivist/collectivist/internal/logging"
	"github.com/go-collectivist/collectivist/pkg/events"
	"github.com/go-collectivist/collectivist/pkg/model"
	"github.com/go-collectivist/collectivist/pkg/pipeline"
	"github.com/go-collectivist/collectivist/pkg/runregistry"
	"github.com/go-collectivist/collectivist/pkg/scanner"

	// Blank-imported so each scanner's init() registers it into
	// scanner.Default; nothing in this package names their types directly.
	_ "github.com/go-collectivist/collectivist/pkg/scanner/documents"
	_ "github.com/go-collectivist/collectivist/pkg/scanner/fallback"
	_ "github.com/go-collectivist/collectivist/pkg/scanner/media"
	_ "github.com/go-collectivist/collectivist/pkg/scanner/obsidian"
	_ "github.com/go-collectivist/collectivist/pkg/scanner/repositories"
)

var (
	flagVerbose bool
	flagConfig  string
)

// app holds everything the subcommands need, built once in
// PersistentPreRunE so every command shares one logger, bus, and run
// registry for the life of the process.
type app struct {
	log  *zap.Logger
	bus  *events.Bus
	orch *pipeline.Orchestrator
	root string
}

var current *app

var rootCmd = &cobra.Command{
	Use:           "collectivist",
	Short:         "Index a directory tree as an intentional collection",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to an explicit llm config file, overriding discovery")
}

// SetContext attaches ctx as the context every command's cmd.Context()
// returns, so the os/signal cancellation set up in main propagates down
// to the orchestrator's blocking calls.
func SetContext(ctx context.Context) {
	rootCmd.SetContext(ctx)
}

// Execute runs the CLI and returns a process exit code: 0 on success, 1
// on any failure. No other codes are defined.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if current != nil && current.log != nil {
			current.log.Error("command failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}

func setup() error {
	log, err := logging.New(flagVerbose)
	if err != nil {
		return fmt.Errorf("construct logger: %w", err)
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve collection root: %w", err)
	}

	cfg, err := config.Load(root, flagConfig)
	if err != nil {
		return fmt.Errorf("discover configuration: %w", err)
	}

	chatter := model.New(cfg.Model)
	bus := events.New()
	runs := runregistry.NewStore(filepath.Join(stateDir(root), "runs"))

	orch := pipeline.New(scanner.Default, chatter, bus, runs).WithLogger(log)

	current = &app{log: log, bus: bus, orch: orch, root: root}
	return nil
}

func stateDir(root string) string {
	return filepath.Join(root, pipeline.StateDirName)
}
