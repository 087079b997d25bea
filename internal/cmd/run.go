package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/go-collectivist/collectivist/pkg/pipeline"
)

// runStage executes one orchestrator run for the current app, printing
// progress to stdout and logging the outcome. Every subcommand funnels
// through here so the exit-code mapping (0/1, no other codes) lives in
// one place.
func runStage(cmd *cobra.Command, opts pipeline.Options) error {
	stop := printProgress(current.bus)
	defer stop()

	run, err := current.orch.Run(cmd.Context(), current.root, opts)
	if err != nil {
		return err
	}

	current.log.Info("run summary", zap.String("run_id", run.RunID), zap.String("state", string(run.State)))
	fmt.Printf("run %s: %s\n", run.RunID, run.State)
	return nil
}
