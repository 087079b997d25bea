package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/go-collectivist/collectivist/pkg/organic"
	"github.com/go-collectivist/collectivist/pkg/pipeline"
)

var (
	updateSkipAnalyze    bool
	updateSkipScan       bool
	updateSkipDescribe   bool
	updateSkipRender     bool
	updateSkipProcessNew bool
	updateForceType      string
	updateMaxWorkers     int
	updateWatch          bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run the full pipeline: process-new, analyze, scan, describe, render",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := pipeline.Options{
			Mode:         pipeline.ModeManual,
			SkipOrganic:  updateSkipProcessNew,
			SkipAnalyze:  updateSkipAnalyze,
			SkipScan:     updateSkipScan,
			SkipDescribe: updateSkipDescribe,
			SkipRender:   updateSkipRender,
			ForceType:    updateForceType,
			Workers:      updateMaxWorkers,
		}
		if !updateWatch {
			return runStage(cmd, opts)
		}
		return runWatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVar(&updateSkipAnalyze, "skip-analyze", false, "Skip the Analyze stage")
	updateCmd.Flags().BoolVar(&updateSkipScan, "skip-scan", false, "Skip the Scan stage")
	updateCmd.Flags().BoolVar(&updateSkipDescribe, "skip-describe", false, "Skip the Describe stage")
	updateCmd.Flags().BoolVar(&updateSkipRender, "skip-render", false, "Skip the Render stage")
	updateCmd.Flags().BoolVar(&updateSkipProcessNew, "skip-process-new", false, "Skip the organic placement stage")
	updateCmd.Flags().StringVar(&updateForceType, "force-type", "", "Force collection_type and re-analyze even if collection.yaml exists")
	updateCmd.Flags().IntVar(&updateMaxWorkers, "max-workers", 0, "Parallel describer worker count (0 uses the engine default)")
	updateCmd.Flags().BoolVar(&updateWatch, "watch", false, "Stay resident and run the full organic workflow whenever new top-level entries appear")
}

// runWatch enters organic.Watch and triggers a full ModeOrganic run on
// every debounced batch of new entries, until the command's context is
// canceled. The scheduled-pipeline workflow remains the authority on
// cadence; this only shortens the latency between a drop and a run.
func runWatch(cmd *cobra.Command) error {
	ctx := cmd.Context()
	current.log.Info("entering watch mode", zap.String("root", current.root))

	onNew := func() {
		opts := pipeline.Options{Mode: pipeline.ModeOrganic}
		if _, err := current.orch.Run(ctx, current.root, opts); err != nil {
			current.log.Error("watch-triggered run failed", zap.Error(err))
		}
	}
	err := organic.Watch(ctx, current.root, onNew)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
