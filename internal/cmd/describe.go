package cmd

import (
	"github.com/spf13/cobra"

	"github.com/go-collectivist/collectivist/pkg/pipeline"
)

var describeMaxWorkers int

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Generate descriptions and categories for undescribed items",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, pipeline.Options{
			Mode:        pipeline.ModeManual,
			SkipOrganic: true,
			SkipAnalyze: true,
			SkipScan:    true,
			SkipRender:  true,
			Workers:     describeMaxWorkers,
		})
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().IntVar(&describeMaxWorkers, "max-workers", 0, "Parallel describer worker count (0 uses the engine default)")
}
