package cmd

import (
	"github.com/spf13/cobra"

	"github.com/go-collectivist/collectivist/pkg/pipeline"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write collection.md, collection.html, collection.json, and collection.nu",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, pipeline.Options{
			Mode:        pipeline.ModeManual,
			SkipOrganic: true,
			SkipAnalyze: true,
			SkipScan:    true,
			SkipDescribe: true,
		})
	},
}

func init() { rootCmd.AddCommand(renderCmd) }
