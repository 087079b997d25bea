package cmd

import (
	"github.com/spf13/cobra"

	"github.com/go-collectivist/collectivist/pkg/pipeline"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Walk the collection and rebuild index.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, pipeline.Options{
			Mode:         pipeline.ModeManual,
			SkipAnalyze:  true,
			SkipDescribe: true,
			SkipRender:   true,
			SkipOrganic:  true,
		})
	},
}

func init() { rootCmd.AddCommand(scanCmd) }
