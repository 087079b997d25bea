package cmd

import (
	"github.com/spf13/cobra"

	"github.com/go-collectivist/collectivist/pkg/pipeline"
)

var analyzeForceType string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Classify the collection root and (re)write collection.yaml",
	Long: `analyze inspects the current directory and writes .collection/collection.yaml.

It is a no-op if collection.yaml already exists, unless --force-type is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, pipeline.Options{
			Mode:         pipeline.ModeManual,
			SkipScan:     true,
			SkipDescribe: true,
			SkipRender:   true,
			SkipOrganic:  true,
			ForceType:    analyzeForceType,
		})
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeForceType, "force-type", "", "Force collection_type and re-analyze even if collection.yaml exists")
}
