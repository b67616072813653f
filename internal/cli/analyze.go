package cli

import (
	"github.com/spf13/cobra"

	"dip-screener/internal/app"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze TICKER",
	Short: "Fetch and analyze a single ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Analyze(cmd.Context(), app.AnalyzeOptions{Ticker: args[0], JSON: analyzeJSON})
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the result as JSON")
}
