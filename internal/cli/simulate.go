package cli

import (
	"github.com/spf13/cobra"

	"dip-screener/internal/app"
)

var (
	simulatePeak float64
	simulateLast float64
	simulateBars int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Publish a report from a synthetic dip to test delivery settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Simulate(cmd.Context(), app.SimulateOptions{
			Peak: simulatePeak,
			Last: simulateLast,
			Bars: simulateBars,
		})
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulatePeak, "peak", 100, "Flat price before the final bar")
	simulateCmd.Flags().Float64Var(&simulateLast, "last", 75, "Close of the final bar")
	simulateCmd.Flags().IntVar(&simulateBars, "bars", 70, "Number of daily bars")
}
