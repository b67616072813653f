package cli

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one screening pass and publish opportunities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Run(cmd.Context())
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run screening passes on the configured cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Schedule(cmd.Context())
	},
}
