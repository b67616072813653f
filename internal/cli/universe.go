package cli

import (
	"github.com/spf13/cobra"
)

var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Manage the ticker universe files",
}

var universeRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rewrite the ticker files from the S&P 500 and Nasdaq-100 constituent tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().RefreshUniverse(cmd.Context())
	},
}

func init() {
	universeCmd.AddCommand(universeRefreshCmd)
}
