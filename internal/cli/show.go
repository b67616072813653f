package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dip-screener/internal/app"
	"dip-screener/internal/model"
)

var (
	showDate string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display a stored opportunities report",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showDate != "" {
			if _, err := time.Parse(model.DateLayout, showDate); err != nil {
				return fmt.Errorf("invalid --date value: %w", err)
			}
		}

		return getApp().Show(app.ShowOptions{Date: showDate})
	},
}

func init() {
	showCmd.Flags().StringVar(&showDate, "date", "", "Report date (YYYY-MM-DD), latest when empty")
}
