package app

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"dip-screener/internal/model"
	"dip-screener/internal/storage"
)

// Show prints a stored opportunities report, the latest one by default.
func (a *App) Show(opts ShowOptions) error {
	store := a.newStore()

	date := opts.Date
	if date == "" {
		latest, err := store.Latest()
		if errors.Is(err, storage.ErrNoReports) {
			fmt.Fprintf(a.Out, "no reports found in %s\n", store.Dir())
			return nil
		}
		if err != nil {
			return err
		}
		date = latest
	}

	results, err := store.Load(date)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "Opportunities %s (%d)\n", date, len(results))
	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Ticker\tDrop%\tRSI\tDays since high\tLast close")
	for _, r := range results {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\n",
			r.Ticker,
			model.FormatFloat(r.DropPct),
			orDash(model.FormatRSI(r.RSI)),
			strconv.Itoa(r.DaysSinceHigh),
			model.FormatFloat(r.LastClose),
		)
	}

	return writer.Flush()
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
