package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/pretty"

	"dip-screener/internal/model"
	"dip-screener/internal/service"
	"dip-screener/internal/universe"
)

type analysisView struct {
	model.AnalysisResult
	Qualifies bool   `json:"qualifies"`
	Source    string `json:"source"`
}

// Analyze fetches and analyses a single ticker and prints the result.
func (a *App) Analyze(ctx context.Context, opts AnalyzeOptions) error {
	ticker, ok := universe.Normalize(opts.Ticker)
	if !ok {
		return fmt.Errorf("invalid ticker %q", opts.Ticker)
	}

	engine, err := a.newEngine()
	if err != nil {
		return err
	}

	series, ok := a.newFetcher().Fetch(ctx, ticker)
	if !ok {
		return fmt.Errorf("%s: no data found", ticker)
	}

	res, err := engine.Analyze(series)
	if err != nil {
		return err
	}

	view := analysisView{
		AnalysisResult: res,
		Qualifies:      service.IsOpportunity(&res, a.thresholds()),
		Source:         a.newSource().Name(),
	}

	if opts.JSON {
		raw, err := json.Marshal(view)
		if err != nil {
			return fmt.Errorf("marshal analysis: %w", err)
		}
		_, err = a.Out.Write(pretty.Pretty(raw))
		return err
	}

	fmt.Fprintf(a.Out, "%s as of %s (%s)\n", res.Ticker, res.AsOf.Format(model.DateLayout), view.Source)
	fmt.Fprintf(a.Out, "  last close:      %s\n", model.FormatFloat(res.LastClose))
	fmt.Fprintf(a.Out, "  recent high:     %s on %s\n", model.FormatFloat(res.HighestRecent), res.HighDate.Format(model.DateLayout))
	fmt.Fprintf(a.Out, "  drop:            %s%%\n", model.FormatFloat(res.DropPct))
	fmt.Fprintf(a.Out, "  days since high: %d\n", res.DaysSinceHigh)
	fmt.Fprintf(a.Out, "  rsi:             %s\n", orDash(model.FormatRSI(res.RSI)))
	fmt.Fprintf(a.Out, "  qualifies:       %t\n", view.Qualifies)
	return nil
}
