package app

import (
	"context"
	"fmt"
	"time"

	"dip-screener/internal/fetcher"
	"dip-screener/internal/model"
)

const simulatedTicker model.Ticker = "SIMULATED"

// Simulate 通过一条合成价格序列模拟一次完整的保存与告警流程：
// 序列停在 peak，最后一根收于 last，无需行情数据。
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	if opts.Peak <= 0 || opts.Last <= 0 {
		return fmt.Errorf("--peak and --last must be greater than 0")
	}
	s := a.Config.Screen
	if opts.Bars < s.MinBars || opts.Bars < s.WindowHighestDays {
		return fmt.Errorf("--bars must be at least %d", max(s.MinBars, s.WindowHighestDays))
	}

	series := syntheticSeries(simulatedTicker, opts, time.Now().UTC())
	source := fetcher.NewStatic(series)
	svc, err := a.newService(fetcher.NewRetrying(source, fetcher.RetryPolicy{MaxAttempts: 1}, a.sleep, a.Logger))
	if err != nil {
		return err
	}

	report, out, err := svc.Run(ctx, []model.Ticker{simulatedTicker})
	if err != nil {
		return err
	}
	if report.Empty() {
		fmt.Fprintln(a.Out, "simulated series does not qualify; nothing published")
		return nil
	}

	fmt.Fprintf(a.Out, "artifact: %s\n", out.ArtifactPath)
	if out.DeliveryErr != nil {
		fmt.Fprintf(a.Out, "delivery failed: %v\n", out.DeliveryErr)
		return nil
	}
	fmt.Fprintln(a.Out, "delivered")
	return nil
}

func syntheticSeries(ticker model.Ticker, opts SimulateOptions, now time.Time) model.PriceSeries {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, opts.Bars)
	for i := range bars {
		price := opts.Peak
		if i == opts.Bars-1 {
			price = opts.Last
		}
		bars[i] = model.Bar{
			Date:  end.AddDate(0, 0, i-(opts.Bars-1)),
			Open:  price,
			High:  price,
			Low:   price,
			Close: price,
		}
	}
	return model.PriceSeries{Ticker: ticker, Bars: bars}
}
