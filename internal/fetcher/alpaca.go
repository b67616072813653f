package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rs/zerolog"

	"dip-screener/internal/model"
)

// AlpacaOptions parameterise the Alpaca market-data fetcher.
type AlpacaOptions struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Feed      string
	Lookback  time.Duration
}

type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Alpaca fetches adjusted daily bars through the Alpaca market-data API.
type Alpaca struct {
	opts   AlpacaOptions
	client barsClient
	now    func() time.Time
	logger zerolog.Logger
}

// NewAlpaca constructs an Alpaca fetcher.
func NewAlpaca(opts AlpacaOptions, logger zerolog.Logger) *Alpaca {
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
		BaseURL:   opts.BaseURL,
	})
	return newAlpaca(opts, client, logger)
}

func newAlpaca(opts AlpacaOptions, client barsClient, logger zerolog.Logger) *Alpaca {
	if opts.Lookback <= 0 {
		opts.Lookback = 183 * 24 * time.Hour
	}
	if opts.Feed == "" {
		opts.Feed = "iex"
	}
	return &Alpaca{
		opts:   opts,
		client: client,
		now:    time.Now,
		logger: logger.With().Str("component", "alpaca_fetcher").Logger(),
	}
}

func (a *Alpaca) Name() string { return "alpaca" }

// FetchDaily retrieves daily bars adjusted for splits and dividends.
func (a *Alpaca) FetchDaily(ctx context.Context, ticker model.Ticker) (model.PriceSeries, error) {
	if a.opts.APIKey == "" || a.opts.APISecret == "" {
		return model.PriceSeries{}, errors.New("alpaca api key and secret required")
	}
	if err := ctx.Err(); err != nil {
		return model.PriceSeries{}, err
	}

	end := a.now().UTC()
	bars, err := a.client.GetBars(alpacaSymbol(ticker), marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.Adjustment("all"),
		Start:      end.Add(-a.opts.Lookback),
		End:        end,
		Feed:       marketdata.Feed(a.opts.Feed),
	})
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("alpaca get bars: %w", err)
	}

	series := toSeries(ticker, bars)
	if series.Len() == 0 {
		return model.PriceSeries{}, ErrNoData
	}
	a.logger.Debug().Str("ticker", ticker.String()).Int("bars", series.Len()).Msg("fetched daily bars")
	return series, nil
}

func toSeries(ticker model.Ticker, bars []marketdata.Bar) model.PriceSeries {
	out := make([]model.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Close <= 0 {
			continue
		}
		ts := b.Timestamp.UTC()
		out = append(out, model.Bar{
			Date:   time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		})
	}
	return model.PriceSeries{Ticker: ticker, Bars: out}
}

// alpacaSymbol maps class separators back to Alpaca symbology (BRK-B -> BRK.B).
func alpacaSymbol(t model.Ticker) string {
	return strings.ReplaceAll(t.String(), "-", ".")
}

var _ Source = (*Alpaca)(nil)
