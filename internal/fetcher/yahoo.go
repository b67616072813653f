package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dip-screener/internal/model"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooOptions parameterise the Yahoo Finance chart fetcher.
type YahooOptions struct {
	BaseURL   string
	Range     string
	Timeout   time.Duration
	Proxy     string
	UserAgent string
}

// Yahoo fetches adjusted daily bars from the Yahoo Finance chart API.
type Yahoo struct {
	opts    YahooOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewYahoo constructs a Yahoo fetcher.
func NewYahoo(opts YahooOptions, logger zerolog.Logger) *Yahoo {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if opts.Range == "" {
		opts.Range = "6mo"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0"
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		} else {
			logger.Warn().Err(err).Str("proxy", opts.Proxy).Msg("ignoring invalid proxy")
		}
	}

	return &Yahoo{
		opts:    opts,
		logger:  logger.With().Str("component", "yahoo_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout, Transport: transport},
		baseURL: baseURL,
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDaily retrieves daily bars adjusted for splits and dividends.
func (y *Yahoo) FetchDaily(ctx context.Context, ticker model.Ticker) (model.PriceSeries, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", y.opts.Range)
	q.Set("events", "div,split")
	q.Set("includeAdjustedClose", "true")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(ticker.String()), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.PriceSeries{}, err
	}
	req.Header.Set("User-Agent", y.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("yahoo read body: %w", err)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)
	if decodeErr == nil && chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return model.PriceSeries{}, fmt.Errorf("yahoo: %s: %w", chart.Chart.Error.Description, ErrNoData)
		}
		return model.PriceSeries{}, fmt.Errorf("yahoo api error (%d): %s", resp.StatusCode, chart.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return model.PriceSeries{}, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if decodeErr != nil {
		return model.PriceSeries{}, fmt.Errorf("yahoo decode: %w", decodeErr)
	}

	bars := chartBars(chart)
	if len(bars) == 0 {
		return model.PriceSeries{}, ErrNoData
	}
	y.logger.Debug().Str("ticker", ticker.String()).Int("bars", len(bars)).Msg("fetched daily bars")
	return model.PriceSeries{Ticker: ticker, Bars: bars}, nil
}

func chartBars(chart yahooChart) []model.Bar {
	if len(chart.Chart.Result) == 0 {
		return nil
	}
	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil
	}
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closeRaw := at(quote.Close, i)
		if closeRaw == nil || *closeRaw <= 0 {
			continue // null bars (holidays, halts)
		}
		closePx := *closeRaw
		// scale OHLC by the adjustment ratio, as auto-adjusted downloads do
		ratio := 1.0
		if a := at(adj, i); a != nil && *a > 0 {
			ratio = *a / closePx
		}

		bar := model.Bar{
			Date:  tradingDate(ts, result.Meta.GMTOffset),
			Close: closePx * ratio,
		}
		if v := at(quote.Open, i); v != nil {
			bar.Open = *v * ratio
		}
		if v := at(quote.High, i); v != nil {
			bar.High = *v * ratio
		}
		if v := at(quote.Low, i); v != nil {
			bar.Low = *v * ratio
		}
		if v := at(quote.Volume, i); v != nil {
			bar.Volume = *v
		}

		// the live session can repeat the last day
		if n := len(bars); n > 0 && bars[n-1].Date.Equal(bar.Date) {
			bars[n-1] = bar
			continue
		}
		if n := len(bars); n > 0 && bar.Date.Before(bars[n-1].Date) {
			continue
		}
		bars = append(bars, bar)
	}
	return bars
}

func at(values []*float64, i int) *float64 {
	if i < 0 || i >= len(values) {
		return nil
	}
	return values[i]
}

// tradingDate converts a bar timestamp to the exchange-local calendar date.
func tradingDate(ts, gmtOffset int64) time.Time {
	local := time.Unix(ts+gmtOffset, 0).UTC()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

var _ Source = (*Yahoo)(nil)
