package indicator

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"dip-screener/internal/model"
)

var (
	// ErrInsufficientData marks a series too short to analyze.
	ErrInsufficientData = errors.New("indicator: insufficient data")
	// ErrInvalidSeries marks a series whose prices cannot be analyzed.
	ErrInvalidSeries = errors.New("indicator: invalid series")
)

// Params tune the engine.
type Params struct {
	WindowHighestDays int
	MinBars           int
	RSIPeriod         int
	RSIMethod         RSIMethod
}

// Engine derives drop, days-since-high and RSI signals from a price series.
type Engine struct {
	params Params
	logger zerolog.Logger
}

// NewEngine constructs an Engine.
func NewEngine(params Params, logger zerolog.Logger) *Engine {
	if params.RSIPeriod <= 0 {
		params.RSIPeriod = 14
	}
	if params.RSIMethod == "" {
		params.RSIMethod = RSIWilder
	}
	return &Engine{params: params, logger: logger.With().Str("component", "indicator").Logger()}
}

// Params returns the engine configuration.
func (e *Engine) Params() Params { return e.params }

// Analyze computes the AnalysisResult for series. It returns
// ErrInsufficientData when the series holds fewer than MinBars bars or fewer
// bars than the rolling-high window.
func (e *Engine) Analyze(series model.PriceSeries) (model.AnalysisResult, error) {
	n := series.Len()
	window := e.params.WindowHighestDays
	if n == 0 || n < e.params.MinBars || n < window {
		return model.AnalysisResult{}, fmt.Errorf("%s: %d bars: %w", series.Ticker, n, ErrInsufficientData)
	}

	closes := series.Closes()
	highs := RollingMax(closes, window)
	if len(highs) == 0 {
		return model.AnalysisResult{}, fmt.Errorf("%s: no rolling high: %w", series.Ticker, ErrInsufficientData)
	}
	highest := highs[len(highs)-1]
	if highest <= 0 {
		return model.AnalysisResult{}, fmt.Errorf("%s: non-positive high %f: %w", series.Ticker, highest, ErrInvalidSeries)
	}

	last := closes[n-1]
	days, highDate := DaysSinceHigh(series.Bars, window)

	result := model.AnalysisResult{
		Ticker:        series.Ticker,
		DropPct:       Round(DropPct(last, highest), 2),
		DaysSinceHigh: days,
		LastClose:     Round(last, 2),
		HighestRecent: highest,
		HighDate:      highDate,
		AsOf:          series.LastDate(),
	}

	if rsi := RSI(closes, e.params.RSIPeriod, e.params.RSIMethod); len(rsi) > 0 {
		v := Round(rsi[len(rsi)-1], 1)
		result.RSI = &v
	}

	evt := e.logger.Info().
		Str("ticker", series.Ticker.String()).
		Str("close", decimal.NewFromFloat(last).StringFixed(2)).
		Str("drop_pct", decimal.NewFromFloat(result.DropPct).StringFixed(2))
	if result.RSI != nil {
		evt = evt.Str("rsi", decimal.NewFromFloat(*result.RSI).StringFixed(1))
	}
	evt.Msg("analyzed")

	return result, nil
}

// Round rounds v to the given number of decimal places using the exact binary
// value of v, with ties to even. 2.675 is stored below the tie and becomes 2.67.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	exact, err := decimal.NewFromString(new(big.Float).SetFloat64(v).Text('f', exactDigits))
	if err != nil {
		return decimal.NewFromFloat(v).RoundBank(places).InexactFloat64()
	}
	return exact.RoundBank(places).InexactFloat64()
}

// exactDigits covers the longest fractional expansion of a float64.
const exactDigits = 1074
