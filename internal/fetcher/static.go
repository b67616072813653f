package fetcher

import (
	"context"

	"dip-screener/internal/model"
)

// Static serves fixed series, for simulations and frozen-data runs.
type Static struct {
	Series map[model.Ticker]model.PriceSeries
}

// NewStatic builds a Static source from series keyed by their ticker.
func NewStatic(series ...model.PriceSeries) *Static {
	m := make(map[model.Ticker]model.PriceSeries, len(series))
	for _, s := range series {
		m[s.Ticker] = s
	}
	return &Static{Series: m}
}

func (s *Static) Name() string { return "static" }

// FetchDaily returns the stored series or ErrNoData.
func (s *Static) FetchDaily(_ context.Context, ticker model.Ticker) (model.PriceSeries, error) {
	series, ok := s.Series[ticker]
	if !ok || series.Len() == 0 {
		return model.PriceSeries{}, ErrNoData
	}
	return series, nil
}

var _ Source = (*Static)(nil)
