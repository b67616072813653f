package fetcher

import (
	"context"
	"errors"

	"dip-screener/internal/model"
)

// ErrNoData indicates the provider returned no bars for a ticker.
var ErrNoData = errors.New("fetcher: no data returned")

// Source retrieves roughly six months of adjusted daily bars for one ticker.
type Source interface {
	FetchDaily(ctx context.Context, ticker model.Ticker) (model.PriceSeries, error)
	Name() string
}

// PriceFetcher is the retrying view of a Source used by the screener. A false
// result means no data and is a skip condition, not an error.
type PriceFetcher interface {
	Fetch(ctx context.Context, ticker model.Ticker) (model.PriceSeries, bool)
}
