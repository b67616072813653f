package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

type fakeBarsClient struct {
	symbol string
	req    marketdata.GetBarsRequest
	bars   []marketdata.Bar
	err    error
}

func (f *fakeBarsClient) GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	f.symbol = symbol
	f.req = req
	return f.bars, f.err
}

func TestAlpacaFetchDaily(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeBarsClient{bars: []marketdata.Bar{
		{Timestamp: time.Date(2024, 5, 30, 4, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 1, Close: 2, Volume: 10},
		{Timestamp: time.Date(2024, 5, 31, 4, 0, 0, 0, time.UTC), Open: 2, High: 3, Low: 2, Close: 3, Volume: 20},
	}}
	a := newAlpaca(AlpacaOptions{APIKey: "k", APISecret: "s"}, client, noopLogger())
	a.now = func() time.Time { return now }

	series, err := a.FetchDaily(context.Background(), "BRK-B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.symbol != "BRK.B" {
		t.Fatalf("expected Alpaca symbology BRK.B, got %s", client.symbol)
	}
	if !client.req.End.Equal(now) || !client.req.Start.Before(now.AddDate(0, -5, 0)) {
		t.Fatalf("unexpected request window %s - %s", client.req.Start, client.req.End)
	}
	if series.Len() != 2 || series.Bars[1].Close != 3 || series.Bars[1].Volume != 20 {
		t.Fatalf("unexpected series %+v", series.Bars)
	}
	if !series.LastDate().Equal(time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected last date %s", series.LastDate())
	}
}

func TestAlpacaFetchEmptyAndErrors(t *testing.T) {
	a := newAlpaca(AlpacaOptions{APIKey: "k", APISecret: "s"}, &fakeBarsClient{}, noopLogger())
	if _, err := a.FetchDaily(context.Background(), "AAPL"); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}

	a = newAlpaca(AlpacaOptions{APIKey: "k", APISecret: "s"}, &fakeBarsClient{err: errors.New("forbidden")}, noopLogger())
	if _, err := a.FetchDaily(context.Background(), "AAPL"); err == nil || errors.Is(err, ErrNoData) {
		t.Fatalf("expected provider error, got %v", err)
	}

	a = newAlpaca(AlpacaOptions{}, &fakeBarsClient{}, noopLogger())
	if _, err := a.FetchDaily(context.Background(), "AAPL"); err == nil {
		t.Fatal("missing credentials should fail")
	}
}
