package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"dip-screener/internal/model"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

type flakySource struct {
	failures int
	calls    int
	err      error
}

func (f *flakySource) Name() string { return "flaky" }

func (f *flakySource) FetchDaily(_ context.Context, ticker model.Ticker) (model.PriceSeries, error) {
	f.calls++
	if f.calls <= f.failures {
		if f.err != nil {
			return model.PriceSeries{}, f.err
		}
		return model.PriceSeries{}, nil
	}
	return model.PriceSeries{Ticker: ticker, Bars: []model.Bar{{Close: 1}}}, nil
}

type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func TestRetrierTransitions(t *testing.T) {
	m := NewRetrier(DefaultRetryPolicy())
	if m.State() != StateAttempting || m.Attempt() != 0 {
		t.Fatalf("should start in Attempting(0), got %s(%d)", m.State(), m.Attempt())
	}

	want := []time.Duration{2 * time.Second, 3 * time.Second, 4 * time.Second}
	for i, w := range want {
		if got := m.Fail(); got != w {
			t.Fatalf("attempt %d: expected backoff %s, got %s", i, w, got)
		}
	}
	if m.State() != StateExhausted {
		t.Fatalf("expected Exhausted after 3 failures, got %s", m.State())
	}
	if m.Fail() != 0 {
		t.Fatal("an exhausted machine should not schedule more waits")
	}
	m.Succeed()
	if m.State() != StateExhausted {
		t.Fatal("Succeed must not leave Exhausted")
	}
}

func TestRetrierSuccess(t *testing.T) {
	m := NewRetrier(DefaultRetryPolicy())
	m.Fail()
	m.Succeed()
	if m.State() != StateSuccess || m.Attempt() != 1 {
		t.Fatalf("expected Success at attempt 1, got %s(%d)", m.State(), m.Attempt())
	}
}

func TestRetryingExhaustsToNoData(t *testing.T) {
	src := &flakySource{failures: 3, err: errors.New("connection reset")}
	sl := &recordingSleeper{}
	r := NewRetrying(src, DefaultRetryPolicy(), sl.sleep, noopLogger())

	if _, ok := r.Fetch(context.Background(), "AAPL"); ok {
		t.Fatal("expected no data after exhausting retries")
	}
	if src.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", src.calls)
	}
	if len(sl.waits) != 3 || sl.waits[0] != 2*time.Second || sl.waits[2] != 4*time.Second {
		t.Fatalf("unexpected backoff sequence %v", sl.waits)
	}
}

func TestRetryingTreatsEmptyAsFault(t *testing.T) {
	src := &flakySource{failures: 2}
	sl := &recordingSleeper{}
	r := NewRetrying(src, DefaultRetryPolicy(), sl.sleep, noopLogger())

	series, ok := r.Fetch(context.Background(), "MSFT")
	if !ok || series.Len() != 1 {
		t.Fatalf("expected success on third attempt, got ok=%v len=%d", ok, series.Len())
	}
	if len(sl.waits) != 2 {
		t.Fatalf("expected 2 backoffs, got %v", sl.waits)
	}
}

func TestRetryingStopsOnCancel(t *testing.T) {
	src := &flakySource{failures: 3, err: errors.New("boom")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRetrying(src, DefaultRetryPolicy(), Sleep, noopLogger())

	if _, ok := r.Fetch(ctx, "AAPL"); ok {
		t.Fatal("cancelled fetch should yield no data")
	}
	if src.calls != 1 {
		t.Fatalf("expected a single attempt before cancellation, got %d", src.calls)
	}
}

func TestStaticSource(t *testing.T) {
	s := NewStatic(model.PriceSeries{Ticker: "KO", Bars: []model.Bar{{Close: 60}}})
	if _, err := s.FetchDaily(context.Background(), "KO"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.FetchDaily(context.Background(), "PEP"); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}
