package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dip-screener/internal/model"
)

// RetryPolicy bounds the attempts made for one ticker. The wait after failed
// attempt n (0-based) is BaseDelay + n*Step.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Step        time.Duration
}

// DefaultRetryPolicy makes 3 attempts waiting 2s, 3s and 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second, Step: time.Second}
}

// Backoff returns the wait following failed attempt n.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.BaseDelay + time.Duration(attempt)*p.Step
}

// RetryState is the phase of a Retrier.
type RetryState int

const (
	StateAttempting RetryState = iota
	StateSuccess
	StateExhausted
)

func (s RetryState) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateSuccess:
		return "success"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("RetryState(%d)", int(s))
	}
}

// Retrier is the bounded-attempt state machine behind Retrying:
// Attempting(0) -> ... -> Attempting(n) -> Success | Exhausted.
type Retrier struct {
	policy  RetryPolicy
	attempt int
	state   RetryState
}

// NewRetrier starts in Attempting(0).
func NewRetrier(policy RetryPolicy) *Retrier {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	return &Retrier{policy: policy}
}

// State returns the current phase.
func (r *Retrier) State() RetryState { return r.state }

// Attempt returns the 0-based index of the current or last attempt.
func (r *Retrier) Attempt() int { return r.attempt }

// Succeed moves an attempting machine to Success.
func (r *Retrier) Succeed() {
	if r.state == StateAttempting {
		r.state = StateSuccess
	}
}

// Fail records a failed attempt and returns the wait that follows it. The
// machine advances to Attempting(n+1) or, after the last attempt, Exhausted.
func (r *Retrier) Fail() time.Duration {
	if r.state != StateAttempting {
		return 0
	}
	wait := r.policy.Backoff(r.attempt)
	if r.attempt+1 >= r.policy.MaxAttempts {
		r.state = StateExhausted
	} else {
		r.attempt++
	}
	return wait
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-time SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retrying wraps a Source with the retry policy.
type Retrying struct {
	source Source
	policy RetryPolicy
	sleep  SleepFunc
	logger zerolog.Logger
}

// NewRetrying constructs a retrying fetcher. A nil sleep uses Sleep.
func NewRetrying(source Source, policy RetryPolicy, sleep SleepFunc, logger zerolog.Logger) *Retrying {
	if sleep == nil {
		sleep = Sleep
	}
	return &Retrying{
		source: source,
		policy: policy,
		sleep:  sleep,
		logger: logger.With().Str("component", "fetcher").Str("source", source.Name()).Logger(),
	}
}

// Fetch returns the series, or false once every attempt failed. Each failed
// attempt is followed by its backoff, the last one included, which keeps the
// provider request rate bounded while it is failing.
func (r *Retrying) Fetch(ctx context.Context, ticker model.Ticker) (model.PriceSeries, bool) {
	m := NewRetrier(r.policy)
	for m.State() == StateAttempting {
		attempt := m.Attempt()
		series, err := r.source.FetchDaily(ctx, ticker)
		if err == nil && series.Len() == 0 {
			err = ErrNoData
		}
		if err == nil {
			m.Succeed()
			return series, true
		}

		wait := m.Fail()
		r.logger.Warn().Err(err).
			Str("ticker", ticker.String()).
			Int("attempt", attempt+1).
			Int("max_attempts", r.policy.MaxAttempts).
			Dur("backoff", wait).
			Msg("fetch attempt failed")

		if sleepErr := r.sleep(ctx, wait); sleepErr != nil {
			r.logger.Warn().Err(sleepErr).Str("ticker", ticker.String()).Msg("fetch aborted")
			return model.PriceSeries{}, false
		}
	}

	r.logger.Warn().Str("ticker", ticker.String()).
		Int("attempts", r.policy.MaxAttempts).
		Msg("no data found after retries")
	return model.PriceSeries{}, false
}

var _ PriceFetcher = (*Retrying)(nil)
