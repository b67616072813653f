package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"dip-screener/internal/alerting"
	"dip-screener/internal/fetcher"
	"dip-screener/internal/indicator"
	"dip-screener/internal/model"
	"dip-screener/internal/storage"
)

// Analyzer turns a price series into an analysis result.
type Analyzer interface {
	Analyze(series model.PriceSeries) (model.AnalysisResult, error)
}

// Options tunes a screening pass.
type Options struct {
	Thresholds    Thresholds
	Pacing        time.Duration
	ProgressEvery int
	Workers       int

	// Now and Sleep default to the wall clock.
	Now   func() time.Time
	Sleep fetcher.SleepFunc
}

// Outcome describes what Publish did with a report.
type Outcome struct {
	ArtifactPath string
	Notified     bool
	DeliveryErr  error
}

// Service orchestrates fetching, analysis, filtering and delivery.
type Service struct {
	opts     Options
	fetcher  fetcher.PriceFetcher
	analyzer Analyzer
	store    storage.ReportStore
	notifier alerting.Notifier
	logger   zerolog.Logger
}

// New constructs the screening service. store and notifier may be nil.
func New(opts Options, priceFetcher fetcher.PriceFetcher, analyzer Analyzer, store storage.ReportStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 50
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = fetcher.Sleep
	}

	return &Service{
		opts:     opts,
		fetcher:  priceFetcher,
		analyzer: analyzer,
		store:    store,
		notifier: notifier,
		logger:   logger.With().Str("component", "service").Logger(),
	}
}

// Screen runs every ticker through fetch, analyze and filter. Tickers that
// fail any stage are skipped; only cancellation aborts the pass.
func (s *Service) Screen(ctx context.Context, universe []model.Ticker) (*model.OpportunityReport, error) {
	report := &model.OpportunityReport{
		RunID: uuid.NewString(),
		Date:  s.opts.Now().UTC().Format(model.DateLayout),
	}

	var (
		mu        sync.Mutex
		processed atomic.Int64
		pace      = newPacer(s.opts.Pacing, s.opts.Sleep)
		total     = len(universe)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for _, ticker := range universe {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := pace.wait(gctx); err != nil {
				return err
			}

			res, ok := s.screenOne(gctx, ticker)

			mu.Lock()
			report.Screened++
			if !ok {
				report.Skipped++
			} else if IsOpportunity(&res, s.opts.Thresholds) {
				report.Opportunities = append(report.Opportunities, res)
			}
			mu.Unlock()

			if n := processed.Add(1); n%int64(s.opts.ProgressEvery) == 0 {
				s.logger.Info().Int64("processed", n).Int("total", total).Msg("progress")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("screen universe: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("screen universe: %w", err)
	}

	sort.Slice(report.Opportunities, func(i, j int) bool {
		return report.Opportunities[i].Ticker < report.Opportunities[j].Ticker
	})
	return report, nil
}

func (s *Service) screenOne(ctx context.Context, ticker model.Ticker) (model.AnalysisResult, bool) {
	series, ok := s.fetcher.Fetch(ctx, ticker)
	if !ok {
		s.logger.Info().Str("ticker", ticker.String()).Str("reason", "no data").Msg("skipped")
		return model.AnalysisResult{}, false
	}

	res, err := s.analyzer.Analyze(series)
	if err != nil {
		reason := "analysis failed"
		switch {
		case errors.Is(err, indicator.ErrInsufficientData):
			reason = "insufficient data"
		case errors.Is(err, indicator.ErrInvalidSeries):
			reason = "invalid series"
		}
		s.logger.Info().Str("ticker", ticker.String()).Str("reason", reason).Err(err).Msg("skipped")
		return model.AnalysisResult{}, false
	}
	return res, true
}

// Publish stores the report and then notifies. An empty report does
// nothing. Delivery faults are reported in the Outcome, not as an error.
func (s *Service) Publish(ctx context.Context, report *model.OpportunityReport) (Outcome, error) {
	var out Outcome
	if report.Empty() {
		s.logger.Info().Msg("no opportunities")
		return out, nil
	}

	if s.store != nil {
		path, err := s.store.Save(report)
		if err != nil {
			return out, fmt.Errorf("save report: %w", err)
		}
		out.ArtifactPath = path
		s.logger.Info().Str("path", path).Int("opportunities", len(report.Opportunities)).Msg("report saved")
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, report); err != nil {
			out.DeliveryErr = err
			s.logger.Warn().Err(err).Str("run_id", report.RunID).Msg("failed to deliver report")
		} else {
			out.Notified = true
		}
	}
	return out, nil
}

// Run screens the universe and publishes the result.
func (s *Service) Run(ctx context.Context, universe []model.Ticker) (*model.OpportunityReport, Outcome, error) {
	started := s.opts.Now()
	s.logger.Info().Int("tickers", len(universe)).Int("workers", s.opts.Workers).Msg("screening started")

	report, err := s.Screen(ctx, universe)
	if err != nil {
		return report, Outcome{}, err
	}

	out, err := s.Publish(ctx, report)
	if err != nil {
		return report, out, err
	}

	s.logger.Info().
		Str("run_id", report.RunID).
		Int("screened", report.Screened).
		Int("skipped", report.Skipped).
		Int("opportunities", len(report.Opportunities)).
		Dur("elapsed", s.opts.Now().Sub(started)).
		Msg("screening finished")
	return report, out, nil
}

// pacer spaces request starts by a fixed interval across all workers.
type pacer struct {
	mu       sync.Mutex
	interval time.Duration
	sleep    fetcher.SleepFunc
	started  bool
}

func newPacer(interval time.Duration, sleep fetcher.SleepFunc) *pacer {
	return &pacer{interval: interval, sleep: sleep}
}

func (p *pacer) wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started || p.interval <= 0 {
		p.started = true
		return ctx.Err()
	}
	return p.sleep(ctx, p.interval)
}
