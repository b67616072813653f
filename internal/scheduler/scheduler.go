package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// TickFunc is invoked on every scheduled fire time.
type TickFunc func(ctx context.Context, at time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Spec       string // six fields, seconds first
	Location   *time.Location
	RunOnStart bool
}

// Scheduler drives a job on a cron schedule.
type Scheduler struct {
	opts     Options
	schedule cron.Schedule
	logger   zerolog.Logger
}

var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New constructs a Scheduler, rejecting an unparsable spec.
func New(opts Options, logger zerolog.Logger) (*Scheduler, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	schedule, err := parser.Parse(opts.Spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", opts.Spec, err)
	}
	return &Scheduler{
		opts:     opts,
		schedule: schedule,
		logger:   logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Next returns the first fire time after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	return s.schedule.Next(now.In(s.opts.Location))
}

// Run blocks, invoking tick on schedule until ctx is cancelled. Overlapping
// fires are skipped while a tick is still running.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	c := cron.New(
		cron.WithLocation(s.opts.Location),
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	run := func() {
		at := time.Now().In(s.opts.Location)
		s.logger.Info().Time("at", at).Msg("executing scheduled tick")
		if err := tick(ctx, at); err != nil {
			s.logger.Error().Err(err).Time("at", at).Msg("tick execution failed")
		}
		s.logger.Info().Time("next", s.Next(time.Now())).Msg("waiting for next tick")
	}

	c.Schedule(s.schedule, cron.FuncJob(run))

	if s.opts.RunOnStart {
		run()
	} else {
		s.logger.Info().Time("next", s.Next(time.Now())).Msg("waiting for next tick")
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}
