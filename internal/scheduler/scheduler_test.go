package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewRejectsInvalidSpec(t *testing.T) {
	if _, err := New(Options{Spec: "30 22 * * 1-5"}, zerolog.Nop()); err == nil {
		t.Fatal("five-field spec should be rejected")
	}
	if _, err := New(Options{Spec: "not a cron"}, zerolog.Nop()); err == nil {
		t.Fatal("garbage spec should be rejected")
	}
}

func TestNextSkipsWeekend(t *testing.T) {
	s, err := New(Options{Spec: "0 30 22 * * 1-5"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Friday 2024-03-08 after the close fires on Monday.
	friday := time.Date(2024, 3, 8, 23, 0, 0, 0, time.UTC)
	want := time.Date(2024, 3, 11, 22, 30, 0, 0, time.UTC)
	if got := s.Next(friday); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	before := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	want = time.Date(2024, 3, 8, 22, 30, 0, 0, time.UTC)
	if got := s.Next(before); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNextHonoursLocation(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	s, err := New(Options{Spec: "0 0 17 * * *", Location: loc}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	want := time.Date(2024, 3, 8, 22, 0, 0, 0, time.UTC)
	if got := s.Next(now); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got.UTC())
	}
}

func TestRunOnStartThenStops(t *testing.T) {
	s, err := New(Options{Spec: "@yearly", RunOnStart: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(context.Context, time.Time) error {
			calls.Add(1)
			cancel()
			return nil
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one immediate tick, got %d", calls.Load())
	}
}
