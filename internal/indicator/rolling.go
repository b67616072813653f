package indicator

import (
	"time"

	"dip-screener/internal/model"
)

// RollingMax returns the trailing rolling maximum of closes over window.
// out[j] is the maximum of closes[j : j+window], so out has one entry per
// position i >= window-1 of the input and is empty when len(closes) < window.
func RollingMax(closes []float64, window int) []float64 {
	if window <= 0 || len(closes) < window {
		return nil
	}

	out := make([]float64, 0, len(closes)-window+1)
	// deque holds indexes with strictly decreasing closes
	deque := make([]int, 0, window)
	for i, c := range closes {
		for len(deque) > 0 && closes[deque[len(deque)-1]] <= c {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, i)
		if deque[0] <= i-window {
			deque = deque[1:]
		}
		if i >= window-1 {
			out = append(out, closes[deque[0]])
		}
	}
	return out
}

// DropPct returns the signed percentage change of last relative to high.
func DropPct(last, high float64) float64 {
	return (last - high) / high * 100
}

// DaysSinceHigh locates the highest close within the last window bars and
// returns the calendar days between that bar and the final bar. When several
// bars share the maximum, the earliest one wins.
func DaysSinceHigh(bars []model.Bar, window int) (int, time.Time) {
	if len(bars) == 0 || window <= 0 {
		return 0, time.Time{}
	}
	start := len(bars) - window
	if start < 0 {
		start = 0
	}

	best := start
	for i := start + 1; i < len(bars); i++ {
		if bars[i].Close > bars[best].Close {
			best = i
		}
	}

	high := bars[best].Date
	days := calendarDays(high, bars[len(bars)-1].Date)
	return days, high
}

func calendarDays(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
