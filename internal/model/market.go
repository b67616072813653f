package model

import "time"

// Ticker is a normalized equity symbol (uppercase, "." replaced by "-").
type Ticker string

func (t Ticker) String() string { return string(t) }

// Bar represents a single adjusted daily bar.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the daily bars of one ticker, ascending by date.
type PriceSeries struct {
	Ticker Ticker
	Bars   []Bar
}

// Len returns the number of bars.
func (s PriceSeries) Len() int { return len(s.Bars) }

// Closes extracts the closing prices, most recent last.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// LastDate returns the date of the final bar, or the zero time for an empty series.
func (s PriceSeries) LastDate() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Date
}
