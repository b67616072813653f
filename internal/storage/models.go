package storage

import (
	"fmt"
	"strconv"

	"dip-screener/internal/model"
)

// Header is the column layout of an opportunities file.
var Header = []string{"ticker", "drop_pct", "rsi", "days_since_high", "last_close"}

func encodeRecord(r model.AnalysisResult) []string {
	return []string{
		r.Ticker.String(),
		model.FormatFloat(r.DropPct),
		model.FormatRSI(r.RSI),
		strconv.Itoa(r.DaysSinceHigh),
		model.FormatFloat(r.LastClose),
	}
}

func decodeRecord(record []string) (model.AnalysisResult, error) {
	if len(record) != len(Header) {
		return model.AnalysisResult{}, fmt.Errorf("expected %d columns, got %d", len(Header), len(record))
	}

	drop, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("parse drop_pct: %w", err)
	}
	days, err := strconv.Atoi(record[3])
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("parse days_since_high: %w", err)
	}
	last, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("parse last_close: %w", err)
	}

	res := model.AnalysisResult{
		Ticker:        model.Ticker(record[0]),
		DropPct:       drop,
		DaysSinceHigh: days,
		LastClose:     last,
	}
	if record[2] != "" {
		rsi, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return model.AnalysisResult{}, fmt.Errorf("parse rsi: %w", err)
		}
		res.RSI = &rsi
	}
	return res, nil
}
