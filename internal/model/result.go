package model

import "time"

// AnalysisResult is the per-ticker outcome of the indicator engine.
type AnalysisResult struct {
	Ticker        Ticker    `json:"ticker"`
	DropPct       float64   `json:"drop_pct"`
	RSI           *float64  `json:"rsi"`
	DaysSinceHigh int       `json:"days_since_high"`
	LastClose     float64   `json:"last_close"`
	HighestRecent float64   `json:"highest_recent"`
	HighDate      time.Time `json:"high_date"`
	AsOf          time.Time `json:"as_of"`
}

// HasRSI reports whether an RSI value was computed.
func (r AnalysisResult) HasRSI() bool { return r.RSI != nil }

// OpportunityReport collects the qualifying results of one screening pass.
type OpportunityReport struct {
	RunID         string
	Date          string // UTC date, YYYY-MM-DD
	Opportunities []AnalysisResult
	Screened      int
	Skipped       int
}

// Empty reports whether the pass found no opportunities.
func (r *OpportunityReport) Empty() bool {
	return r == nil || len(r.Opportunities) == 0
}

// DateLayout is the layout of OpportunityReport.Date.
const DateLayout = "2006-01-02"
