package service

import "dip-screener/internal/model"

// Thresholds are the filter bounds of a screening pass.
type Thresholds struct {
	DropPct      float64 // qualifies at or below, e.g. -20
	RSIThreshold float64 // qualifies strictly below, e.g. 40
}

// DefaultThresholds returns the stock filter bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{DropPct: -20, RSIThreshold: 40}
}

// IsOpportunity reports whether r shows a deep enough drop with an oversold
// RSI. A missing result or RSI never qualifies.
func IsOpportunity(r *model.AnalysisResult, th Thresholds) bool {
	if r == nil || r.RSI == nil {
		return false
	}
	return r.DropPct <= th.DropPct && *r.RSI < th.RSIThreshold
}
