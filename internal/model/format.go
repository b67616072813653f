package model

import "github.com/shopspring/decimal"

// FormatFloat renders v with the shortest exact digits but always at least
// one decimal place, so -25 prints as "-25.0" and 31.45 as "31.45".
func FormatFloat(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.Exponent() >= 0 {
		return d.StringFixed(1)
	}
	return d.String()
}

// FormatRSI renders an optional RSI value; absent values are empty.
func FormatRSI(rsi *float64) string {
	if rsi == nil {
		return ""
	}
	return FormatFloat(*rsi)
}
