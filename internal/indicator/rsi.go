package indicator

import (
	"fmt"
	"strings"
)

// RSIMethod selects how the average gain and loss are seeded.
type RSIMethod string

const (
	// RSIWilder smooths gains and losses with an exponential average of
	// alpha 1/period starting from zero, so the first change carries weight
	// 1/period like every later one.
	RSIWilder RSIMethod = "wilder"
	// RSIClassic seeds the averages with the simple mean of the first
	// period changes before applying Wilder smoothing.
	RSIClassic RSIMethod = "classic"
)

// ParseRSIMethod validates a configured method name.
func ParseRSIMethod(v string) (RSIMethod, error) {
	switch RSIMethod(strings.ToLower(strings.TrimSpace(v))) {
	case "", RSIWilder:
		return RSIWilder, nil
	case RSIClassic:
		return RSIClassic, nil
	default:
		return "", fmt.Errorf("unknown rsi method %q", v)
	}
}

// RSI computes the relative strength index over closes. The result holds one
// value per close from index period onward, so it is empty when fewer than
// period+1 closes are given.
func RSI(closes []float64, period int, method RSIMethod) []float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}
	if method == RSIClassic {
		return classicRSI(closes, period)
	}
	return wilderRSI(closes, period)
}

func wilderRSI(closes []float64, period int) []float64 {
	alpha := 1.0 / float64(period)
	out := make([]float64, 0, len(closes)-period)

	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain += alpha * (gain - avgGain)
		avgLoss += alpha * (loss - avgLoss)
		if i >= period {
			out = append(out, rsiValue(avgGain, avgLoss))
		}
	}
	return out
}

func classicRSI(closes []float64, period int) []float64 {
	out := make([]float64, 0, len(closes)-period)

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out = append(out, rsiValue(avgGain, avgLoss))

	for i := period + 1; i < len(closes); i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return out
}

func split(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
