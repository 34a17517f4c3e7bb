package calculator

import (
	"fmt"

	"StockSentinel/internal/model"
)

// PriceChange returns the absolute and percent change of the last close
// against the one before it.
func PriceChange(closes []float64) (change, pct float64, err error) {
	n := len(closes)
	if n < 2 {
		return 0, 0, fmt.Errorf("%w: price change needs 2 closes, have %d", model.ErrInsufficientHistory, n)
	}
	prev := closes[n-2]
	if prev == 0 {
		return 0, 0, fmt.Errorf("%w: previous close is zero", model.ErrInsufficientHistory)
	}
	change = closes[n-1] - prev
	return change, change / prev * 100, nil
}

// GapPct returns how far the open gapped away from the previous close, in percent.
func GapPct(open, prevClose float64) float64 {
	if prevClose == 0 {
		return 0
	}
	return (open - prevClose) / prevClose * 100
}
