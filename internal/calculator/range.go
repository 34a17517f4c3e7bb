package calculator

import (
	"fmt"
	"math"

	"StockSentinel/internal/model"
)

// TradingDaysPerYear is the trailing window used for the 52-week range.
const TradingDaysPerYear = 252

// Calculate52WeekRange scans the most recent 252 closes (or all of them when
// fewer exist) and returns the highest and lowest close.
func Calculate52WeekRange(closes []float64) (high, low float64, err error) {
	if len(closes) == 0 {
		return 0, 0, fmt.Errorf("%w: no closes provided", model.ErrInsufficientHistory)
	}
	start := len(closes) - TradingDaysPerYear
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, c := range closes[start:] {
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}
	return high, low, nil
}

// Calculate52WeekPosition returns where the current price sits within the 52-week range (0.0~1.0).
func Calculate52WeekPosition(current, high, low float64) float64 {
	if high <= low {
		return 0.5
	}
	return math.Max(0, math.Min(1, (current-low)/(high-low)))
}
