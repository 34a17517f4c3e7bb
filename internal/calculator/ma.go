package calculator

import (
	"errors"
	"fmt"

	"StockSentinel/internal/model"
)

// CalculateSMA computes the simple moving average of the last period values.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, fmt.Errorf("%w: SMA(%d) needs %d points, have %d",
			model.ErrInsufficientHistory, period, period, len(values))
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// PreviousSMA computes the same average one period earlier, i.e. excluding the last value.
func PreviousSMA(values []float64, period int) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: no points", model.ErrInsufficientHistory)
	}
	return CalculateSMA(values[:len(values)-1], period)
}

// CalculateMA50 returns the 50-day simple moving average of closing prices.
func CalculateMA50(series *model.PriceSeries) (float64, error) {
	return CalculateSMA(series.Closes(), 50)
}

// CalculateMA200 returns the 200-day simple moving average of closing prices.
func CalculateMA200(series *model.PriceSeries) (float64, error) {
	return CalculateSMA(series.Closes(), 200)
}
