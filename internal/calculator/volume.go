package calculator

import (
	"fmt"

	"StockSentinel/internal/model"
)

// VolumeAvgPeriod is the number of prior sessions averaged for spike detection.
const VolumeAvgPeriod = 20

// AverageVolume returns the mean volume of the period sessions before the
// last one. The current session is excluded so a spike cannot dilute its own
// baseline.
func AverageVolume(volumes []float64, period int) (float64, error) {
	if len(volumes) < period+1 {
		return 0, fmt.Errorf("%w: volume average needs %d points, have %d",
			model.ErrInsufficientHistory, period+1, len(volumes))
	}
	avg, err := PreviousSMA(volumes, period)
	if err != nil {
		return 0, err
	}
	if avg <= 0 {
		return 0, fmt.Errorf("%w: zero average volume", model.ErrInsufficientHistory)
	}
	return avg, nil
}
