package strategy

import (
	"fmt"

	"StockSentinel/internal/model"
)

// Thresholds are the externally configured limits the rules compare against.
type Thresholds struct {
	PriceChangePct float64 // percent, absolute daily move
	VolumeSpike    float64 // multiple of the 20-day average volume
	RSIOversold    float64
	RSIOverbought  float64
	Week52HighBand float64 // percent below the 52-week high
	Week52LowBand  float64 // percent above the 52-week low
	GapPct         float64 // percent gap between open and previous close
}

// DefaultThresholds returns the stock defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PriceChangePct: 2.0,
		VolumeSpike:    1.5,
		RSIOversold:    30,
		RSIOverbought:  70,
		Week52HighBand: 1,
		Week52LowBand:  5,
		GapPct:         1,
	}
}

// Validate rejects thresholds that would make a rule meaningless.
func (t Thresholds) Validate() error {
	switch {
	case t.PriceChangePct <= 0:
		return fmt.Errorf("%w: price change threshold must be positive", model.ErrInvalidConfig)
	case t.VolumeSpike <= 0:
		return fmt.Errorf("%w: volume spike threshold must be positive", model.ErrInvalidConfig)
	case t.RSIOversold < 0 || t.RSIOverbought > 100 || t.RSIOversold >= t.RSIOverbought:
		return fmt.Errorf("%w: need 0 <= rsi oversold < rsi overbought <= 100", model.ErrInvalidConfig)
	case t.Week52HighBand < 0 || t.Week52HighBand >= 100:
		return fmt.Errorf("%w: 52-week high band must be in [0, 100)", model.ErrInvalidConfig)
	case t.Week52LowBand < 0:
		return fmt.Errorf("%w: 52-week low band must not be negative", model.ErrInvalidConfig)
	case t.GapPct <= 0:
		return fmt.Errorf("%w: gap threshold must be positive", model.ErrInvalidConfig)
	}
	return nil
}
