package model

import "time"

// Reading is an indicator value that may be unavailable because the series
// is too short to compute it.
type Reading struct {
	Value float64
	Valid bool
}

// Known wraps an available value.
func Known(v float64) Reading { return Reading{Value: v, Valid: true} }

// Indicator names a derived value of IndicatorSnapshot.
type Indicator string

const (
	IndPriceChangePct Indicator = "price_change_pct"
	IndAvgVolume20d   Indicator = "avg_volume_20d"
	IndRSI14          Indicator = "rsi_14"
	IndMA50           Indicator = "ma50"
	IndMA200          Indicator = "ma200"
	IndPrevMA50       Indicator = "prev_ma50"
	IndPrevMA200      Indicator = "prev_ma200"
	IndWeek52High     Indicator = "week52_high"
	IndWeek52Low      Indicator = "week52_low"
	IndPrevClose      Indicator = "prev_close"
)

// IndicatorSnapshot holds all indicators computed as of the last bar of a series.
type IndicatorSnapshot struct {
	AsOf   time.Time
	Close  float64
	Open   float64
	Volume float64

	PrevClose      Reading
	PriceChange    Reading
	PriceChangePct Reading
	AvgVolume20d   Reading
	RSI14          Reading
	MA50           Reading
	MA200          Reading
	PrevMA50       Reading
	PrevMA200      Reading
	Week52High     Reading
	Week52Low      Reading
}

// Get returns the reading for the named indicator.
func (s *IndicatorSnapshot) Get(ind Indicator) Reading {
	switch ind {
	case IndPriceChangePct:
		return s.PriceChangePct
	case IndAvgVolume20d:
		return s.AvgVolume20d
	case IndRSI14:
		return s.RSI14
	case IndMA50:
		return s.MA50
	case IndMA200:
		return s.MA200
	case IndPrevMA50:
		return s.PrevMA50
	case IndPrevMA200:
		return s.PrevMA200
	case IndWeek52High:
		return s.Week52High
	case IndWeek52Low:
		return s.Week52Low
	case IndPrevClose:
		return s.PrevClose
	default:
		return Reading{}
	}
}

// VolumeRatio returns volume / avgVolume20d, or 0 when the average is unavailable.
func (s *IndicatorSnapshot) VolumeRatio() float64 {
	if !s.AvgVolume20d.Valid || s.AvgVolume20d.Value == 0 {
		return 0
	}
	return s.Volume / s.AvgVolume20d.Value
}

// Relationship reports where MA50 sits relative to MA200.
type Relationship string

const (
	RelationUnknown Relationship = ""
	RelationAbove   Relationship = "above"
	RelationBelow   Relationship = "below"
	RelationEqual   Relationship = "equal"
)

// MARelationship compares MA50 with MA200 on the current bar.
func (s *IndicatorSnapshot) MARelationship() Relationship {
	if !s.MA50.Valid || !s.MA200.Valid {
		return RelationUnknown
	}
	return compareMA(s.MA50.Value, s.MA200.Value)
}

func compareMA(fast, slow float64) Relationship {
	switch {
	case fast > slow:
		return RelationAbove
	case fast < slow:
		return RelationBelow
	default:
		return RelationEqual
	}
}
