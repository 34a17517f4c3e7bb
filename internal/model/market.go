package model

import (
	"fmt"
	"math"
	"time"
)

// priceTolerance is the relative slack allowed when checking Low <= Close <= High.
const priceTolerance = 1e-6

// PricePoint represents a single daily OHLCV bar. Date is the trading day at
// midnight in the market's time zone.
type PricePoint struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate checks the internal consistency of a single bar.
func (p PricePoint) Validate() error {
	if p.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidSeries)
	}
	if p.Open < 0 || p.High < 0 || p.Low < 0 || p.Close < 0 || p.Volume < 0 {
		return fmt.Errorf("%w: negative field on %s", ErrInvalidSeries, DayKey(p.Date))
	}
	tol := priceTolerance * math.Max(1, p.High)
	if p.High+tol < p.Low {
		return fmt.Errorf("%w: high %.4f < low %.4f on %s", ErrInvalidSeries, p.High, p.Low, DayKey(p.Date))
	}
	if p.Close > p.High+tol || p.Close+tol < p.Low {
		return fmt.Errorf("%w: close %.4f outside [%.4f, %.4f] on %s",
			ErrInvalidSeries, p.Close, p.Low, p.High, DayKey(p.Date))
	}
	return nil
}

// PriceSeries holds the daily history of one symbol, oldest first.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

// Validate checks every bar and that dates are strictly increasing.
func (s *PriceSeries) Validate() error {
	for i, p := range s.Points {
		if err := p.Validate(); err != nil {
			return err
		}
		if i > 0 && !p.Date.After(s.Points[i-1].Date) {
			return fmt.Errorf("%w: dates not strictly increasing at %s", ErrInvalidSeries, DayKey(p.Date))
		}
	}
	return nil
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int { return len(s.Points) }

// Last returns the most recent bar. ok is false for an empty series.
func (s *PriceSeries) Last() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Closes returns the closing prices in order.
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close
	}
	return out
}

// Volumes returns the volumes in order.
func (s *PriceSeries) Volumes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Volume
	}
	return out
}

// TradingDay truncates t to midnight of its calendar day in loc.
func TradingDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayKey formats a date as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDayKey parses a YYYY-MM-DD key back into a UTC midnight time.
func ParseDayKey(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
