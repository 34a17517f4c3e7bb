package calculator

import (
	"time"

	"StockSentinel/internal/model"
)

var baseDay = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// seriesFromCloses builds a valid daily series with one bar per close.
func seriesFromCloses(closes []float64, volume float64) *model.PriceSeries {
	s := &model.PriceSeries{Symbol: "WMT"}
	for i, c := range closes {
		s.Points = append(s.Points, model.PricePoint{
			Date:   baseDay.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: volume,
		})
	}
	return s
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
