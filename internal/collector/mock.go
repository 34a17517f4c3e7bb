package collector

import (
	"context"
	"time"

	"StockSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64
	Bars   []model.PricePoint
	Err    error
	EndDay time.Time
	Calls  int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, days int) ([]model.PricePoint, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		if len(m.Bars) > days {
			return m.Bars[len(m.Bars)-days:], nil
		}
		return m.Bars, nil
	}
	end := m.EndDay
	if end.IsZero() {
		end = model.TradingDay(time.Now(), time.UTC)
	}
	return generateMockBars(m.Price, days, end), nil
}

// generateMockBars produces a gently rising series ending on end, one bar
// per calendar day.
func generateMockBars(basePrice float64, count int, end time.Time) []model.PricePoint {
	bars := make([]model.PricePoint, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.PricePoint{
			Date:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
