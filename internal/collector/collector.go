package collector

import (
	"context"
	"fmt"
	"time"

	"StockSentinel/internal/model"
	"StockSentinel/pkg/logger"
)

// DefaultLookback covers MA200 plus the previous-period MA200 and a full
// 52-week window with room for holidays.
const DefaultLookback = 400

// Collector loads the price history the engine evaluates.
type Collector struct {
	Fetcher  Fetcher
	Symbol   string
	Lookback int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string, lookback int) *Collector {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Collector{Fetcher: fetcher, Symbol: symbol, Lookback: lookback}
}

// Collect fetches the daily series and validates it. Any failure is
// reported as model.ErrDataUnavailable so the run aborts before writing.
func (c *Collector) Collect(ctx context.Context) (*model.PriceSeries, error) {
	start := time.Now()
	bars, err := c.Fetcher.FetchDailyBars(ctx, c.Symbol, c.Lookback)
	if err != nil {
		logger.ErrorsTotal.WithLabelValues("collector", c.Fetcher.Name()).Inc()
		return nil, fmt.Errorf("%w: %s via %s: %v", model.ErrDataUnavailable, c.Symbol, c.Fetcher.Name(), err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s via %s: no bars", model.ErrDataUnavailable, c.Symbol, c.Fetcher.Name())
	}

	series := &model.PriceSeries{Symbol: c.Symbol, Points: bars}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDataUnavailable, err)
	}

	last, _ := series.Last()
	logger.Info("Price history collected",
		logger.String("symbol", c.Symbol),
		logger.String("source", c.Fetcher.Name()),
		logger.Int("bars", series.Len()),
		logger.String("last_day", model.DayKey(last.Date)),
		logger.Duration("took", time.Since(start)),
	)
	return series, nil
}
