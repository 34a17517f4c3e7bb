package collector

import (
	"context"

	"StockSentinel/internal/model"
)

// Fetcher loads daily bars for a symbol, oldest first. Implementations
// return at most days bars and set Date to the trading day in the market
// time zone.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.PricePoint, error)
	Name() string
}
