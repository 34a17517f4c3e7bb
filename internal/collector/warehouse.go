package collector

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"StockSentinel/internal/model"
)

// WarehouseFetcher reads bars previously stored in the price_history table
// by the SQLite recorder. Useful for replaying a day without network access.
type WarehouseFetcher struct {
	db *sql.DB
}

// NewWarehouseFetcher opens the SQLite warehouse at dbPath.
func NewWarehouseFetcher(dbPath string) (*WarehouseFetcher, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &WarehouseFetcher{db: db}, nil
}

func (w *WarehouseFetcher) Name() string { return "warehouse" }

func (w *WarehouseFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.PricePoint, error) {
	rows, err := w.db.QueryContext(ctx, `SELECT date, open, high, low, close, volume FROM (
			SELECT date, open, high, low, close, volume FROM price_history
			WHERE symbol = ? ORDER BY date DESC LIMIT ?
		) ORDER BY date ASC`, symbol, days)
	if err != nil {
		return nil, fmt.Errorf("query price_history: %w", err)
	}
	defer rows.Close()

	var bars []model.PricePoint
	for rows.Next() {
		var (
			day string
			p   model.PricePoint
		)
		if err := rows.Scan(&day, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, err
		}
		if p.Date, err = model.ParseDayKey(day); err != nil {
			return nil, fmt.Errorf("bad date %q: %w", day, err)
		}
		bars = append(bars, p)
	}
	return bars, rows.Err()
}

func (w *WarehouseFetcher) Close() error {
	return w.db.Close()
}
