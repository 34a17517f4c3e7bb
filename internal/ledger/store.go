package ledger

import (
	"context"
	"time"

	"StockSentinel/internal/model"
)

// HistoryStore persists alert history entries keyed by (symbol, rule, day).
// Implementations upsert on Put so at most one entry exists per key.
type HistoryStore interface {
	// Get returns the entry for key. found is false when none exists.
	Get(ctx context.Context, key model.HistoryKey) (entry model.AlertHistoryEntry, found bool, err error)

	// Put inserts or replaces the entry for its key.
	Put(ctx context.Context, entry model.AlertHistoryEntry) error

	// ExistsForDate reports whether any entry exists for key.
	ExistsForDate(ctx context.Context, key model.HistoryKey) (bool, error)

	// History returns entries for (symbol, rule) dated on or after since, oldest first.
	History(ctx context.Context, symbol string, ruleID model.RuleID, since time.Time) ([]model.AlertHistoryEntry, error)

	// Close releases the underlying connection.
	Close() error
}

// dayStart returns t at UTC midnight of its calendar day. Stores compare
// dates by their YYYY-MM-DD key, so the zone of t only matters for the day.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
