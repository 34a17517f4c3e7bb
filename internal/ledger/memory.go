package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"StockSentinel/internal/model"
)

// MemoryStore keeps history in process memory. Used for tests and for
// running without persistence.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]model.AlertHistoryEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]model.AlertHistoryEntry)}
}

func (m *MemoryStore) Get(_ context.Context, key model.HistoryKey) (model.AlertHistoryEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key.String()]
	return e, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, entry model.AlertHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.Date = dayStart(entry.Date)
	m.entries[entry.Key().String()] = entry
	return nil
}

func (m *MemoryStore) ExistsForDate(ctx context.Context, key model.HistoryKey) (bool, error) {
	_, ok, err := m.Get(ctx, key)
	return ok, err
}

func (m *MemoryStore) History(_ context.Context, symbol string, ruleID model.RuleID, since time.Time) ([]model.AlertHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	from := model.DayKey(since)
	var out []model.AlertHistoryEntry
	for _, e := range m.entries {
		if e.Symbol == symbol && e.RuleID == ruleID && model.DayKey(e.Date) >= from {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) Close() error { return nil }
