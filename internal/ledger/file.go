package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"StockSentinel/internal/model"
)

// FileStore keeps the whole history in a single JSON file. Every Put
// rewrites the file; fine for one symbol and a handful of rules a day.
type FileStore struct {
	mu   sync.Mutex
	path string
	mem  *MemoryStore
}

type fileState struct {
	Entries   []model.AlertHistoryEntry `json:"entries"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// NewFileStore loads path, treating a missing file as empty history.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, mem: NewMemoryStore()}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for _, e := range state.Entries {
		_ = s.mem.Put(context.Background(), e)
	}
	return s, nil
}

func (s *FileStore) Get(ctx context.Context, key model.HistoryKey) (model.AlertHistoryEntry, bool, error) {
	return s.mem.Get(ctx, key)
}

func (s *FileStore) ExistsForDate(ctx context.Context, key model.HistoryKey) (bool, error) {
	return s.mem.ExistsForDate(ctx, key)
}

func (s *FileStore) History(ctx context.Context, symbol string, ruleID model.RuleID, since time.Time) ([]model.AlertHistoryEntry, error) {
	return s.mem.History(ctx, symbol, ruleID, since)
}

// Put writes the file before touching memory so a failed write leaves both
// views as they were.
func (s *FileStore) Put(ctx context.Context, e model.AlertHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.Date = dayStart(e.Date)
	if err := s.save(e); err != nil {
		return err
	}
	return s.mem.Put(ctx, e)
}

// save writes the current entries with next applied to a temp file and
// renames it over the target so a crash mid-write leaves the previous
// history intact.
func (s *FileStore) save(next model.AlertHistoryEntry) error {
	nextKey := next.Key().String()
	s.mem.mu.RLock()
	state := fileState{
		Entries:   make([]model.AlertHistoryEntry, 0, len(s.mem.entries)+1),
		UpdatedAt: time.Now(),
	}
	for k, e := range s.mem.entries {
		if k != nextKey {
			state.Entries = append(state.Entries, e)
		}
	}
	s.mem.mu.RUnlock()
	state.Entries = append(state.Entries, next)

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) Close() error { return nil }
