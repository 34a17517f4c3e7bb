package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"StockSentinel/internal/model"
	"StockSentinel/pkg/logger"
)

// SQLiteStore persists alert history in a SQLite table with one row per
// (symbol, rule_id, date).
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the recorder and ad-hoc readers share the file with the ledger.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("SQLite alert ledger opened", logger.String("path", dbPath))
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alert_history (
			symbol       TEXT NOT NULL,
			rule_id      TEXT NOT NULL,
			date         TEXT NOT NULL,
			status       TEXT NOT NULL,
			relationship TEXT NOT NULL DEFAULT '',
			severity     TEXT NOT NULL DEFAULT '',
			title        TEXT NOT NULL DEFAULT '',
			message      TEXT NOT NULL DEFAULT '',
			recorded_at  INTEGER NOT NULL,
			PRIMARY KEY (symbol, rule_id, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_history_date ON alert_history(date)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key model.HistoryKey) (model.AlertHistoryEntry, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT symbol, rule_id, date, status, relationship, severity, title, message, recorded_at
		FROM alert_history WHERE symbol = ? AND rule_id = ? AND date = ?`,
		key.Symbol, string(key.RuleID), model.DayKey(key.Date))

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AlertHistoryEntry{}, false, nil
	}
	if err != nil {
		return model.AlertHistoryEntry{}, false, err
	}
	return e, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, e model.AlertHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO alert_history
		(symbol, rule_id, date, status, relationship, severity, title, message, recorded_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(symbol, rule_id, date) DO UPDATE SET
			status = excluded.status,
			relationship = excluded.relationship,
			severity = excluded.severity,
			title = excluded.title,
			message = excluded.message,
			recorded_at = excluded.recorded_at`,
		e.Symbol, string(e.RuleID), model.DayKey(e.Date), string(e.Status),
		string(e.Relationship), string(e.Severity), e.Title, e.Message, e.RecordedAt.Unix(),
	)
	return err
}

func (s *SQLiteStore) ExistsForDate(ctx context.Context, key model.HistoryKey) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM alert_history
		WHERE symbol = ? AND rule_id = ? AND date = ?`,
		key.Symbol, string(key.RuleID), model.DayKey(key.Date)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) History(ctx context.Context, symbol string, ruleID model.RuleID, since time.Time) ([]model.AlertHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, rule_id, date, status, relationship, severity, title, message, recorded_at
		FROM alert_history WHERE symbol = ? AND rule_id = ? AND date >= ?
		ORDER BY date ASC`,
		symbol, string(ruleID), model.DayKey(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AlertHistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	logger.Info("Closing SQLite alert ledger")
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (model.AlertHistoryEntry, error) {
	var (
		e                              model.AlertHistoryEntry
		ruleID, date, status, rel, sev string
		recordedAt                     int64
	)
	if err := sc.Scan(&e.Symbol, &ruleID, &date, &status, &rel, &sev, &e.Title, &e.Message, &recordedAt); err != nil {
		return e, err
	}
	d, err := model.ParseDayKey(date)
	if err != nil {
		return e, fmt.Errorf("bad date %q: %w", date, err)
	}
	e.RuleID = model.RuleID(ruleID)
	e.Date = d
	e.Status = model.HistoryStatus(status)
	e.Relationship = model.Relationship(rel)
	e.Severity = model.Severity(sev)
	e.RecordedAt = time.Unix(recordedAt, 0)
	return e, nil
}
