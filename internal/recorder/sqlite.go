package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"StockSentinel/internal/calculator"
	"StockSentinel/internal/model"
	"StockSentinel/pkg/logger"
)

// SQLiteRecorder persists run audits and daily prices to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("SQLite recorder opened", logger.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS evaluation_runs (
			id               TEXT PRIMARY KEY,
			symbol           TEXT NOT NULL,
			started_at       INTEGER NOT NULL,
			duration_ms      INTEGER,
			result           TEXT NOT NULL,
			error            TEXT,
			as_of            TEXT,
			close            REAL,
			price_change_pct REAL,
			volume           REAL,
			avg_volume_20d   REAL,
			rsi14            REAL,
			ma50             REAL,
			ma200            REAL,
			high_52w         REAL,
			low_52w          REAL,
			position_52w     REAL,
			skipped_rules    TEXT,
			triggered        INTEGER,
			suppressed       INTEGER,
			dispatched       INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON evaluation_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS alert_events (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id   TEXT NOT NULL,
			symbol   TEXT NOT NULL,
			rule_id  TEXT NOT NULL,
			severity TEXT,
			date     TEXT NOT NULL,
			outcome  TEXT NOT NULL,
			title    TEXT,
			message  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_run ON alert_events(run_id)`,

		`CREATE TABLE IF NOT EXISTS price_history (
			symbol TEXT NOT NULL,
			date   TEXT NOT NULL,
			open   REAL,
			high   REAL,
			low    REAL,
			close  REAL,
			volume REAL,
			PRIMARY KEY (symbol, date)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps an unavailable reading to SQL NULL.
func nullable(rd model.Reading) any {
	if !rd.Valid {
		return nil
	}
	return rd.Value
}

// RecordRun writes the run row and one alert_events row per candidate in a
// single transaction. An empty RunID is filled in.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}

	var (
		asOf                                                    any
		closePrice, changePct, volume, avgVol, rsi, ma50, ma200 any
		high, low, position                                     any
	)
	if s := run.Snapshot; s != nil {
		asOf = model.DayKey(s.AsOf)
		closePrice, volume = s.Close, s.Volume
		changePct, avgVol, rsi = nullable(s.PriceChangePct), nullable(s.AvgVolume20d), nullable(s.RSI14)
		ma50, ma200 = nullable(s.MA50), nullable(s.MA200)
		high, low = nullable(s.Week52High), nullable(s.Week52Low)
		if s.Week52High.Valid && s.Week52Low.Valid {
			position = calculator.Calculate52WeekPosition(s.Close, s.Week52High.Value, s.Week52Low.Value)
		}
	}

	skipped := make([]string, len(run.Skipped))
	for i, id := range run.Skipped {
		skipped[i] = string(id)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO evaluation_runs
		(id, symbol, started_at, duration_ms, result, error, as_of,
		 close, price_change_pct, volume, avg_volume_20d, rsi14, ma50, ma200,
		 high_52w, low_52w, position_52w, skipped_rules,
		 triggered, suppressed, dispatched)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.RunID, run.Symbol, run.StartedAt.Unix(), run.Duration.Milliseconds(), run.Result, run.Error, asOf,
		closePrice, changePct, volume, avgVol, rsi, ma50, ma200,
		high, low, position, strings.Join(skipped, ","),
		len(run.Events), run.Count(logger.OutcomeSuppressed), run.Count(logger.OutcomeDispatched),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, e := range run.Events {
		a := e.Alert
		if _, err := tx.ExecContext(ctx, `INSERT INTO alert_events
			(run_id, symbol, rule_id, severity, date, outcome, title, message)
			VALUES (?,?,?,?,?,?,?,?)`,
			run.RunID, a.Symbol, string(a.RuleID), string(a.Severity), model.DayKey(a.AsOfDate),
			e.Outcome, a.Title, a.Message,
		); err != nil {
			return fmt.Errorf("insert alert event: %w", err)
		}
	}
	return tx.Commit()
}

// RecordPrices upserts every bar of the series into price_history.
func (r *SQLiteRecorder) RecordPrices(ctx context.Context, series *model.PriceSeries) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO price_history
		(symbol, date, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			open = excluded.open, high = excluded.high, low = excluded.low,
			close = excluded.close, volume = excluded.volume`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range series.Points {
		if _, err := stmt.ExecContext(ctx, series.Symbol, model.DayKey(p.Date),
			p.Open, p.High, p.Low, p.Close, p.Volume); err != nil {
			return fmt.Errorf("upsert %s %s: %w", series.Symbol, model.DayKey(p.Date), err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	logger.Info("Closing SQLite recorder")
	return r.db.Close()
}
