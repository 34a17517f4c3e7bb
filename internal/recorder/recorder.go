package recorder

import (
	"context"
	"time"

	"StockSentinel/internal/model"
)

// Run results stored in evaluation_runs.result.
const (
	ResultOK             = "ok"
	ResultDataError      = "data_unavailable"
	ResultLedgerError    = "ledger_unavailable"
	ResultDispatchFailed = "dispatch_failed"
)

// AlertEvent is one candidate alert of a run with what happened to it.
type AlertEvent struct {
	Alert   model.TriggeredAlert
	Outcome string // one of the logger.Outcome* values
}

// RunRecord is the audit row of one evaluation run.
type RunRecord struct {
	RunID     string
	Symbol    string
	StartedAt time.Time
	Duration  time.Duration
	Result    string
	Error     string
	Snapshot  *model.IndicatorSnapshot // nil when the run aborted before computing
	Skipped   []model.RuleID
	Events    []AlertEvent
}

// Count returns how many events had the given outcome.
func (r *RunRecord) Count(outcome string) int {
	n := 0
	for _, e := range r.Events {
		if e.Outcome == outcome {
			n++
		}
	}
	return n
}

// Recorder persists run history and fetched prices for later analysis.
// Failures never affect alerting; callers log and continue.
type Recorder interface {
	RecordRun(ctx context.Context, run *RunRecord) error
	RecordPrices(ctx context.Context, series *model.PriceSeries) error
	Close() error
}
