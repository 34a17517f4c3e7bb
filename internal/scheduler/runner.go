package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"StockSentinel/internal/calculator"
	"StockSentinel/internal/ledger"
	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/strategy"
	"StockSentinel/pkg/logger"
)

// LedgerPolicy decides what a run does when the alert history is unreachable.
type LedgerPolicy string

const (
	// PolicyAbort stops the run without notifying.
	PolicyAbort LedgerPolicy = "abort"
	// PolicyProceed notifies every candidate, accepting possible duplicates.
	PolicyProceed LedgerPolicy = "proceed"
)

// Source supplies the price history of the configured symbol.
type Source interface {
	Collect(ctx context.Context) (*model.PriceSeries, error)
}

// RunSummary describes the outcome of one evaluation run.
type RunSummary struct {
	RunID      string
	Symbol     string
	StartedAt  time.Time
	Duration   time.Duration
	AsOf       time.Time
	Result     string
	Triggered  int
	Suppressed int
	Dispatched int
	Pending    int
	Retried    int // earlier days' pending alerts delivered by this run
	Skipped    []model.RuleID
	Err        error
}

// Runner executes one fetch, evaluate, dedup, dispatch, record cycle.
type Runner struct {
	Symbol     string
	Source     Source
	Rules      []strategy.Rule
	Thresholds strategy.Thresholds
	Ledger     *ledger.Ledger
	Dispatcher notifier.Dispatcher
	Recorder   recorder.Recorder
	Policy     LedgerPolicy

	now func() time.Time

	mu   sync.Mutex
	last *RunSummary
}

// NewRunner wires a runner. A nil recorder disables auditing.
func NewRunner(symbol string, src Source, rules []strategy.Rule, th strategy.Thresholds,
	l *ledger.Ledger, d notifier.Dispatcher, rec recorder.Recorder, policy LedgerPolicy) *Runner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if policy == "" {
		policy = PolicyAbort
	}
	return &Runner{
		Symbol:     symbol,
		Source:     src,
		Rules:      rules,
		Thresholds: th,
		Ledger:     l,
		Dispatcher: d,
		Recorder:   rec,
		Policy:     policy,
		now:        time.Now,
	}
}

// Last returns the summary of the most recent run, or nil.
func (r *Runner) Last() *RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Run performs one evaluation. Re-running on the same trading day sends
// nothing new.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	start := r.now()
	sum := &RunSummary{RunID: uuid.NewString(), Symbol: r.Symbol, StartedAt: start, Result: recorder.ResultOK}
	audit := &recorder.RunRecord{RunID: sum.RunID, Symbol: r.Symbol, StartedAt: start}

	log := logger.Get().With(logger.String("run_id", sum.RunID), logger.String("symbol", r.Symbol))
	log.Info("Evaluation run started")

	err := r.run(ctx, sum, audit)

	sum.Duration = r.now().Sub(start)
	sum.Err = err
	audit.Duration = sum.Duration
	audit.Result = sum.Result
	if err != nil {
		audit.Error = err.Error()
	}
	if recErr := r.Recorder.RecordRun(ctx, audit); recErr != nil {
		log.Warn("Failed to record run", logger.ErrorField(recErr))
	}

	logger.RunsTotal.WithLabelValues(sum.Result).Inc()
	logger.RunDuration.Observe(sum.Duration.Seconds())

	r.mu.Lock()
	r.last = sum
	r.mu.Unlock()

	if err != nil {
		log.Error("Evaluation run failed",
			logger.String("result", sum.Result),
			logger.Duration("took", sum.Duration),
			logger.ErrorField(err),
		)
		return sum, err
	}
	log.Info("Evaluation run finished",
		logger.String("as_of", model.DayKey(sum.AsOf)),
		logger.Int("triggered", sum.Triggered),
		logger.Int("suppressed", sum.Suppressed),
		logger.Int("dispatched", sum.Dispatched),
		logger.Duration("took", sum.Duration),
	)
	return sum, nil
}

func (r *Runner) run(ctx context.Context, sum *RunSummary, audit *recorder.RunRecord) error {
	series, err := r.Source.Collect(ctx)
	if err != nil {
		sum.Result = recorder.ResultDataError
		return err
	}
	if err := r.Recorder.RecordPrices(ctx, series); err != nil {
		logger.Warn("Failed to store price history", logger.ErrorField(err))
	}

	snap, err := calculator.Compute(series)
	if err != nil {
		sum.Result = recorder.ResultDataError
		return fmt.Errorf("%w: %v", model.ErrDataUnavailable, err)
	}
	sum.AsOf = snap.AsOf
	audit.Snapshot = snap

	sum.Skipped = strategy.Skipped(snap, r.Rules)
	audit.Skipped = sum.Skipped
	for _, id := range sum.Skipped {
		logger.RulesSkippedTotal.WithLabelValues(string(id)).Inc()
	}
	if len(sum.Skipped) > 0 {
		logger.Info("Rules skipped for insufficient data", logger.Strings("rules", ruleNames(sum.Skipped)))
	}

	candidates := strategy.Evaluate(snap, r.Symbol, r.Rules, r.Thresholds)
	sum.Triggered = len(candidates)
	for _, c := range candidates {
		logger.AlertsTotal.WithLabelValues(string(c.RuleID), logger.OutcomeTriggered).Inc()
	}

	ledgerUp := true
	fresh, err := r.Ledger.FilterNew(ctx, candidates)
	if err != nil {
		if r.Policy != PolicyProceed {
			sum.Result = recorder.ResultLedgerError
			audit.Events = events(candidates, nil, "")
			return err
		}
		logger.Warn("Alert ledger unavailable, notifying without dedup", logger.ErrorField(err))
		ledgerUp = false
		fresh = candidates
	}
	sum.Suppressed = len(candidates) - len(fresh)

	var retries []model.TriggeredAlert
	if ledgerUp {
		retries, err = r.Ledger.Pending(ctx, r.Symbol, ruleIDs(r.Rules), snap.AsOf)
		if err != nil {
			logger.Warn("Failed to load pending alerts", logger.ErrorField(err))
			retries = nil
		}
	}
	outgoing := append(append([]model.TriggeredAlert{}, fresh...), retries...)

	var runErr error
	outcome := logger.OutcomeDispatched
	if len(outgoing) > 0 {
		batch := &notifier.Batch{
			Symbol:     r.Symbol,
			Alerts:     append(append([]model.TriggeredAlert{}, fresh...), delayed(retries)...),
			Snapshot:   snap,
			Thresholds: r.Thresholds,
		}
		if err := r.Dispatcher.Dispatch(ctx, batch); err != nil {
			outcome = logger.OutcomePending
			sum.Result = recorder.ResultDispatchFailed
			sum.Pending = len(outgoing)
			runErr = fmt.Errorf("%w: %v", model.ErrDispatchFailure, err)
			if ledgerUp {
				if err := r.Ledger.RecordPending(ctx, outgoing); err != nil {
					logger.Error("Failed to mark alerts pending", logger.ErrorField(err))
				}
			}
		} else {
			sum.Dispatched = len(outgoing)
			sum.Retried = len(retries)
			if ledgerUp {
				if err := r.Ledger.Record(ctx, outgoing); err != nil {
					// Sent but not remembered: the next run may repeat them.
					sum.Result = recorder.ResultLedgerError
					runErr = err
				}
			}
		}
	}
	audit.Events = events(candidates, fresh, outcome)
	for _, a := range retries {
		audit.Events = append(audit.Events, recorder.AlertEvent{Alert: a, Outcome: outcome})
	}
	for _, e := range audit.Events {
		logger.AlertsTotal.WithLabelValues(string(e.Alert.RuleID), e.Outcome).Inc()
	}

	if ledgerUp {
		if err := r.Ledger.Observe(ctx, r.Symbol, snap); err != nil {
			logger.Warn("Failed to store MA relationship", logger.ErrorField(err))
		}
	}
	return runErr
}

// events labels each candidate: the ones in fresh get outcome, the rest were
// suppressed. A nil fresh with an empty outcome means nothing was decided.
func events(candidates, fresh []model.TriggeredAlert, outcome string) []recorder.AlertEvent {
	sent := make(map[string]bool, len(fresh))
	for _, f := range fresh {
		sent[model.KeyFor(f).String()] = true
	}
	out := make([]recorder.AlertEvent, 0, len(candidates))
	for _, c := range candidates {
		o := logger.OutcomeSuppressed
		switch {
		case outcome == "":
			o = logger.OutcomeTriggered
		case sent[model.KeyFor(c).String()]:
			o = outcome
		}
		out = append(out, recorder.AlertEvent{Alert: c, Outcome: o})
	}
	return out
}

// delayed copies alerts from earlier days with their trading day in the title.
func delayed(alerts []model.TriggeredAlert) []model.TriggeredAlert {
	out := make([]model.TriggeredAlert, len(alerts))
	for i, a := range alerts {
		a.Title = fmt.Sprintf("%s (delayed from %s)", a.Title, model.DayKey(a.AsOfDate))
		out[i] = a
	}
	return out
}

func ruleIDs(rules []strategy.Rule) []model.RuleID {
	out := make([]model.RuleID, len(rules))
	for i, rule := range rules {
		out[i] = rule.ID
	}
	return out
}

func ruleNames(ids []model.RuleID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
