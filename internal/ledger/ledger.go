package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"StockSentinel/internal/model"
	"StockSentinel/pkg/logger"
)

// Options tunes how aggressively the ledger suppresses repeats.
type Options struct {
	// CooldownDays is how many calendar days, counting the alert's own day,
	// a dispatched alert blocks the same (symbol, rule). 1 means same day only.
	CooldownDays int
	// RetryPending lets alerts whose earlier dispatch failed through again.
	RetryPending bool
	// PendingRetryDays bounds how many earlier days Pending looks back for
	// alerts whose dispatch failed.
	PendingRetryDays int
	// CrossoverLookbackDays bounds how far back the last known MA50/MA200
	// relationship is searched.
	CrossoverLookbackDays int
}

// DefaultOptions returns per-calendar-day dedup with pending retries enabled.
func DefaultOptions() Options {
	return Options{
		CooldownDays:          1,
		RetryPending:          true,
		PendingRetryDays:      5,
		CrossoverLookbackDays: 400,
	}
}

// Ledger deduplicates triggered alerts against the persisted history.
type Ledger struct {
	store HistoryStore
	opts  Options
	now   func() time.Time
}

// New creates a Ledger over the given store.
func New(store HistoryStore, opts Options) *Ledger {
	if opts.CooldownDays < 1 {
		opts.CooldownDays = 1
	}
	if opts.PendingRetryDays < 1 {
		opts.PendingRetryDays = DefaultOptions().PendingRetryDays
	}
	if opts.CrossoverLookbackDays < 1 {
		opts.CrossoverLookbackDays = DefaultOptions().CrossoverLookbackDays
	}
	return &Ledger{store: store, opts: opts, now: time.Now}
}

// FilterNew drops candidates that already fired for their (symbol, rule, day),
// that are still inside the cooldown window, or that repeat the last recorded
// crossover relationship. It never writes to the store.
func (l *Ledger) FilterNew(ctx context.Context, candidates []model.TriggeredAlert) ([]model.TriggeredAlert, error) {
	fresh := make([]model.TriggeredAlert, 0, len(candidates))
	for _, c := range candidates {
		reason, err := l.suppressReason(ctx, c)
		if err != nil {
			return nil, unavailable("filter", err)
		}
		if reason != "" {
			logger.Debug("Alert suppressed",
				logger.String("key", model.KeyFor(c).String()),
				logger.String("reason", reason),
			)
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh, nil
}

func (l *Ledger) suppressReason(ctx context.Context, c model.TriggeredAlert) (string, error) {
	entry, found, err := l.store.Get(ctx, model.KeyFor(c))
	if err != nil {
		return "", err
	}
	if found {
		switch entry.Status {
		case model.StatusDispatched:
			return "already dispatched today", nil
		case model.StatusPending:
			if !l.opts.RetryPending {
				return "pending dispatch", nil
			}
		}
	}

	if l.opts.CooldownDays <= 1 && !c.RuleID.IsCrossover() {
		return "", nil
	}

	day := dayStart(c.AsOfDate)
	lookback := l.opts.CooldownDays - 1
	if c.RuleID.IsCrossover() && l.opts.CrossoverLookbackDays > lookback {
		lookback = l.opts.CrossoverLookbackDays
	}
	history, err := l.store.History(ctx, c.Symbol, c.RuleID, day.AddDate(0, 0, -lookback))
	if err != nil {
		return "", err
	}

	cooldownStart := model.DayKey(day.AddDate(0, 0, -(l.opts.CooldownDays - 1)))
	today := model.DayKey(day)
	var last model.Relationship
	for _, h := range history {
		hk := model.DayKey(h.Date)
		if hk >= today {
			continue
		}
		if h.Status == model.StatusDispatched && hk >= cooldownStart {
			return fmt.Sprintf("cooldown since %s", hk), nil
		}
		if h.Relationship != model.RelationUnknown {
			last = h.Relationship
		}
	}
	if c.RuleID.IsCrossover() && last != model.RelationUnknown && last == c.Relationship {
		return fmt.Sprintf("relationship still %s", last), nil
	}
	return "", nil
}

// Record marks the alerts as dispatched.
func (l *Ledger) Record(ctx context.Context, fired []model.TriggeredAlert) error {
	return l.put(ctx, fired, model.StatusDispatched)
}

// RecordPending marks the alerts as pending after a failed dispatch so they
// are not silently dropped.
func (l *Ledger) RecordPending(ctx context.Context, failed []model.TriggeredAlert) error {
	return l.put(ctx, failed, model.StatusPending)
}

func (l *Ledger) put(ctx context.Context, alerts []model.TriggeredAlert, status model.HistoryStatus) error {
	now := l.now()
	for _, a := range alerts {
		entry := model.AlertHistoryEntry{
			Symbol:       a.Symbol,
			RuleID:       a.RuleID,
			Date:         dayStart(a.AsOfDate),
			Status:       status,
			Relationship: a.Relationship,
			Severity:     a.Severity,
			Title:        a.Title,
			Message:      a.Message,
			RecordedAt:   now,
		}
		if err := l.store.Put(ctx, entry); err != nil {
			return unavailable("record", err)
		}
	}
	return nil
}

// Pending returns alerts for the given rules still marked pending on days
// before asOf, oldest first, so a later run can deliver them. It returns
// nothing when pending retries are disabled.
func (l *Ledger) Pending(ctx context.Context, symbol string, rules []model.RuleID, asOf time.Time) ([]model.TriggeredAlert, error) {
	if !l.opts.RetryPending {
		return nil, nil
	}
	day := dayStart(asOf)
	today := model.DayKey(day)
	var out []model.TriggeredAlert
	for _, id := range rules {
		history, err := l.store.History(ctx, symbol, id, day.AddDate(0, 0, -l.opts.PendingRetryDays))
		if err != nil {
			return nil, unavailable("pending", err)
		}
		for _, h := range history {
			if h.Status != model.StatusPending || model.DayKey(h.Date) >= today {
				continue
			}
			out = append(out, model.TriggeredAlert{
				RuleID:       h.RuleID,
				Severity:     h.Severity,
				Title:        h.Title,
				Message:      h.Message,
				Symbol:       h.Symbol,
				AsOfDate:     h.Date,
				Relationship: h.Relationship,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AsOfDate.Before(out[j].AsOfDate) })
	return out, nil
}

// Observe stores the current MA50/MA200 relationship for the crossover rules
// so later runs know which side the averages were on. Entries already
// written for the day are left alone.
func (l *Ledger) Observe(ctx context.Context, symbol string, snap *model.IndicatorSnapshot) error {
	rel := snap.MARelationship()
	if rel == model.RelationUnknown {
		return nil
	}
	for _, id := range []model.RuleID{model.RuleGoldenCross, model.RuleDeathCross} {
		key := model.HistoryKey{Symbol: symbol, RuleID: id, Date: dayStart(snap.AsOf)}
		exists, err := l.store.ExistsForDate(ctx, key)
		if err != nil {
			return unavailable("observe", err)
		}
		if exists {
			continue
		}
		if err := l.store.Put(ctx, model.AlertHistoryEntry{
			Symbol:       symbol,
			RuleID:       id,
			Date:         key.Date,
			Status:       model.StatusObserved,
			Relationship: rel,
			RecordedAt:   l.now(),
		}); err != nil {
			return unavailable("observe", err)
		}
	}
	return nil
}

func unavailable(op string, err error) error {
	logger.ErrorsTotal.WithLabelValues("ledger", op).Inc()
	return fmt.Errorf("%w: %s: %v", model.ErrLedgerUnavailable, op, err)
}
