package model

import "time"

// Severity ranks how urgent an alert is.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
)

// RuleID identifies a rule in the rule table.
type RuleID string

const (
	RulePriceMovement RuleID = "PriceMovement"
	RuleVolumeSpike   RuleID = "VolumeSpike"
	RuleRSIOversold   RuleID = "RsiOversold"
	RuleRSIOverbought RuleID = "RsiOverbought"
	RuleWeek52High    RuleID = "Week52High"
	RuleWeek52Low     RuleID = "Week52Low"
	RuleGoldenCross   RuleID = "GoldenCross"
	RuleDeathCross    RuleID = "DeathCross"

	// Opt-in rules.
	RuleBreakout RuleID = "Breakout"
	RuleGapUp    RuleID = "GapUp"
	RuleGapDown  RuleID = "GapDown"
)

// IsCrossover reports whether the rule tracks the MA50/MA200 relationship.
func (id RuleID) IsCrossover() bool {
	return id == RuleGoldenCross || id == RuleDeathCross
}

// TriggeredAlert is one rule that fired for a symbol on a trading day.
type TriggeredAlert struct {
	RuleID   RuleID
	Severity Severity
	Title    string
	Message  string
	Symbol   string
	AsOfDate time.Time
	// Relationship is the MA50/MA200 relationship at evaluation time; only
	// set for crossover rules.
	Relationship Relationship
}

// HistoryStatus is the lifecycle state of a ledger entry.
type HistoryStatus string

const (
	// StatusObserved entries only carry crossover state; nothing was sent.
	StatusObserved   HistoryStatus = "observed"
	StatusPending    HistoryStatus = "pending"
	StatusDispatched HistoryStatus = "dispatched"
)

// AlertHistoryEntry is the persisted record for one (symbol, rule, day).
type AlertHistoryEntry struct {
	Symbol       string        `json:"symbol"`
	RuleID       RuleID        `json:"rule_id"`
	Date         time.Time     `json:"date"`
	Status       HistoryStatus `json:"status"`
	Relationship Relationship  `json:"relationship,omitempty"`
	Severity     Severity      `json:"severity,omitempty"`
	Title        string        `json:"title,omitempty"`
	Message      string        `json:"message,omitempty"`
	RecordedAt   time.Time     `json:"recorded_at"`
}

// Key returns the dedup key of the entry.
func (e AlertHistoryEntry) Key() HistoryKey {
	return HistoryKey{Symbol: e.Symbol, RuleID: e.RuleID, Date: e.Date}
}

// HistoryKey is the dedup key (symbol, rule, calendar day).
type HistoryKey struct {
	Symbol string
	RuleID RuleID
	Date   time.Time
}

// KeyFor builds the dedup key of an alert.
func KeyFor(a TriggeredAlert) HistoryKey {
	return HistoryKey{Symbol: a.Symbol, RuleID: a.RuleID, Date: a.AsOfDate}
}

// String renders the key as symbol:rule:YYYY-MM-DD.
func (k HistoryKey) String() string {
	return k.Symbol + ":" + string(k.RuleID) + ":" + DayKey(k.Date)
}
