package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Alert outcomes used as the "outcome" label of AlertsTotal.
const (
	OutcomeTriggered  = "triggered"
	OutcomeSuppressed = "suppressed"
	OutcomeDispatched = "dispatched"
	OutcomePending    = "pending"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_runs_total",
			Help: "Total number of evaluation runs by result",
		},
		[]string{"result"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentinel_run_duration_seconds",
			Help:    "Duration of evaluation runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_alerts_total",
			Help: "Alerts by rule and outcome",
		},
		[]string{"rule", "outcome"},
	)

	RulesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_rules_skipped_total",
			Help: "Rules skipped because an indicator was unavailable",
		},
		[]string{"rule"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)
