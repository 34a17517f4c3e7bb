package notifier

import (
	"context"
	"errors"
	"fmt"

	"StockSentinel/internal/model"
	"StockSentinel/internal/strategy"
	"StockSentinel/pkg/logger"
)

// Batch is everything one run hands to the notification channels.
type Batch struct {
	Symbol     string
	Alerts     []model.TriggeredAlert
	Snapshot   *model.IndicatorSnapshot
	Thresholds strategy.Thresholds
}

// Dispatcher delivers a batch of alerts. A nil error means the whole batch
// was accepted by the channel.
type Dispatcher interface {
	Name() string
	Dispatch(ctx context.Context, batch *Batch) error
}

// Multi fans a batch out to several channels. It succeeds when at least one
// channel delivered; per-channel failures are logged.
type Multi struct {
	dispatchers []Dispatcher
}

// NewMulti creates a fan-out dispatcher.
func NewMulti(dispatchers ...Dispatcher) *Multi {
	return &Multi{dispatchers: dispatchers}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Dispatch(ctx context.Context, batch *Batch) error {
	if len(m.dispatchers) == 0 {
		return errors.New("no notification channels configured")
	}
	var (
		errs      []error
		delivered int
	)
	for _, d := range m.dispatchers {
		if err := d.Dispatch(ctx, batch); err != nil {
			logger.Error("Notification channel failed",
				logger.String("channel", d.Name()),
				logger.Int("alerts", len(batch.Alerts)),
				logger.ErrorField(err),
			)
			logger.ErrorsTotal.WithLabelValues("notifier", d.Name()).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", d.Name(), err))
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return errors.Join(errs...)
	}
	return nil
}

// LogNotifier writes alerts to the structured log. Used for dry runs and as
// a fallback channel.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (l *LogNotifier) Name() string { return "log" }

func (l *LogNotifier) Dispatch(_ context.Context, batch *Batch) error {
	for _, a := range batch.Alerts {
		logger.Info("ALERT",
			logger.String("symbol", a.Symbol),
			logger.String("rule", string(a.RuleID)),
			logger.String("severity", string(a.Severity)),
			logger.String("day", model.DayKey(a.AsOfDate)),
			logger.String("title", a.Title),
			logger.String("message", a.Message),
		)
	}
	return nil
}
