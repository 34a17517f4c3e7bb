package notifier

import (
	"context"
	"errors"
	"time"

	"StockSentinel/internal/model"
	"StockSentinel/internal/strategy"
)

var asOf = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func testBatch() *Batch {
	return &Batch{
		Symbol: "WMT",
		Alerts: []model.TriggeredAlert{
			{RuleID: model.RuleVolumeSpike, Severity: model.SeverityMedium, Symbol: "WMT", AsOfDate: asOf,
				Title: "Unusual Volume: 2.00x Average", Message: "Trading volume is 2.00x the 20-day average"},
			{RuleID: model.RulePriceMovement, Severity: model.SeverityHigh, Symbol: "WMT", AsOfDate: asOf,
				Title: "Large Price Movement: UP 2.50%", Message: "WMT is up $2.50 (+2.50%) to $102.50"},
		},
		Snapshot: &model.IndicatorSnapshot{
			AsOf:           asOf,
			Close:          102.5,
			Volume:         2000000,
			PriceChange:    model.Known(2.5),
			PriceChangePct: model.Known(2.5),
			AvgVolume20d:   model.Known(1000000),
			RSI14:          model.Known(61.234),
			MA50:           model.Known(98),
			Week52High:     model.Known(105),
			Week52Low:      model.Known(80),
		},
		Thresholds: strategy.DefaultThresholds(),
	}
}

type fakeDispatcher struct {
	name  string
	err   error
	calls int
}

func (f *fakeDispatcher) Name() string { return f.name }

func (f *fakeDispatcher) Dispatch(context.Context, *Batch) error {
	f.calls++
	return f.err
}

var errDown = errors.New("channel down")
