package recorder

import (
	"context"

	"StockSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(context.Context, *RunRecord) error            { return nil }
func (n *NoopRecorder) RecordPrices(context.Context, *model.PriceSeries) error { return nil }
func (n *NoopRecorder) Close() error                                           { return nil }
