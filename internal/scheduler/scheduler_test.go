package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
)

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(context.Background(), newFixture(spikeDay()).runner, time.Second, time.UTC)
	require.NoError(t, s.Register(DefaultSchedule))
	assert.Len(t, s.Cron.Entries(), 1)

	assert.Error(t, s.Register("every day at noon"))
}

func TestScheduler_RunNowAppliesTimeout(t *testing.T) {
	f := newFixture(spikeDay())
	s := NewScheduler(context.Background(), f.runner, time.Minute, time.UTC)

	sum, err := s.RunNow()
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Dispatched)
}

func TestScheduler_HandleCommand(t *testing.T) {
	f := newFixture(spikeDay())
	s := NewScheduler(context.Background(), f.runner, time.Minute, time.UTC)
	ctx := context.Background()

	assert.Equal(t, "No run yet.", s.HandleCommand(ctx, "/status"))

	reply := s.HandleCommand(ctx, "/check")
	assert.Contains(t, reply, "<b>WMT</b>")
	assert.Contains(t, reply, "Trading day: 2025-03-14")
	assert.Contains(t, reply, "Triggered 4 | suppressed 0 | sent 4")

	reply = s.HandleCommand(ctx, "/STATUS please")
	assert.Contains(t, reply, "Triggered 4")

	assert.Contains(t, s.HandleCommand(ctx, "/thresholds"), "RSI ≤30 or ≥70")
	assert.Contains(t, s.HandleCommand(ctx, "hello"), "/check")
	assert.Contains(t, s.HandleCommand(ctx, ""), "/check")
	assert.Contains(t, s.HandleCommand(ctx, "   "), "/check")
	assert.Contains(t, s.HandleCommand(ctx, "\n\t"), "/check")
}

// gateDispatcher holds a dispatch open until release is closed.
type gateDispatcher struct {
	recordingDispatcher
	entered chan struct{}
	release chan struct{}
}

func (d *gateDispatcher) Dispatch(ctx context.Context, b *notifier.Batch) error {
	d.entered <- struct{}{}
	<-d.release
	return d.recordingDispatcher.Dispatch(ctx, b)
}

func TestScheduler_OverlappingRunsAreSkipped(t *testing.T) {
	f := newFixture(spikeDay())
	gate := &gateDispatcher{entered: make(chan struct{}, 1), release: make(chan struct{})}
	f.runner.Dispatcher = gate
	s := NewScheduler(context.Background(), f.runner, time.Minute, time.UTC)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := s.RunNow()
		done <- err
	}()
	<-gate.entered

	// The scheduled run is mid-dispatch: every other trigger backs off.
	sum, err := s.RunNow()
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Nil(t, sum)
	assert.Contains(t, s.HandleCommand(ctx, "/check"), "already in progress")
	s.evaluate()

	close(gate.release)
	require.NoError(t, <-done)
	require.Len(t, gate.batches, 1)
	assert.Len(t, gate.batches[0].Alerts, 4)

	// The lock is released once the run finishes.
	sum, err = s.RunNow()
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Suppressed)
	assert.Len(t, gate.batches, 1)
}

func TestFormatSummary_Error(t *testing.T) {
	sum := &RunSummary{
		Symbol:  "WMT",
		Result:  "data_unavailable",
		Err:     errors.Join(model.ErrDataUnavailable, errors.New("status <503>")),
		Pending: 2,
	}
	out := FormatSummary(sum)
	assert.Contains(t, out, "Result: data_unavailable")
	assert.Contains(t, out, "pending 2")
	assert.Contains(t, out, "status &lt;503&gt;")
	assert.NotContains(t, out, "Trading day")
}
