package collector

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSentinel/internal/model"
	"StockSentinel/internal/recorder"
)

var endDay = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func TestCollector_Collect(t *testing.T) {
	m := &MockFetcher{Price: 100, EndDay: endDay}
	c := NewCollector(m, "WMT", 0)
	assert.Equal(t, DefaultLookback, c.Lookback)

	series, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "WMT", series.Symbol)
	assert.Equal(t, DefaultLookback, series.Len())
	last, _ := series.Last()
	assert.Equal(t, endDay, last.Date)
	assert.NoError(t, series.Validate())
}

func TestCollector_FetchErrorIsDataUnavailable(t *testing.T) {
	c := NewCollector(&MockFetcher{Err: errors.New("dial tcp: timeout")}, "WMT", 30)
	_, err := c.Collect(context.Background())
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "dial tcp")
}

func TestCollector_EmptyAndInvalid(t *testing.T) {
	c := NewCollector(&MockFetcher{Bars: []model.PricePoint{}}, "WMT", 30)
	_, err := c.Collect(context.Background())
	assert.ErrorIs(t, err, model.ErrDataUnavailable)

	dup := []model.PricePoint{
		{Date: endDay, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
		{Date: endDay, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
	}
	c = NewCollector(&MockFetcher{Bars: dup}, "WMT", 30)
	_, err = c.Collect(context.Background())
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}

func TestWarehouseFetcher_ReadsRecordedPrices(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "warehouse.db")

	rec, err := recorder.NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer rec.Close()

	src := &model.PriceSeries{Symbol: "WMT", Points: generateMockBars(100, 30, endDay)}
	require.NoError(t, rec.RecordPrices(ctx, src))

	w, err := NewWarehouseFetcher(path)
	require.NoError(t, err)
	defer w.Close()

	series, err := NewCollector(w, "WMT", 10).Collect(ctx)
	require.NoError(t, err)
	require.Equal(t, 10, series.Len())
	last, _ := series.Last()
	assert.Equal(t, "2025-03-14", model.DayKey(last.Date))
	assert.InDelta(t, src.Points[29].Close, last.Close, 1e-9)

	_, err = NewCollector(w, "TGT", 10).Collect(ctx)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}
