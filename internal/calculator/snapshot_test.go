package calculator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSentinel/internal/model"
)

func TestCompute_ConstantSeries(t *testing.T) {
	s := seriesFromCloses(constant(260, 75), 5000)

	snap, err := Compute(s)
	require.NoError(t, err)

	assert.Equal(t, s.Points[259].Date, snap.AsOf)
	assert.Equal(t, 75.0, snap.Close)
	assert.Equal(t, model.Known(0), snap.PriceChangePct)
	assert.Equal(t, model.Known(100), snap.RSI14)
	assert.Equal(t, model.Known(75), snap.MA50)
	assert.Equal(t, model.Known(75), snap.MA200)
	assert.Equal(t, model.Known(75), snap.PrevMA50)
	assert.Equal(t, model.Known(75), snap.PrevMA200)
	assert.Equal(t, model.Known(75), snap.Week52High)
	assert.Equal(t, model.Known(75), snap.Week52Low)
	assert.Equal(t, model.Known(5000), snap.AvgVolume20d)
	assert.InDelta(t, 1.0, snap.VolumeRatio(), 1e-9)
	assert.Equal(t, model.RelationEqual, snap.MARelationship())
}

func TestCompute_ShortSeriesDegrades(t *testing.T) {
	s := seriesFromCloses(constant(60, 20), 100)

	snap, err := Compute(s)
	require.NoError(t, err)

	assert.True(t, snap.PriceChangePct.Valid)
	assert.True(t, snap.RSI14.Valid)
	assert.True(t, snap.MA50.Valid)
	assert.True(t, snap.PrevMA50.Valid)
	assert.False(t, snap.MA200.Valid)
	assert.False(t, snap.PrevMA200.Valid)
	assert.True(t, snap.Week52High.Valid)
	assert.Equal(t, model.RelationUnknown, snap.MARelationship())
}

func TestCompute_SinglePoint(t *testing.T) {
	snap, err := Compute(seriesFromCloses([]float64{10}, 100))
	require.NoError(t, err)
	assert.False(t, snap.PriceChangePct.Valid)
	assert.False(t, snap.PrevClose.Valid)
	assert.False(t, snap.RSI14.Valid)
	assert.False(t, snap.AvgVolume20d.Valid)
	assert.True(t, snap.Week52High.Valid)
}

func TestCompute_EmptySeries(t *testing.T) {
	_, err := Compute(&model.PriceSeries{Symbol: "WMT"})
	assert.True(t, errors.Is(err, model.ErrInsufficientHistory))
}

func TestCompute_NoLookAhead(t *testing.T) {
	s := seriesFromCloses(constant(250, 10), 100)
	// A spike after the evaluation point must not leak into the snapshot.
	s.Points[245].Close = 1000
	s.Points[245].High = 1000

	prefix := &model.PriceSeries{Symbol: s.Symbol, Points: s.Points[:240]}
	snap, err := Compute(prefix)
	require.NoError(t, err)

	assert.Equal(t, s.Points[239].Date, snap.AsOf)
	assert.Equal(t, model.Known(10), snap.MA200)
	assert.Equal(t, model.Known(10), snap.Week52High)
}
