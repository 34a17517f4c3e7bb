package calculator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSentinel/internal/model"
)

func TestCalculate52WeekRange_UsesTrailingWindow(t *testing.T) {
	closes := constant(300, 100)
	closes[10] = 500 // outside the trailing 252 window
	closes[5] = 1    // outside too
	closes[100] = 150
	closes[299] = 90

	high, low, err := Calculate52WeekRange(closes)
	require.NoError(t, err)
	assert.Equal(t, 150.0, high)
	assert.Equal(t, 90.0, low)
}

func TestCalculate52WeekRange_ShortSeriesUsesAll(t *testing.T) {
	high, low, err := Calculate52WeekRange([]float64{3, 7, 5})
	require.NoError(t, err)
	assert.Equal(t, 7.0, high)
	assert.Equal(t, 3.0, low)

	_, _, err = Calculate52WeekRange(nil)
	assert.True(t, errors.Is(err, model.ErrInsufficientHistory))
}

func TestCalculate52WeekPosition(t *testing.T) {
	assert.Equal(t, 0.5, Calculate52WeekPosition(10, 10, 10))
	assert.InDelta(t, 0.25, Calculate52WeekPosition(125, 200, 100), 1e-9)
	assert.Equal(t, 1.0, Calculate52WeekPosition(250, 200, 100))
	assert.Equal(t, 0.0, Calculate52WeekPosition(50, 200, 100))
}
