package calculator

import (
	"fmt"

	"StockSentinel/internal/model"
	"StockSentinel/pkg/logger"
)

// Compute derives the indicator snapshot for the last bar of the series.
// Indicators the series is too short for are left invalid; only an empty
// series is an error.
func Compute(series *model.PriceSeries) (*model.IndicatorSnapshot, error) {
	last, ok := series.Last()
	if !ok {
		return nil, fmt.Errorf("%w: empty series for %s", model.ErrInsufficientHistory, series.Symbol)
	}

	closes := series.Closes()
	volumes := series.Volumes()

	snap := &model.IndicatorSnapshot{
		AsOf:   last.Date,
		Close:  last.Close,
		Open:   last.Open,
		Volume: last.Volume,
	}

	if n := len(closes); n >= 2 {
		snap.PrevClose = model.Known(closes[n-2])
	}
	if change, pct, err := PriceChange(closes); err != nil {
		degraded(series.Symbol, model.IndPriceChangePct, err)
	} else {
		snap.PriceChange = model.Known(change)
		snap.PriceChangePct = model.Known(pct)
	}

	if avg, err := AverageVolume(volumes, VolumeAvgPeriod); err != nil {
		degraded(series.Symbol, model.IndAvgVolume20d, err)
	} else {
		snap.AvgVolume20d = model.Known(avg)
	}

	if rsi, err := CalculateRSI(closes, RSIPeriod); err != nil {
		degraded(series.Symbol, model.IndRSI14, err)
	} else {
		snap.RSI14 = model.Known(rsi)
	}

	snap.MA50 = reading(series.Symbol, model.IndMA50)(CalculateMA50(series))
	snap.MA200 = reading(series.Symbol, model.IndMA200)(CalculateMA200(series))
	snap.PrevMA50 = reading(series.Symbol, model.IndPrevMA50)(PreviousSMA(closes, 50))
	snap.PrevMA200 = reading(series.Symbol, model.IndPrevMA200)(PreviousSMA(closes, 200))

	if high, low, err := Calculate52WeekRange(closes); err != nil {
		degraded(series.Symbol, model.IndWeek52High, err)
	} else {
		snap.Week52High = model.Known(high)
		snap.Week52Low = model.Known(low)
	}

	return snap, nil
}

func reading(symbol string, ind model.Indicator) func(float64, error) model.Reading {
	return func(v float64, err error) model.Reading {
		if err != nil {
			degraded(symbol, ind, err)
			return model.Reading{}
		}
		return model.Known(v)
	}
}

func degraded(symbol string, ind model.Indicator, err error) {
	logger.Debug("Indicator unavailable",
		logger.String("symbol", symbol),
		logger.String("indicator", string(ind)),
		logger.ErrorField(err),
	)
}
