package model

import "errors"

var (
	// ErrInsufficientHistory means the series is too short for an indicator.
	// Rules depending on it are skipped; the run continues.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrDataUnavailable means the market data fetch failed. The run aborts
	// before anything is written.
	ErrDataUnavailable = errors.New("market data unavailable")
	// ErrLedgerUnavailable means the alert history store could not be reached.
	ErrLedgerUnavailable = errors.New("alert ledger unavailable")
	// ErrDispatchFailure means the notification batch could not be sent.
	// The alerts stay recorded as pending.
	ErrDispatchFailure = errors.New("alert dispatch failed")
	ErrInvalidSeries   = errors.New("invalid price series")
	ErrInvalidConfig   = errors.New("invalid configuration")
)
