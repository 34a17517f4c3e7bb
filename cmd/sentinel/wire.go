package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"StockSentinel/internal/collector"
	"StockSentinel/internal/config"
	"StockSentinel/internal/ledger"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/scheduler"
	"StockSentinel/pkg/logger"
)

// app holds the wired components and everything that must be closed.
type app struct {
	runner   *scheduler.Runner
	telegram *notifier.TelegramNotifier
	closers  []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logger.Warn("Close failed", logger.ErrorField(err))
		}
	}
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	fetcher, err := buildFetcher(cfg, loc)
	if err != nil {
		return nil, err
	}
	if c, isCloser := fetcher.(io.Closer); isCloser {
		a.closers = append(a.closers, c)
	}
	logger.Info("Data source ready", logger.String("provider", fetcher.Name()))

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store)
	logger.Info("Alert ledger ready", logger.String("backend", cfg.Ledger.Backend))

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logger.Warn("Init sqlite recorder failed, using noop", logger.ErrorField(err))
		} else {
			rec = sr
			a.closers = append(a.closers, sr)
		}
	}

	a.runner = scheduler.NewRunner(cfg.Symbol,
		collector.NewCollector(fetcher, cfg.Symbol, cfg.DataSource.Lookback),
		cfg.RuleSet(), cfg.StrategyThresholds(),
		ledger.New(store, cfg.LedgerOptions()),
		a.buildDispatcher(cfg), rec,
		scheduler.LedgerPolicy(cfg.Ledger.OnUnavailable))

	ok = true
	return a, nil
}

func buildFetcher(cfg *config.Config, loc *time.Location) (collector.Fetcher, error) {
	switch cfg.DataSource.Provider {
	case "warehouse":
		return collector.NewWarehouseFetcher(cfg.Database.SQLitePath)
	case "mock":
		return &collector.MockFetcher{Price: 100}, nil
	default:
		return collector.NewYahooFetcher(cfg.Proxy, loc), nil
	}
}

func buildStore(ctx context.Context, cfg *config.Config) (ledger.HistoryStore, error) {
	switch cfg.Ledger.Backend {
	case "memory":
		return ledger.NewMemoryStore(), nil
	case "file":
		return ledger.NewFileStore(cfg.Ledger.FilePath)
	case "redis":
		retention := time.Duration(cfg.Redis.RetentionDays) * 24 * time.Hour
		return ledger.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, retention)
	case "sqlite":
		return ledger.NewSQLiteStore(cfg.Database.SQLitePath)
	}
	return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
}

// buildDispatcher fans out to every configured channel. With none configured
// alerts go to the log only.
func (a *app) buildDispatcher(cfg *config.Config) notifier.Dispatcher {
	var channels []notifier.Dispatcher
	if cfg.TelegramEnabled() {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		channels = append(channels, a.telegram)
	}
	if cfg.EmailEnabled() {
		channels = append(channels, notifier.NewEmailNotifier(
			cfg.Email.SMTPServer, cfg.Email.SMTPPort, cfg.Email.Sender, cfg.Email.Password, cfg.Email.Recipients))
	}
	switch len(channels) {
	case 0:
		logger.Warn("No notification channel configured, alerts are only logged")
		return notifier.NewLogNotifier()
	case 1:
		return channels[0]
	}
	return notifier.NewMulti(channels...)
}
