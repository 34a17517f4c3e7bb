package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"StockSentinel/internal/config"
	"StockSentinel/internal/scheduler"
	"StockSentinel/pkg/logger"
)

func newRunCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one evaluation and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := *cfg
			ctx, cancel := context.WithTimeout(cmd.Context(), c.Schedule.RunTimeout)
			defer cancel()

			a, err := buildApp(ctx, c)
			if err != nil {
				logger.Error("Startup failed", logger.ErrorField(err))
				return err
			}
			defer a.Close()

			sum, err := a.runner.Run(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s (triggered %d, suppressed %d, sent %d, pending %d)\n",
				sum.Symbol, sum.StartedAt.Format(time.DateOnly), sum.Result,
				sum.Triggered, sum.Suppressed, sum.Dispatched, sum.Pending)
			return err
		},
	}
}

func newServeCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Evaluate on the cron schedule and expose metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := *cfg
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, c)
			if err != nil {
				logger.Error("Startup failed", logger.ErrorField(err))
				return err
			}
			defer a.Close()

			loc, _ := c.Location()
			sched := scheduler.NewScheduler(ctx, a.runner, c.Schedule.RunTimeout, loc)
			if err := sched.Register(c.Schedule.Cron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			srv := startMetrics(c.Metrics.Addr)

			if a.telegram != nil && c.Telegram.Commands {
				go a.telegram.StartPolling(ctx, sched.HandleCommand)
				logger.Info("Telegram polling started")
			}

			if c.Schedule.RunOnStart {
				logger.Info("RUN_ON_START enabled, evaluating now")
				go func() { _, _ = sched.RunNow() }()
			}

			logger.Info("StockSentinel is running",
				logger.String("symbol", c.Symbol),
				logger.String("schedule", c.Schedule.Cron),
				logger.String("timezone", c.Timezone),
			)
			<-ctx.Done()
			logger.Info("Shutdown signal received, stopping")

			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}
			return nil
		},
	}
}

func startMetrics(addr string) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", logger.ErrorField(err))
		}
	}()
	logger.Info("Metrics server listening", logger.String("addr", addr))
	return srv
}

func newValidateCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and print the effective thresholds",
		Run: func(cmd *cobra.Command, _ []string) {
			c := *cfg
			th := c.StrategyThresholds()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "symbol:            %s\n", c.Symbol)
			fmt.Fprintf(out, "data source:       %s (%d bars)\n", c.DataSource.Provider, c.DataSource.Lookback)
			fmt.Fprintf(out, "price change:      %.2f%%\n", th.PriceChangePct)
			fmt.Fprintf(out, "volume spike:      %.2fx\n", th.VolumeSpike)
			fmt.Fprintf(out, "rsi:               <=%.0f / >=%.0f\n", th.RSIOversold, th.RSIOverbought)
			fmt.Fprintf(out, "52w bands:         high %.1f%% / low %.1f%%\n", th.Week52HighBand, th.Week52LowBand)
			fmt.Fprintf(out, "rules:             %d\n", len(c.RuleSet()))
			fmt.Fprintf(out, "ledger:            %s (on unavailable: %s)\n", c.Ledger.Backend, c.Ledger.OnUnavailable)
			fmt.Fprintf(out, "schedule:          %s %s\n", c.Schedule.Cron, c.Timezone)
			fmt.Fprintf(out, "telegram:          %t\n", c.TelegramEnabled())
			fmt.Fprintf(out, "email:             %t\n", c.EmailEnabled())
		},
	}
}
