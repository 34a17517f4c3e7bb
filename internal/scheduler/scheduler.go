package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"StockSentinel/internal/model"
	"StockSentinel/pkg/logger"
)

// DefaultSchedule runs after the US close on weekdays (seconds field first).
const DefaultSchedule = "0 30 16 * * 1-5"

// ErrRunInProgress is returned by RunNow while another run is active.
var ErrRunInProgress = errors.New("evaluation run already in progress")

// Scheduler triggers evaluation runs on a cron schedule and on demand. At
// most one run is in flight whatever triggered it.
type Scheduler struct {
	Cron    *cron.Cron
	Runner  *Runner
	Timeout time.Duration
	Ctx     context.Context

	running sync.Mutex
}

// NewScheduler creates a scheduler whose schedule is interpreted in loc.
func NewScheduler(ctx context.Context, runner *Runner, timeout time.Duration, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{l: logger.Get().WithOptions(zap.AddCallerSkip(1))}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Runner:  runner,
		Timeout: timeout,
		Ctx:     ctx,
	}
}

// Register adds the evaluation job.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.evaluate); err != nil {
		return fmt.Errorf("register evaluation task %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Info("Scheduler started", logger.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.Info("Scheduler stopped")
}

// RunNow executes one evaluation immediately (cron tick, RUN_ON_START,
// /check). It returns ErrRunInProgress without running when another
// evaluation has not finished.
func (s *Scheduler) RunNow() (*RunSummary, error) {
	if !s.running.TryLock() {
		logger.Warn("Evaluation skipped, previous run still active")
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()

	ctx := s.Ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	return s.Runner.Run(ctx)
}

func (s *Scheduler) evaluate() {
	// Errors are logged and counted by the runner.
	_, _ = s.RunNow()
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch strings.ToLower(fields[0]) {
	case "/check":
		sum, err := s.RunNow()
		if errors.Is(err, ErrRunInProgress) {
			return "A run is already in progress, try /status in a moment."
		}
		return FormatSummary(sum)
	case "/status":
		if last := s.Runner.Last(); last != nil {
			return FormatSummary(last)
		}
		return "No run yet."
	case "/thresholds":
		th := s.Runner.Thresholds
		return fmt.Sprintf("Price change ≥%.2f%%\nVolume ≥%.2fx avg\nRSI ≤%.0f or ≥%.0f\n52w high band %.1f%% | low band %.1f%%",
			th.PriceChangePct, th.VolumeSpike, th.RSIOversold, th.RSIOverbought, th.Week52HighBand, th.Week52LowBand)
	default:
		return helpText
	}
}

const helpText = "Commands:\n• /check run an evaluation now\n• /status last run\n• /thresholds alert thresholds"

// FormatSummary renders a run summary for chat replies.
func FormatSummary(sum *RunSummary) string {
	if sum == nil {
		return "No run yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> run %s\n", sum.Symbol, sum.StartedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Result: %s\n", sum.Result)
	if !sum.AsOf.IsZero() {
		fmt.Fprintf(&b, "Trading day: %s\n", model.DayKey(sum.AsOf))
	}
	fmt.Fprintf(&b, "Triggered %d | suppressed %d | sent %d", sum.Triggered, sum.Suppressed, sum.Dispatched)
	if sum.Retried > 0 {
		fmt.Fprintf(&b, " | delayed %d", sum.Retried)
	}
	if sum.Pending > 0 {
		fmt.Fprintf(&b, " | pending %d", sum.Pending)
	}
	if sum.Err != nil {
		fmt.Fprintf(&b, "\nError: %s", html.EscapeString(sum.Err.Error()))
	}
	return b.String()
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
