package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"StockSentinel/internal/ledger"
	"StockSentinel/internal/model"
	"StockSentinel/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	Symbol      string `yaml:"symbol"`
	Timezone    string `yaml:"timezone"`
	Proxy       string `yaml:"proxy"`

	DataSource struct {
		Provider string `yaml:"provider"` // yahoo, warehouse or mock
		Lookback int    `yaml:"lookback"` // daily bars fetched per run
	} `yaml:"data_source"`

	Thresholds struct {
		PriceChange    float64 `yaml:"price_change"`
		VolumeSpike    float64 `yaml:"volume_spike"`
		RSIOversold    float64 `yaml:"rsi_oversold"`
		RSIOverbought  float64 `yaml:"rsi_overbought"`
		Week52HighBand float64 `yaml:"week52_high_band"`
		Week52LowBand  float64 `yaml:"week52_low_band"`
		Gap            float64 `yaml:"gap"`
	} `yaml:"thresholds"`

	Rules struct {
		Extended bool `yaml:"extended"`
	} `yaml:"rules"`

	Ledger struct {
		Backend       string `yaml:"backend"` // memory, file, sqlite or redis
		FilePath      string `yaml:"file_path"`
		OnUnavailable string `yaml:"on_unavailable"` // abort or proceed
		CooldownDays  int    `yaml:"cooldown_days"`
		RetryPending  bool   `yaml:"retry_pending"`
	} `yaml:"ledger"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`

	Redis struct {
		Addr          string `yaml:"addr"`
		Password      string `yaml:"password"`
		DB            int    `yaml:"db"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"redis"`

	Email struct {
		SMTPServer string   `yaml:"smtp_server"`
		SMTPPort   int      `yaml:"smtp_port"`
		Sender     string   `yaml:"sender"`
		Password   string   `yaml:"password"`
		Recipients []string `yaml:"recipients"`
	} `yaml:"email"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Commands bool   `yaml:"commands"` // answer /check, /status in serve mode
	} `yaml:"telegram"`

	Schedule struct {
		Cron       string        `yaml:"cron"`
		RunTimeout time.Duration `yaml:"run_timeout"`
		RunOnStart bool          `yaml:"run_on_start"`
	} `yaml:"schedule"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{
		Environment: "production",
		LogLevel:    "info",
		Symbol:      "WMT",
		Timezone:    "America/New_York",
	}
	cfg.DataSource.Provider = "yahoo"
	cfg.DataSource.Lookback = 400

	th := strategy.DefaultThresholds()
	cfg.Thresholds.PriceChange = th.PriceChangePct
	cfg.Thresholds.VolumeSpike = th.VolumeSpike
	cfg.Thresholds.RSIOversold = th.RSIOversold
	cfg.Thresholds.RSIOverbought = th.RSIOverbought
	cfg.Thresholds.Week52HighBand = th.Week52HighBand
	cfg.Thresholds.Week52LowBand = th.Week52LowBand
	cfg.Thresholds.Gap = th.GapPct

	cfg.Ledger.Backend = "sqlite"
	cfg.Ledger.FilePath = "data/alert_history.json"
	cfg.Ledger.OnUnavailable = "abort"
	cfg.Ledger.CooldownDays = 1
	cfg.Ledger.RetryPending = true

	cfg.Database.SQLitePath = "data/stock_sentinel.db"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.RetentionDays = 400
	cfg.Email.SMTPServer = "smtp.gmail.com"
	cfg.Email.SMTPPort = 587
	cfg.Telegram.Commands = true

	cfg.Schedule.Cron = "0 30 16 * * 1-5"
	cfg.Schedule.RunTimeout = 2 * time.Minute
	cfg.Metrics.Addr = ":9090"
	return cfg
}

// Load reads config from a YAML file over the defaults, loads a .env file
// from the working directory if present, then applies environment variable
// overrides. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from environment variables. Empty values are
// ignored.
func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	var errs []string
	num := func(key string, dst *float64) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, key)
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, key)
				return
			}
			*dst = n
		}
	}

	str("ENVIRONMENT", &c.Environment)
	str("LOG_LEVEL", &c.LogLevel)
	str("SYMBOL", &c.Symbol)
	str("TIMEZONE", &c.Timezone)
	str("HTTPS_PROXY", &c.Proxy)
	str("DATA_PROVIDER", &c.DataSource.Provider)

	num("PRICE_CHANGE_THRESHOLD", &c.Thresholds.PriceChange)
	num("VOLUME_SPIKE_THRESHOLD", &c.Thresholds.VolumeSpike)
	num("RSI_OVERSOLD", &c.Thresholds.RSIOversold)
	num("RSI_OVERBOUGHT", &c.Thresholds.RSIOverbought)
	num("WEEK52_HIGH_BAND", &c.Thresholds.Week52HighBand)
	num("WEEK52_LOW_BAND", &c.Thresholds.Week52LowBand)
	num("GAP_THRESHOLD", &c.Thresholds.Gap)

	str("LEDGER_BACKEND", &c.Ledger.Backend)
	str("LEDGER_ON_UNAVAILABLE", &c.Ledger.OnUnavailable)
	integer("COOLDOWN_DAYS", &c.Ledger.CooldownDays)
	str("SQLITE_PATH", &c.Database.SQLitePath)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)

	str("SMTP_SERVER", &c.Email.SMTPServer)
	integer("SMTP_PORT", &c.Email.SMTPPort)
	str("SENDER_EMAIL", &c.Email.Sender)
	str("SENDER_PASSWORD", &c.Email.Password)
	if v := os.Getenv("RECIPIENT_EMAILS"); strings.TrimSpace(v) != "" {
		c.Email.Recipients = splitList(v)
	}

	str("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	str("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	str("CRON_SCHEDULE", &c.Schedule.Cron)
	str("METRICS_ADDR", &c.Metrics.Addr)
	if v := strings.TrimSpace(os.Getenv("RUN_ON_START")); v != "" {
		c.Schedule.RunOnStart = v == "true" || v == "1"
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: not a number: %s", model.ErrInvalidConfig, strings.Join(errs, ", "))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{model.ErrInvalidConfig}, args...)...)
	}

	if strings.TrimSpace(c.Symbol) == "" {
		return invalid("symbol is required")
	}
	if _, err := c.Location(); err != nil {
		return invalid("timezone %q: %v", c.Timezone, err)
	}
	if err := c.StrategyThresholds().Validate(); err != nil {
		return err
	}
	switch c.DataSource.Provider {
	case "yahoo", "warehouse", "mock":
	default:
		return invalid("data_source.provider %q must be yahoo, warehouse or mock", c.DataSource.Provider)
	}
	if c.DataSource.Lookback < 2 {
		return invalid("data_source.lookback must be at least 2")
	}
	switch c.Ledger.Backend {
	case "memory", "file", "sqlite", "redis":
	default:
		return invalid("ledger.backend %q must be memory, file, sqlite or redis", c.Ledger.Backend)
	}
	if c.Ledger.OnUnavailable != "abort" && c.Ledger.OnUnavailable != "proceed" {
		return invalid("ledger.on_unavailable %q must be abort or proceed", c.Ledger.OnUnavailable)
	}
	if c.Ledger.CooldownDays < 1 {
		return invalid("ledger.cooldown_days must be at least 1")
	}
	if c.Ledger.Backend == "sqlite" && c.Database.SQLitePath == "" {
		return invalid("database.sqlite_path is required for the sqlite ledger")
	}
	if c.DataSource.Provider == "warehouse" && c.Database.SQLitePath == "" {
		return invalid("database.sqlite_path is required for the warehouse data source")
	}
	if c.EmailEnabled() && (c.Email.Password == "" || len(c.Email.Recipients) == 0) {
		return invalid("email needs sender, password and recipients")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return invalid("telegram needs both bot_token and chat_id")
	}
	if _, err := cronParser.Parse(c.Schedule.Cron); err != nil {
		return invalid("schedule.cron %q: %v", c.Schedule.Cron, err)
	}
	if c.Schedule.RunTimeout <= 0 {
		return invalid("schedule.run_timeout must be positive")
	}
	return nil
}

// Location returns the market time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// StrategyThresholds maps the configured thresholds to the rule engine's.
func (c *Config) StrategyThresholds() strategy.Thresholds {
	return strategy.Thresholds{
		PriceChangePct: c.Thresholds.PriceChange,
		VolumeSpike:    c.Thresholds.VolumeSpike,
		RSIOversold:    c.Thresholds.RSIOversold,
		RSIOverbought:  c.Thresholds.RSIOverbought,
		Week52HighBand: c.Thresholds.Week52HighBand,
		Week52LowBand:  c.Thresholds.Week52LowBand,
		GapPct:         c.Thresholds.Gap,
	}
}

// RuleSet returns the rule table to evaluate.
func (c *Config) RuleSet() []strategy.Rule {
	if c.Rules.Extended {
		return strategy.ExtendedRules()
	}
	return strategy.DefaultRules()
}

// LedgerOptions maps the ledger settings.
func (c *Config) LedgerOptions() ledger.Options {
	opts := ledger.DefaultOptions()
	opts.CooldownDays = c.Ledger.CooldownDays
	opts.RetryPending = c.Ledger.RetryPending
	return opts
}

// EmailEnabled reports whether the email channel is configured.
func (c *Config) EmailEnabled() bool {
	return c.Email.Sender != ""
}

// TelegramEnabled reports whether the Telegram channel is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
