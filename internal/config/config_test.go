package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSentinel/internal/model"
	"StockSentinel/internal/strategy"
)

// clearEnv unsets every variable Load reads, restoring them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "LOG_LEVEL", "SYMBOL", "TIMEZONE", "HTTPS_PROXY", "DATA_PROVIDER",
		"PRICE_CHANGE_THRESHOLD", "VOLUME_SPIKE_THRESHOLD", "RSI_OVERSOLD", "RSI_OVERBOUGHT",
		"WEEK52_HIGH_BAND", "WEEK52_LOW_BAND", "GAP_THRESHOLD",
		"LEDGER_BACKEND", "LEDGER_ON_UNAVAILABLE", "COOLDOWN_DAYS", "SQLITE_PATH",
		"REDIS_ADDR", "REDIS_PASSWORD",
		"SMTP_SERVER", "SMTP_PORT", "SENDER_EMAIL", "SENDER_PASSWORD", "RECIPIENT_EMAILS",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "CRON_SCHEDULE", "METRICS_ADDR", "RUN_ON_START",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	// Keep a developer's .env out of the test.
	t.Chdir(t.TempDir())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "WMT", cfg.Symbol)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, strategy.DefaultThresholds(), cfg.StrategyThresholds())
	assert.Equal(t, "sqlite", cfg.Ledger.Backend)
	assert.Equal(t, "abort", cfg.Ledger.OnUnavailable)
	assert.Equal(t, 1, cfg.LedgerOptions().CooldownDays)
	assert.True(t, cfg.LedgerOptions().RetryPending)
	assert.Equal(t, "0 30 16 * * 1-5", cfg.Schedule.Cron)
	assert.Equal(t, 2*time.Minute, cfg.Schedule.RunTimeout)
	assert.Len(t, cfg.RuleSet(), len(strategy.DefaultRules()))
	assert.False(t, cfg.EmailEnabled())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
symbol: COST
thresholds:
  price_change: 3
  volume_spike: 2
rules:
  extended: true
ledger:
  backend: redis
  cooldown_days: 3
  retry_pending: false
schedule:
  cron: "0 0 17 * * 1-5"
  run_timeout: 45s
`)
	t.Setenv("PRICE_CHANGE_THRESHOLD", "2.5")
	t.Setenv("RECIPIENT_EMAILS", " a@example.com, ,b@example.com ")
	t.Setenv("RSI_OVERSOLD", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	th := cfg.StrategyThresholds()
	assert.Equal(t, "COST", cfg.Symbol)
	assert.Equal(t, 2.5, th.PriceChangePct, "env wins over yaml")
	assert.Equal(t, 2.0, th.VolumeSpike)
	assert.Equal(t, 30.0, th.RSIOversold, "empty env value is ignored")
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Email.Recipients)
	assert.Equal(t, "redis", cfg.Ledger.Backend)
	assert.Equal(t, 3, cfg.LedgerOptions().CooldownDays)
	assert.False(t, cfg.LedgerOptions().RetryPending)
	assert.Equal(t, 45*time.Second, cfg.Schedule.RunTimeout)
	assert.Len(t, cfg.RuleSet(), len(strategy.ExtendedRules()))
}

func TestLoad_DotEnv(t *testing.T) {
	// clearEnv also restores whatever godotenv sets.
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("SYMBOL=TGT\nTELEGRAM_BOT_TOKEN=123:abc\nTELEGRAM_CHAT_ID=42\n"), 0o644))

	cfg, err := Load("missing.yaml")
	require.NoError(t, err)
	assert.Equal(t, "TGT", cfg.Symbol)
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoad_BadNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("VOLUME_SPIKE_THRESHOLD", "lots")

	_, err := Load("missing.yaml")
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
	assert.ErrorContains(t, err, "VOLUME_SPIKE_THRESHOLD")
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "config.yaml", "thresholds: [1, 2"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty symbol", func(c *Config) { c.Symbol = " " }},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"oversold above overbought", func(c *Config) { c.Thresholds.RSIOversold = 80 }},
		{"negative price change", func(c *Config) { c.Thresholds.PriceChange = -1 }},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }},
		{"short lookback", func(c *Config) { c.DataSource.Lookback = 1 }},
		{"unknown ledger backend", func(c *Config) { c.Ledger.Backend = "etcd" }},
		{"unknown policy", func(c *Config) { c.Ledger.OnUnavailable = "retry" }},
		{"zero cooldown", func(c *Config) { c.Ledger.CooldownDays = 0 }},
		{"sqlite without path", func(c *Config) { c.Database.SQLitePath = "" }},
		{"email without recipients", func(c *Config) { c.Email.Sender = "bot@example.com"; c.Email.Password = "x" }},
		{"telegram token only", func(c *Config) { c.Telegram.BotToken = "123:abc" }},
		{"bad cron", func(c *Config) { c.Schedule.Cron = "30 16 * * 1-5" }},
		{"zero timeout", func(c *Config) { c.Schedule.RunTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), model.ErrInvalidConfig)
		})
	}

	assert.NoError(t, Default().Validate())
}
