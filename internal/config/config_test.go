package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "trade-review/internal/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TRADE_REVIEW_SYMBOL", "TRADE_REVIEW_MARKET_DATA", "TRADE_REVIEW_TRADES",
		"DEFAULT_LOOKBACK_DAYS", "MAX_TRADES_PER_ANALYSIS", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_CreatesTemplate(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "cfg")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "config.toml"))
	assert.Equal(t, filepath.Join(dir, "config.toml"), cfg.Path)

	assert.Equal(t, 3, cfg.Analysis.NumLevels)
	assert.Equal(t, "compat", cfg.Analysis.FitMode)
	assert.Equal(t, 30, cfg.Analysis.LookbackDays)
	assert.Equal(t, 100, cfg.Analysis.MaxTrades)
	assert.Equal(t, FormatText, cfg.Report.Format)
	assert.Equal(t, "info", cfg.Logging.Level)

	// The template itself must load cleanly on the next run.
	again, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Analysis, again.Analysis)
	assert.Equal(t, cfg.Report, again.Report)
}

func TestLoad_ReadsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := `
[analysis]
num_levels = 5
fit_mode = "ols"
max_trades = 20

[data]
symbol = "MSFT"

[report]
format = "json"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Analysis.NumLevels)
	assert.Equal(t, "ols", cfg.Analysis.FitMode)
	assert.Equal(t, 20, cfg.Analysis.MaxTrades)
	assert.Equal(t, 30, cfg.Analysis.LookbackDays)
	assert.Equal(t, "MSFT", cfg.Data.Symbol)
	assert.Equal(t, FormatJSON, cfg.Report.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRADE_REVIEW_SYMBOL", "TSLA")
	t.Setenv("TRADE_REVIEW_MARKET_DATA", "/data/market.csv")
	t.Setenv("MAX_TRADES_PER_ANALYSIS", "7")
	t.Setenv("DEFAULT_LOOKBACK_DAYS", "14")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "TSLA", cfg.Data.Symbol)
	assert.Equal(t, "/data/market.csv", cfg.Data.MarketDataPath)
	assert.Equal(t, 7, cfg.Analysis.MaxTrades)
	assert.Equal(t, 14, cfg.Analysis.LookbackDays)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TRADE_REVIEW_TRADES=/data/trades.csv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("TRADE_REVIEW_TRADES") })
	// godotenv never overrides variables that are already set.
	os.Unsetenv("TRADE_REVIEW_TRADES")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/data/trades.csv", cfg.Data.TradesPath)
}

func TestLoad_BadEnvInteger(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_TRADES_PER_ANALYSIS", "lots")

	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
}

func TestLoad_InvalidFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[report]\nformat = \"pdf\"\n"), 0o644))

	_, err := Load(dir)
	assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
}

func TestRead_SkipsValidation(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[analysis]\nfit_mode = \"x\"\n"), 0o644))

	cfg, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, "x", cfg.Analysis.FitMode)
	assert.ErrorIs(t, cfg.Validate(), apperrors.ErrConfigInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero levels", func(c *Config) { c.Analysis.NumLevels = 0 }},
		{"unknown fit", func(c *Config) { c.Analysis.FitMode = "spline" }},
		{"zero lookback", func(c *Config) { c.Analysis.LookbackDays = 0 }},
		{"zero max trades", func(c *Config) { c.Analysis.MaxTrades = 0 }},
		{"negative workers", func(c *Config) { c.Analysis.Workers = -1 }},
		{"unknown format", func(c *Config) { c.Report.Format = "xml" }},
		{"unknown level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), apperrors.ErrConfigInvalid)
		})
	}
}

func TestLogConfig(t *testing.T) {
	cfg := Default()
	cfg.Logging.FilePath = ""
	lc := cfg.LogConfig()
	assert.NotEmpty(t, lc.FilePath)
	assert.Equal(t, cfg.Logging.Level, lc.Level)
}
