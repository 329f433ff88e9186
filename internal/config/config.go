// Package config handles configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"trade-review/internal/analysis/indicators"
	apperrors "trade-review/internal/errors"
	"trade-review/internal/logging"
)

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config represents the application configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis" json:"analysis" yaml:"analysis"`
	Data     DataConfig     `mapstructure:"data" json:"data" yaml:"data"`
	Report   ReportConfig   `mapstructure:"report" json:"report" yaml:"report"`
	Logging  LoggingConfig  `mapstructure:"logging" json:"logging" yaml:"logging"`

	// Path is the config file that was read, or the template written in its place.
	Path string `mapstructure:"-" json:"-" yaml:"-"`
}

// AnalysisConfig tunes the market analysis and evaluation pipeline.
type AnalysisConfig struct {
	NumLevels    int    `mapstructure:"num_levels" json:"num_levels" yaml:"num_levels"`
	FitMode      string `mapstructure:"fit_mode" json:"fit_mode" yaml:"fit_mode"` // compat, ols
	LookbackDays int    `mapstructure:"lookback_days" json:"lookback_days" yaml:"lookback_days"`
	MaxTrades    int    `mapstructure:"max_trades" json:"max_trades" yaml:"max_trades"`
	Workers      int    `mapstructure:"workers" json:"workers" yaml:"workers"` // 0 = one per CPU
}

// DataConfig holds default input locations.
type DataConfig struct {
	MarketDataPath string `mapstructure:"market_data_path" json:"market_data_path" yaml:"market_data_path"`
	TradesPath     string `mapstructure:"trades_path" json:"trades_path" yaml:"trades_path"`
	Symbol         string `mapstructure:"symbol" json:"symbol" yaml:"symbol"`
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	Format string `mapstructure:"format" json:"format" yaml:"format"` // text, json, yaml
	Color  bool   `mapstructure:"color" json:"color" yaml:"color"`
}

// LoggingConfig mirrors logging.LogConfig in file form.
type LoggingConfig struct {
	Level      string `mapstructure:"level" json:"level" yaml:"level"`
	Console    bool   `mapstructure:"console" json:"console" yaml:"console"`
	File       bool   `mapstructure:"file" json:"file" yaml:"file"`
	FilePath   string `mapstructure:"file_path" json:"file_path" yaml:"file_path"`
	MaxSize    int    `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" json:"max_age" yaml:"max_age"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/trade-review"
	}
	return filepath.Join(home, ".config", "trade-review")
}

// Load reads the configuration with Read and validates it.
func Load(configDir string) (*Config, error) {
	cfg, err := Read(configDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Read reads config.toml from configDir, applying defaults, .env files and
// environment overrides, without validating the result. A missing config file
// is replaced by a commented template and the defaults are used.
func Read(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	if err := loadDotEnv(configDir); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{}
	path, err := loadConfigFile(configDir, "config", cfg)
	if err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}
	cfg.Path = path

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading any files.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	def := logging.DefaultLogConfig()

	v.SetDefault("analysis.num_levels", indicators.DefaultNumLevels)
	v.SetDefault("analysis.fit_mode", string(indicators.FitCompat))
	v.SetDefault("analysis.lookback_days", 30)
	v.SetDefault("analysis.max_trades", 100)
	v.SetDefault("analysis.workers", 0)

	v.SetDefault("data.market_data_path", "")
	v.SetDefault("data.trades_path", "")
	v.SetDefault("data.symbol", "")

	v.SetDefault("report.format", FormatText)
	v.SetDefault("report.color", true)

	v.SetDefault("logging.level", def.Level)
	v.SetDefault("logging.console", def.Console)
	v.SetDefault("logging.file", def.File)
	v.SetDefault("logging.file_path", def.FilePath)
	v.SetDefault("logging.max_size", def.MaxSize)
	v.SetDefault("logging.max_backups", def.MaxBackups)
	v.SetDefault("logging.max_age", def.MaxAge)
}

func loadConfigFile(configDir, name string, target interface{}) (string, error) {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	path := filepath.Join(configDir, name+".toml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return "", err
		}
		if err := createTemplateConfig(path); err != nil {
			return "", err
		}
	} else {
		path = v.ConfigFileUsed()
	}

	return path, v.Unmarshal(target)
}

// loadDotEnv loads .env from the working directory and the config directory.
// Variables already set in the environment win.
func loadDotEnv(configDir string) error {
	for _, path := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("TRADE_REVIEW_SYMBOL"); v != "" {
		cfg.Data.Symbol = v
	}
	if v := os.Getenv("TRADE_REVIEW_MARKET_DATA"); v != "" {
		cfg.Data.MarketDataPath = v
	}
	if v := os.Getenv("TRADE_REVIEW_TRADES"); v != "" {
		cfg.Data.TradesPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	for _, o := range []struct {
		env string
		dst *int
	}{
		{"DEFAULT_LOOKBACK_DAYS", &cfg.Analysis.LookbackDays},
		{"MAX_TRADES_PER_ANALYSIS", &cfg.Analysis.MaxTrades},
	} {
		v := os.Getenv(o.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", apperrors.ErrConfigInvalid, o.env, v)
		}
		*o.dst = n
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Analysis.NumLevels < 1 {
		return fmt.Errorf("%w: num_levels must be at least 1", apperrors.ErrConfigInvalid)
	}
	if !indicators.FitMode(c.Analysis.FitMode).Valid() {
		return fmt.Errorf("%w: invalid fit_mode: %s (must be 'compat' or 'ols')", apperrors.ErrConfigInvalid, c.Analysis.FitMode)
	}
	if c.Analysis.LookbackDays < 1 {
		return fmt.Errorf("%w: lookback_days must be positive", apperrors.ErrConfigInvalid)
	}
	if c.Analysis.MaxTrades < 1 {
		return fmt.Errorf("%w: max_trades must be positive", apperrors.ErrConfigInvalid)
	}
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative", apperrors.ErrConfigInvalid)
	}

	switch c.Report.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: invalid report format: %s (must be 'text', 'json' or 'yaml')", apperrors.ErrConfigInvalid, c.Report.Format)
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: invalid log level: %s", apperrors.ErrConfigInvalid, c.Logging.Level)
	}

	return nil
}

// LogConfig converts the logging section for logging.NewLoggerWithConfig.
// An empty file path falls back to the default log location.
func (c *Config) LogConfig() logging.LogConfig {
	path := c.Logging.FilePath
	if path == "" {
		path = logging.DefaultLogConfig().FilePath
	}
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   path,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}
