// Package config provides configuration management for the portfolio tracker.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Database      DatabaseConfig     `mapstructure:"database"`
	Quotes        QuotesConfig       `mapstructure:"quotes"`
	Schedule      ScheduleConfig     `mapstructure:"schedule"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Reports       ReportsConfig      `mapstructure:"reports"`
}

// DatabaseConfig holds the SQLite ledger configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// QuotesConfig holds quote provider configuration.
type QuotesConfig struct {
	Source            string `mapstructure:"source"` // "bse", "kite"
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	MaxRetries        int    `mapstructure:"max_retries"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds"`
	InstrumentsFile   string `mapstructure:"instruments_file"`
	KiteAPIKey        string `mapstructure:"kite_api_key"`
	KiteAccessToken   string `mapstructure:"kite_access_token"`
	KiteExchange      string `mapstructure:"kite_exchange"`
}

// Timeout returns the per-request quote timeout.
func (q QuotesConfig) Timeout() time.Duration {
	return time.Duration(q.TimeoutSeconds) * time.Second
}

// RetryDelay returns the delay between quote retry attempts.
func (q QuotesConfig) RetryDelay() time.Duration {
	return time.Duration(q.RetryDelaySeconds) * time.Second
}

// ScheduleConfig holds the re-valuation schedule configuration.
type ScheduleConfig struct {
	IntervalMinutes int    `mapstructure:"interval_minutes"`
	DailyAt         string `mapstructure:"daily_at"` // "HH:MM"
	MarketHoursOnly bool   `mapstructure:"market_hours_only"`
}

// NotificationConfig holds alert notification configuration.
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Channel string `mapstructure:"channel"` // "desktop", "terminal", "none"
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// ReportsConfig holds report generation configuration.
type ReportsConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/bsepf"
	}
	return filepath.Join(home, ".config", "bsepf")
}

// Load loads configuration from the specified directory. A missing config
// file is not an error; defaults apply. Environment variables with the
// BSEPF_ prefix override file values.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("BSEPF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("database.path", filepath.Join(configDir, "portfolio.db"))
	v.SetDefault("quotes.source", "bse")
	v.SetDefault("quotes.timeout_seconds", 10)
	v.SetDefault("quotes.max_retries", 3)
	v.SetDefault("quotes.retry_delay_seconds", 5)
	v.SetDefault("quotes.instruments_file", filepath.Join(configDir, "instruments.txt"))
	v.SetDefault("quotes.kite_exchange", "BSE")
	v.SetDefault("schedule.interval_minutes", 60)
	v.SetDefault("schedule.daily_at", "09:30")
	v.SetDefault("schedule.market_hours_only", true)
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.channel", "desktop")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("reports.output_dir", "reports")
}

func (c *Config) validate() error {
	switch c.Quotes.Source {
	case "bse", "kite":
	default:
		return fmt.Errorf("quotes.source must be \"bse\" or \"kite\", got %q", c.Quotes.Source)
	}
	if c.Quotes.Source == "kite" && (c.Quotes.KiteAPIKey == "" || c.Quotes.KiteAccessToken == "") {
		return fmt.Errorf("quotes.source \"kite\" requires kite_api_key and kite_access_token")
	}
	if c.Schedule.IntervalMinutes <= 0 {
		return fmt.Errorf("schedule.interval_minutes must be positive, got %d", c.Schedule.IntervalMinutes)
	}
	return nil
}
