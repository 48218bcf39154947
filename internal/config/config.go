package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Capacity  CapacityConfig  `mapstructure:"capacity"`
	Retention RetentionConfig `mapstructure:"retention"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// DatabaseConfig holds database-related settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging-related settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ScanConfig holds the tree location and aggregation settings.
type ScanConfig struct {
	Root        string `mapstructure:"root"`
	Granularity int    `mapstructure:"granularity"`
}

// CapacityConfig holds the ceiling and reclaim target.
type CapacityConfig struct {
	LimitMB   float64 `mapstructure:"limit_mb"`
	TargetPct float64 `mapstructure:"target_pct"`
}

// RetentionConfig holds the cleanup safety parameters.
type RetentionConfig struct {
	MinHours     int `mapstructure:"min_hours"`
	MaxDeletions int `mapstructure:"max_deletions"`
}

// ScheduleConfig holds the scheduler mode. A zero interval selects daily mode
// at Hour:Minute local time.
type ScheduleConfig struct {
	Hour     int           `mapstructure:"hour"`
	Minute   int           `mapstructure:"minute"`
	Interval time.Duration `mapstructure:"interval"`
}

// MetricsConfig holds the optional Prometheus listener address.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("database.path", "/var/lib/lakereaper/lakereaper.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("scan.granularity", 2)
	v.SetDefault("capacity.limit_mb", 0)
	v.SetDefault("capacity.target_pct", 0.70)
	v.SetDefault("retention.min_hours", 24)
	v.SetDefault("retention.max_deletions", 500)
	v.SetDefault("schedule.hour", 3)
	v.SetDefault("schedule.minute", 0)
	v.SetDefault("schedule.interval", "0s")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("lakereaper")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/lakereaper")
		v.AddConfigPath("$HOME/.config/lakereaper")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK if using defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Scan.Granularity < 0 || c.Scan.Granularity > 2 {
		return fmt.Errorf("scan.granularity must be 0, 1 or 2")
	}

	if c.Capacity.LimitMB < 0 {
		return fmt.Errorf("capacity.limit_mb must be non-negative")
	}

	if c.Capacity.TargetPct <= 0 || c.Capacity.TargetPct > 1 {
		return fmt.Errorf("capacity.target_pct must be in (0, 1]")
	}

	if c.Retention.MinHours < 1 {
		return fmt.Errorf("retention.min_hours must be at least 1")
	}

	if c.Retention.MaxDeletions < 1 {
		return fmt.Errorf("retention.max_deletions must be at least 1")
	}

	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
		return fmt.Errorf("schedule.hour must be 0-23")
	}

	if c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
		return fmt.Errorf("schedule.minute must be 0-59")
	}

	if c.Schedule.Interval < 0 {
		return fmt.Errorf("schedule.interval must be non-negative")
	}

	return nil
}

// Default returns a default configuration suitable for testing or initial setup.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "/var/lib/lakereaper/lakereaper.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Scan: ScanConfig{
			Granularity: 2,
		},
		Capacity: CapacityConfig{
			TargetPct: 0.70,
		},
		Retention: RetentionConfig{
			MinHours:     24,
			MaxDeletions: 500,
		},
		Schedule: ScheduleConfig{
			Hour:   3,
			Minute: 0,
		},
	}
}
