package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lakereaper.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/test.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Scan.Granularity)
	assert.Equal(t, 0.70, cfg.Capacity.TargetPct)
	assert.Equal(t, 24, cfg.Retention.MinHours)
	assert.Equal(t, 500, cfg.Retention.MaxDeletions)
	assert.Equal(t, 3, cfg.Schedule.Hour)
	assert.Zero(t, cfg.Schedule.Interval)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /var/lib/lakereaper/lake.db
logging:
  level: debug
  format: json
scan:
  root: /data/recordings
  granularity: 1
capacity:
  limit_mb: 500000
  target_pct: 0.65
retention:
  min_hours: 48
  max_deletions: 100
schedule:
  interval: 30m
metrics:
  listen: ":9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/recordings", cfg.Scan.Root)
	assert.Equal(t, 1, cfg.Scan.Granularity)
	assert.Equal(t, 500000.0, cfg.Capacity.LimitMB)
	assert.Equal(t, 0.65, cfg.Capacity.TargetPct)
	assert.Equal(t, 48, cfg.Retention.MinHours)
	assert.Equal(t, 100, cfg.Retention.MaxDeletions)
	assert.Equal(t, 30*time.Minute, cfg.Schedule.Interval)
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestValidate(t *testing.T) {
	valid := Default()
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"bad granularity", func(c *Config) { c.Scan.Granularity = 3 }},
		{"negative limit", func(c *Config) { c.Capacity.LimitMB = -1 }},
		{"zero target", func(c *Config) { c.Capacity.TargetPct = 0 }},
		{"target above one", func(c *Config) { c.Capacity.TargetPct = 1.5 }},
		{"zero retention", func(c *Config) { c.Retention.MinHours = 0 }},
		{"zero max deletions", func(c *Config) { c.Retention.MaxDeletions = 0 }},
		{"bad hour", func(c *Config) { c.Schedule.Hour = 24 }},
		{"bad minute", func(c *Config) { c.Schedule.Minute = 60 }},
		{"negative interval", func(c *Config) { c.Schedule.Interval = -time.Minute }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/test.db
scan:
  granularity: 9
`)

	_, err := Load(path)
	assert.Error(t, err)
}
