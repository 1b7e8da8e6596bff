package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/aquawatch/internal/monitor"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"AQUA_API_BASE", "HTTP_TIMEOUT", "LIVE_POLL_INTERVAL", "HISTORY_POLL_INTERVAL",
		"AUTO_FEED_COOLDOWN", "SETTINGS_MAX_AGE", "TIMEZONE", "REDIS_ADDR", "REDIS_DB", "RANGES_FILE", "PORT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.APIBase)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Second, cfg.LivePollInterval)
	assert.Equal(t, 5*time.Minute, cfg.HistoryPollInterval)
	assert.Equal(t, time.Minute, cfg.AutoFeedCooldown)
	assert.Zero(t, cfg.SettingsMaxAge)
	assert.Equal(t, "Asia/Manila", cfg.Location.String())
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, monitor.DefaultRanges(), cfg.DefaultRanges)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AQUA_API_BASE", "http://aquarium.local:5000")
	t.Setenv("LIVE_POLL_INTERVAL", "2s")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SETTINGS_MAX_AGE", "720h")
	t.Setenv("RANGES_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://aquarium.local:5000", cfg.APIBase)
	assert.Equal(t, 2*time.Second, cfg.LivePollInterval)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 720*time.Hour, cfg.SettingsMaxAge)
}

func TestLoadInvalidValues(t *testing.T) {
	t.Setenv("RANGES_FILE", "")

	t.Setenv("HTTP_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("HTTP_TIMEOUT", "")
	t.Setenv("TIMEZONE", "Atlantis/Lost")
	_, err = Load()
	assert.Error(t, err)
}

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ranges.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadRangesFile(t *testing.T) {
	path := writeFile(t, `
[ranges.temperature]
min = 26.0
max = 30.0

[ranges.do]
min = 4.5
max = 8.0
`)

	cfg, err := LoadRangesFile(path, monitor.DefaultRanges())
	require.NoError(t, err)
	assert.Equal(t, monitor.Range{Min: 26, Max: 30}, cfg.Temperature)
	assert.Equal(t, monitor.Range{Min: 4.5, Max: 8}, cfg.DissolvedOxygen)
	assert.Equal(t, monitor.DefaultRanges().PH, cfg.PH)
}

func TestLoadRangesFileFromEnv(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("RANGES_FILE", writeFile(t, "[ranges.ph]\nmin = 6.5\nmax = 7.5\n"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, monitor.Range{Min: 6.5, Max: 7.5}, cfg.DefaultRanges.PH)
}

func TestLoadRangesFileRejectsInvertedBand(t *testing.T) {
	path := writeFile(t, "[ranges.ammonia]\nmin = 1.0\nmax = 0.5\n")

	_, err := LoadRangesFile(path, monitor.DefaultRanges())
	assert.Error(t, err)

	_, err = LoadRangesFile(filepath.Join(t.TempDir(), "missing.toml"), monitor.DefaultRanges())
	assert.Error(t, err)
}
