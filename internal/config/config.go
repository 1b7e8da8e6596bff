package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/i474232898/aquawatch/internal/monitor"
)

type AppConfig struct {
	// APIBase is the root URL of the aquarium monitor API.
	APIBase     string
	HTTPTimeout time.Duration

	// LivePollInterval controls how often the live reading is fetched.
	LivePollInterval time.Duration
	// HistoryPollInterval controls how often the full history is refetched.
	HistoryPollInterval time.Duration

	// Location sensor dates are bucketed in.
	Location *time.Location

	// Settings store. An empty RedisAddr selects the in-memory store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SettingsMaxAge expires saved settings after this long (0 keeps them).
	SettingsMaxAge time.Duration

	// DefaultRanges apply until the user saves their own.
	DefaultRanges monitor.RangeConfig

	AutoFeedCooldown time.Duration

	LogLevel  string
	LogFormat string

	Port string
}

// rangesFile is the layout of the optional RANGES_FILE.
type rangesFile struct {
	Ranges monitor.RangeConfig `toml:"ranges"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.APIBase = getenvDefault("AQUA_API_BASE", "http://localhost:5000")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.LivePollInterval, err = getenvDuration("LIVE_POLL_INTERVAL", "1s"); err != nil {
		return nil, err
	}
	if cfg.HistoryPollInterval, err = getenvDuration("HISTORY_POLL_INTERVAL", "5m"); err != nil {
		return nil, err
	}
	if cfg.AutoFeedCooldown, err = getenvDuration("AUTO_FEED_COOLDOWN", "60s"); err != nil {
		return nil, err
	}
	if cfg.SettingsMaxAge, err = getenvDuration("SETTINGS_MAX_AGE", "0s"); err != nil {
		return nil, err
	}

	tz := getenvDefault("TIMEZONE", "Asia/Manila")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getenvInt("REDIS_DB", 0)

	cfg.DefaultRanges = monitor.DefaultRanges()
	if path := os.Getenv("RANGES_FILE"); path != "" {
		ranges, err := LoadRangesFile(path, cfg.DefaultRanges)
		if err != nil {
			return nil, err
		}
		cfg.DefaultRanges = ranges
	}

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// LoadRangesFile reads default safe ranges from a TOML file of the form
//
//	[ranges.temperature]
//	min = 28.0
//	max = 31.0
//
// Parameters missing from the file keep their value from base.
func LoadRangesFile(path string, base monitor.RangeConfig) (monitor.RangeConfig, error) {
	file := rangesFile{Ranges: base}
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return base, fmt.Errorf("invalid RANGES_FILE %s: %w", path, err)
	}
	for _, p := range monitor.Parameters {
		if r := file.Ranges.For(p); r.Min > r.Max {
			return base, fmt.Errorf("invalid RANGES_FILE %s: %s min %v exceeds max %v", path, p, r.Min, r.Max)
		}
	}
	return file.Ranges, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
