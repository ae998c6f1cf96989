// Package config loads hydrator settings from a TOML file and the
// environment. Values resolve in order: defaults, config file,
// environment, command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration wraps time.Duration so TOML files and env vars can use
// strings like "24h" or "30m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds the hydrator's runtime settings.
type Config struct {
	// APIKey authenticates Data API requests.
	APIKey string `toml:"api_key"`

	// CacheBackend selects the cache store: memory, sqlite, or redis.
	CacheBackend string `toml:"cache_backend"`

	// CachePath is the SQLite database file (sqlite backend only).
	CachePath string `toml:"cache_path"`

	// RedisAddr is the Redis host:port (redis backend only).
	RedisAddr string `toml:"redis_addr"`

	// RedisDB selects the Redis logical database.
	RedisDB int `toml:"redis_db"`

	// CacheTTL bounds how long cached records are served.
	CacheTTL Duration `toml:"cache_ttl"`

	// QuotaBudget is the number of quota units admittable per window.
	QuotaBudget int64 `toml:"quota_budget"`

	// QuotaWindow is the quota window length.
	QuotaWindow Duration `toml:"quota_window"`

	// BatchSize caps ids per API call. The Data API accepts at most 50.
	BatchSize int `toml:"batch_size"`

	// Concurrency is the number of batch workers.
	Concurrency int `toml:"concurrency"`

	// MaxRetries bounds fetch attempts per batch.
	MaxRetries int `toml:"max_retries"`

	// LogLevel is debug, info, warn, or error.
	LogLevel string `toml:"log_level"`

	// LogPretty switches to human-readable console logs.
	LogPretty bool `toml:"log_pretty"`

	// MetricsAddr, when set, serves Prometheus metrics on this address.
	MetricsAddr string `toml:"metrics_addr"`
}

// Default returns the configuration used when nothing else is set. The
// quota defaults match the Data API's free tier: 10000 units per day.
func Default() Config {
	return Config{
		CacheBackend: "memory",
		CachePath:    defaultCachePath(),
		RedisAddr:    "localhost:6379",
		CacheTTL:     Duration(24 * time.Hour),
		QuotaBudget:  10000,
		QuotaWindow:  Duration(24 * time.Hour),
		BatchSize:    50,
		Concurrency:  4,
		MaxRetries:   3,
		LogLevel:     "info",
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".youtube-hydrator", "config.toml")
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cache.db"
	}
	return filepath.Join(home, ".youtube-hydrator", "cache.db")
}

// Load reads a TOML file over the defaults. A missing file is not an
// error; the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, err
	}

	return cfg, nil
}

// ApplyEnv overrides settings from the environment. Unparseable values
// are ignored in favor of what is already set.
func (c *Config) ApplyEnv() {
	c.APIKey = getEnv("YOUTUBE_API_KEY", c.APIKey)
	c.CacheBackend = getEnv("YTH_CACHE_BACKEND", c.CacheBackend)
	c.CachePath = getEnv("YTH_CACHE_PATH", c.CachePath)
	c.RedisAddr = getEnv("YTH_REDIS_ADDR", c.RedisAddr)
	c.LogLevel = getEnv("YTH_LOG_LEVEL", c.LogLevel)
	c.MetricsAddr = getEnv("YTH_METRICS_ADDR", c.MetricsAddr)

	if v := os.Getenv("YTH_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := os.Getenv("YTH_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CacheTTL = Duration(d)
		}
	}
	if v := os.Getenv("YTH_QUOTA_BUDGET"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.QuotaBudget = n
		}
	}
	if v := os.Getenv("YTH_QUOTA_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.QuotaWindow = Duration(d)
		}
	}
	if v := os.Getenv("YTH_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchSize = n
		}
	}
	if v := os.Getenv("YTH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Concurrency = n
		}
	}
}

// Validate checks value bounds. needAPIKey is set by commands that reach
// the network.
func (c *Config) Validate(needAPIKey bool) error {
	if needAPIKey && c.APIKey == "" {
		return errors.New("an API key is required: set --api-key, YOUTUBE_API_KEY, or api_key in the config file")
	}
	switch c.CacheBackend {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q (want memory, sqlite, or redis)", c.CacheBackend)
	}
	if c.BatchSize < 1 || c.BatchSize > 50 {
		return fmt.Errorf("batch size must be between 1 and 50, got %d", c.BatchSize)
	}
	if c.QuotaBudget < 1 {
		return fmt.Errorf("quota budget must be positive, got %d", c.QuotaBudget)
	}
	if c.QuotaWindow.Std() <= 0 {
		return fmt.Errorf("quota window must be positive, got %s", c.QuotaWindow.Std())
	}
	if c.CacheTTL.Std() <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.CacheTTL.Std())
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be positive, got %d", c.MaxRetries)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
