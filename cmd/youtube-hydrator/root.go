package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/plexutils/youtube-hydrator/internal/config"
	"github.com/plexutils/youtube-hydrator/pkg/cache"
	"github.com/plexutils/youtube-hydrator/pkg/logging"
)

var (
	flagConfig      string
	flagAPIKey      string
	flagLogLevel    string
	flagPretty      bool
	flagCache       string
	flagCachePath   string
	flagRedisAddr   string
	flagTTL         time.Duration
	flagBatchSize   int
	flagConcurrency int
	flagQuotaBudget int64
	flagQuotaWindow time.Duration
	flagMetricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "youtube-hydrator",
	Short: "Batch metadata hydration for YouTube videos and channels",
	Long: `youtube-hydrator resolves YouTube video and channel IDs to metadata
records through a caching, quota-aware pipeline.

Records are cached, so repeated runs only spend API quota on IDs not
seen within the cache TTL. Settings are layered from the config file,
then environment variables, then flags, with later sources winning.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.StringVar(&flagAPIKey, "api-key", "", "YouTube Data API key (or YOUTUBE_API_KEY)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&flagPretty, "pretty", false, "human-readable log output instead of JSON")
	pf.StringVar(&flagCache, "cache", "", "cache backend: memory, sqlite, redis")
	pf.StringVar(&flagCachePath, "cache-path", "", "cache file path for the sqlite backend")
	pf.StringVar(&flagRedisAddr, "redis-addr", "", "redis address for the redis backend")
	pf.DurationVar(&flagTTL, "ttl", 0, "cache entry lifetime")
	pf.IntVar(&flagBatchSize, "batch-size", 0, "IDs per API call, 1 to 50")
	pf.IntVar(&flagConcurrency, "concurrency", 0, "concurrent batch workers")
	pf.Int64Var(&flagQuotaBudget, "quota-budget", 0, "quota units per window")
	pf.DurationVar(&flagQuotaWindow, "quota-window", 0, "quota window length")
	pf.StringVar(&flagMetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
}

// resolveConfig layers the config file, the environment, and any flags the
// user set, in that order.
func resolveConfig() (config.Config, error) {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()

	pf := rootCmd.PersistentFlags()
	if pf.Changed("api-key") {
		cfg.APIKey = flagAPIKey
	}
	if pf.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if pf.Changed("pretty") {
		cfg.LogPretty = flagPretty
	}
	if pf.Changed("cache") {
		cfg.CacheBackend = flagCache
	}
	if pf.Changed("cache-path") {
		cfg.CachePath = flagCachePath
	}
	if pf.Changed("redis-addr") {
		cfg.RedisAddr = flagRedisAddr
	}
	if pf.Changed("ttl") {
		cfg.CacheTTL = config.Duration(flagTTL)
	}
	if pf.Changed("batch-size") {
		cfg.BatchSize = flagBatchSize
	}
	if pf.Changed("concurrency") {
		cfg.Concurrency = flagConcurrency
	}
	if pf.Changed("quota-budget") {
		cfg.QuotaBudget = flagQuotaBudget
	}
	if pf.Changed("quota-window") {
		cfg.QuotaWindow = config.Duration(flagQuotaWindow)
	}
	if pf.Changed("metrics-addr") {
		cfg.MetricsAddr = flagMetricsAddr
	}
	return cfg, nil
}

func setupLogging(cfg config.Config) zerolog.Logger {
	return logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
}

// buildStore opens the cache backend named by the config.
func buildStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (cache.Store, error) {
	switch cfg.CacheBackend {
	case "memory":
		return cache.NewMemory(), nil
	case "sqlite":
		store, err := cache.NewSQLite(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite cache at %s: %w", cfg.CachePath, err)
		}
		logger.Debug().Str("path", cfg.CachePath).Msg("opened sqlite cache")
		return store, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Debug().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("connected to redis")
		return cache.NewRedis(client), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

// startMetricsServer serves /metrics in the background until the returned
// server is closed.
func startMetricsServer(addr string, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return srv
}
