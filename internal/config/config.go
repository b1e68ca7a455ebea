// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/zyte-api-client/pkg/cache"
	"github.com/Sternrassler/zyte-api-client/pkg/client"
	"github.com/Sternrassler/zyte-api-client/pkg/logging"
	"github.com/Sternrassler/zyte-api-client/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
)

// Config holds all configuration for the binaries.
type Config struct {
	APIKey         string        // ZYTE_API_KEY, required
	Endpoint       string        // ZYTE_API_ENDPOINT, default client.DefaultEndpoint
	Concurrency    int           // ZYTE_API_CONCURRENCY, default 5
	MaxAttempts    int           // ZYTE_MAX_ATTEMPTS, default 5
	InitialBackoff time.Duration // ZYTE_INITIAL_BACKOFF_MS, default 1000ms
	RateLimit      float64       // ZYTE_RATE_LIMIT, requests/s, default 0 (unlimited)
	RequestTimeout time.Duration // ZYTE_REQUEST_TIMEOUT_MS, default 180000ms
	Proxy          string        // ZYTE_PROXY, default "" (proxy fetching disabled)

	// Cache configuration
	RedisURL         string        // REDIS_URL, default "" (no Redis cache)
	CacheTTL         time.Duration // CACHE_TTL_SECONDS, default 3600s
	CacheMemoryItems int           // CACHE_MEMORY_ITEMS, default 0 (no memory cache)

	// Logging configuration
	LogLevel  string // LOG_LEVEL, default "info"
	LogPretty bool   // LOG_PRETTY, default false
	LogFile   string // LOG_FILE, default "" (stderr only)

	// Server configuration
	Port string // PORT, default "8080"
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		APIKey:         getEnvString("ZYTE_API_KEY", ""),
		Endpoint:       getEnvString("ZYTE_API_ENDPOINT", client.DefaultEndpoint),
		Concurrency:    getEnvInt("ZYTE_API_CONCURRENCY", 5),
		MaxAttempts:    getEnvInt("ZYTE_MAX_ATTEMPTS", 5),
		InitialBackoff: getEnvDurationMs("ZYTE_INITIAL_BACKOFF_MS", 1000),
		RateLimit:      getEnvFloat("ZYTE_RATE_LIMIT", 0),
		RequestTimeout: getEnvDurationMs("ZYTE_REQUEST_TIMEOUT_MS", 180000),
		Proxy:          getEnvString("ZYTE_PROXY", ""),

		RedisURL:         getEnvString("REDIS_URL", ""),
		CacheTTL:         time.Duration(getEnvInt("CACHE_TTL_SECONDS", 3600)) * time.Second,
		CacheMemoryItems: getEnvInt("CACHE_MEMORY_ITEMS", 0),

		LogLevel:  getEnvString("LOG_LEVEL", "info"),
		LogPretty: getEnvBool("LOG_PRETTY", false),
		LogFile:   getEnvString("LOG_FILE", ""),

		Port: getEnvString("PORT", "8080"),
	}
}

// Validate reports settings that would make every request fail.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: ZYTE_API_KEY is required", client.ErrConfiguration)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: ZYTE_API_CONCURRENCY must be >= 1 (got %d)", client.ErrConfiguration, c.Concurrency)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: ZYTE_MAX_ATTEMPTS must be >= 1 (got %d)", client.ErrConfiguration, c.MaxAttempts)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: ZYTE_RATE_LIMIT must be >= 0 (got %v)", client.ErrConfiguration, c.RateLimit)
	}
	return nil
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.LogLevel)
	cfg.Pretty = c.LogPretty
	cfg.FilePath = c.LogFile
	return cfg
}

// ClientConfig maps the settings onto a client configuration.
// The cache is left unset; see OpenCache.
func (c *Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig(c.APIKey)
	cfg.Endpoint = c.Endpoint
	cfg.Concurrency = c.Concurrency
	cfg.Retry.MaxAttempts = c.MaxAttempts
	cfg.Retry.InitialBackoff = c.InitialBackoff
	cfg.RequestTimeout = c.RequestTimeout
	if c.RateLimit > 0 {
		cfg.Limiter = ratelimit.NewLimiter(c.RateLimit, c.Concurrency)
	}
	return cfg
}

// OpenCache builds the configured cache. Redis wins over the memory cache;
// with neither configured it returns a nil manager. The returned Redis
// client, when non-nil, must be closed by the caller.
func (c *Config) OpenCache(ctx context.Context) (*cache.Manager, *redis.Client, error) {
	if c.RedisURL != "" {
		opts, err := redisOptions(c.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: REDIS_URL: %v", client.ErrConfiguration, err)
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return cache.NewManager(cache.NewRedisStore(redisClient), c.CacheTTL), redisClient, nil
	}

	if c.CacheMemoryItems > 0 {
		store, err := cache.NewMemoryStore(c.CacheMemoryItems)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: CACHE_MEMORY_ITEMS: %v", client.ErrConfiguration, err)
		}
		return cache.NewManager(store, c.CacheTTL), nil, nil
	}

	return nil, nil, nil
}

// redisOptions accepts either a redis:// URL or a bare host:port.
func redisOptions(raw string) (*redis.Options, error) {
	if strings.Contains(raw, "://") {
		return redis.ParseURL(raw)
	}
	return &redis.Options{Addr: raw}, nil
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
