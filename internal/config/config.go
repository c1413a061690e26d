package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL and
// UPSTREAM_BASE_URL are required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Decision-log database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Upstream billing backend
	UpstreamBaseURL string
	UpstreamTimeout time.Duration

	// Collection cache. RedisURL empty means in-process cache.
	RedisURL        string
	CacheTTL        time.Duration
	RefreshInterval time.Duration

	// Rate limiting: maximum upstream requests per second per collection
	RateLimit int

	// Browser origins allowed to call the API
	CORSOrigins []string
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	upstreamURL := os.Getenv("UPSTREAM_BASE_URL")
	if upstreamURL == "" {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 15*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		UpstreamBaseURL: upstreamURL,
		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", 10*time.Second),

		RedisURL:        os.Getenv("REDIS_URL"),
		CacheTTL:        getDuration("CACHE_TTL", time.Minute),
		RefreshInterval: getDuration("REFRESH_INTERVAL", 30*time.Second),

		RateLimit: getInt("RATE_LIMIT_PER_COLLECTION", 20),

		CORSOrigins: []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
