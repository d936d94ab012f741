package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Fetch     FetchConfig
	Crawl     CrawlConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// FetchConfig controls the outbound HTTP fetcher.
type FetchConfig struct {
	// Timeout is the per-request deadline.
	Timeout time.Duration // default: 30s

	// Proxy is an optional proxy URL applied to all requests.
	Proxy string

	// MinInterval is the politeness floor between any two outbound
	// requests, enforced by a shared token-bucket limiter. This is in
	// addition to the crawl loop's random inter-page delays.
	MinInterval time.Duration // default: 500ms

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 // default: 10 MB
}

// CrawlConfig controls crawl loop behavior.
type CrawlConfig struct {
	// MaxPages is the default page budget per crawl.
	MaxPages int // default: 5

	// DelayMin/DelayMax bound the random politeness delay between pages.
	DelayMin time.Duration // default: 3s
	DelayMax time.Duration // default: 7s

	// SecondaryDelayMin/Max bound the shorter delay before each
	// per-record permalink fetch.
	SecondaryDelayMin time.Duration // default: 1s
	SecondaryDelayMax time.Duration // default: 2s

	// FetchBody toggles the per-record permalink fetch for full review
	// text on profiles that support it.
	FetchBody bool // default: true

	// BodyFormat is "text" or "markdown".
	BodyFormat string // default: "text"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-identity API rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key or IP.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per identity.
	Burst int // default: 10
}

// CacheConfig controls the fetched-page cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached pages.
	MaxEntries int // default: 500

	// TTL is how long a cached page stays valid.
	TTL time.Duration // default: 15m
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("HARVEST_HOST", "0.0.0.0"),
			Port: envIntOr("HARVEST_PORT", 8080),
			Mode: envOr("HARVEST_MODE", "release"),
		},
		Fetch: FetchConfig{
			Timeout:      envDurationOr("HARVEST_FETCH_TIMEOUT", 30*time.Second),
			Proxy:        os.Getenv("HARVEST_PROXY"),
			MinInterval:  envDurationOr("HARVEST_FETCH_MIN_INTERVAL", 500*time.Millisecond),
			MaxBodyBytes: int64(envIntOr("HARVEST_FETCH_MAX_BODY", 10*1024*1024)),
		},
		Crawl: CrawlConfig{
			MaxPages:          envIntOr("HARVEST_MAX_PAGES", 5),
			DelayMin:          envDurationOr("HARVEST_DELAY_MIN", 3*time.Second),
			DelayMax:          envDurationOr("HARVEST_DELAY_MAX", 7*time.Second),
			SecondaryDelayMin: envDurationOr("HARVEST_SECONDARY_DELAY_MIN", 1*time.Second),
			SecondaryDelayMax: envDurationOr("HARVEST_SECONDARY_DELAY_MAX", 2*time.Second),
			FetchBody:         envBoolOr("HARVEST_FETCH_BODY", true),
			BodyFormat:        envOr("HARVEST_BODY_FORMAT", "text"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("HARVEST_AUTH_ENABLED", false),
			APIKeys: envSliceOr("HARVEST_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("HARVEST_RATE_RPS", 5.0),
			Burst:             envIntOr("HARVEST_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("HARVEST_CACHE_MAX_ENTRIES", 500),
			TTL:        envDurationOr("HARVEST_CACHE_TTL", 15*time.Minute),
		},
		Log: LogConfig{
			Level:  envOr("HARVEST_LOG_LEVEL", "info"),
			Format: envOr("HARVEST_LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
