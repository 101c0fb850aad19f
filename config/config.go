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
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Locator   LocatorConfig
	List      ListConfig
	Engine    EngineConfig
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

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 10

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls page opening behavior.
type ScraperConfig struct {
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout time.Duration // default: 30s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 120s

	// BlockedResourceTypes lists resource types to block during
	// navigation. Blocking images does not affect extraction: src and
	// srcset attributes exist without the bytes being fetched.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds blocks requests to well-known ad/tracking domains.
	BlockAds bool // default: true
}

// LocatorConfig controls the heuristic list locator.
type LocatorConfig struct {
	// MaxCountPerPage discards candidates matching this many elements or
	// more; such a selector is matching the whole page, not a list.
	MaxCountPerPage int // default: 50

	// MinArea is the minimum rendered area for a match to qualify.
	MinArea float64 // default: 20000

	// Scrolls is the number of viewport-height sampling passes.
	Scrolls int // default: 3

	// GridStep is the spacing in pixels between sample points.
	GridStep float64 // default: 100

	// Metric scores candidates: "total_area" or "size_deviation".
	Metric string // default: "size_deviation"
}

// ListConfig controls the list extractor.
type ListConfig struct {
	// DefaultLimit caps records per call when the request gives no limit.
	DefaultLimit int // default: 10

	// ClassSimilarity is the fraction of a template's class tokens a
	// sibling must share to be accepted by the under-match fallback.
	ClassSimilarity float64 // default: 0.7
}

// EngineConfig controls the host-engine dispatcher.
type EngineConfig struct {
	// EnableDispatcher toggles the static-first engine escalation.
	EnableDispatcher bool // default: true

	// EscalationDelays is the staged start delay for each engine tier.
	EscalationDelays []time.Duration // default: [0s, 2s, 5s]

	// MemoryTTL is how long a per-domain engine preference is remembered.
	MemoryTTL time.Duration // default: 24h
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 1000
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("HARVEST_HOST", "0.0.0.0"),
			Port: envIntOr("HARVEST_PORT", 8080),
			Mode: envOr("HARVEST_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("HARVEST_HEADLESS", true),
			MaxPages:     envIntOr("HARVEST_MAX_PAGES", 10),
			DefaultProxy: os.Getenv("HARVEST_PROXY"),
			NoSandbox:    envBoolOr("HARVEST_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("HARVEST_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			DefaultTimeout: envDurationOr("HARVEST_DEFAULT_TIMEOUT", 30*time.Second),
			MaxTimeout:     envDurationOr("HARVEST_MAX_TIMEOUT", 120*time.Second),
			BlockedResourceTypes: envSliceOr("HARVEST_BLOCKED_RESOURCES", []string{
				"Font", "Media",
			}),
			BlockAds: envBoolOr("HARVEST_BLOCK_ADS", true),
		},
		Locator: LocatorConfig{
			MaxCountPerPage: envIntOr("HARVEST_LOCATOR_MAX_COUNT", 50),
			MinArea:         envFloatOr("HARVEST_LOCATOR_MIN_AREA", 20000),
			Scrolls:         envIntOr("HARVEST_LOCATOR_SCROLLS", 3),
			GridStep:        envFloatOr("HARVEST_LOCATOR_GRID_STEP", 100),
			Metric:          envOr("HARVEST_LOCATOR_METRIC", "size_deviation"),
		},
		List: ListConfig{
			DefaultLimit:    envIntOr("HARVEST_LIST_LIMIT", 10),
			ClassSimilarity: envFloatOr("HARVEST_LIST_CLASS_SIMILARITY", 0.7),
		},
		Engine: EngineConfig{
			EnableDispatcher: envBoolOr("HARVEST_DISPATCHER", true),
			EscalationDelays: envDurationSliceOr("HARVEST_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second, 5 * time.Second}),
			MemoryTTL:        envDurationOr("HARVEST_ENGINE_MEMORY_TTL", 24*time.Hour),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("HARVEST_AUTH_ENABLED", true),
			APIKeys: envSliceOr("HARVEST_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("HARVEST_RATE_RPS", 5.0),
			Burst:             envIntOr("HARVEST_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("HARVEST_CACHE_MAX_ENTRIES", 1000),
		},
		Log: LogConfig{
			Level:  envOr("HARVEST_LOG_LEVEL", "info"),
			Format: envOr("HARVEST_LOG_FORMAT", "json"),
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

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
