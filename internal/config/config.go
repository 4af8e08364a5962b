package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	SourceAPI    = "api"
	SourceMobile = "mobile"
	SourceRSS    = "rss"
)

type Config struct {
	// HTTP server settings
	Port           string
	RequestTimeout time.Duration

	// Article source settings
	SourceKind        string // "api", "mobile" or "rss"
	NaverClientID     string
	NaverClientSecret string
	Display           int // results requested per keyword
	FetchConcurrency  int // simultaneous keyword fetches
	FetchTimeout      time.Duration
	NaverDailyQuota   int // outbound API calls per day (0 = unlimited)

	// Retry policy for rate-limited calls
	RetryAttempts int
	RetryDelay    time.Duration

	// Filter settings
	RecencyWindow      time.Duration
	MinKeywordMatches  int
	VideoRequiresMajor bool

	// Press table override
	PressConfigPath string

	// Shortener settings
	ShortenerEnabled   bool
	SelectorCachePath  string
	ShortenConcurrency int
	NavTimeout         time.Duration
	StepTimeout        time.Duration

	// App settings
	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		Port:               "8000",
		RequestTimeout:     60 * time.Second,
		SourceKind:         SourceAPI,
		Display:            10,
		FetchConcurrency:   4,
		FetchTimeout:       10 * time.Second,
		NaverDailyQuota:    25000,
		RetryAttempts:      3,
		RetryDelay:         1 * time.Second,
		RecencyWindow:      4 * time.Hour,
		MinKeywordMatches:  1,
		VideoRequiresMajor: true,
		PressConfigPath:    "configs/press.yaml",
		ShortenerEnabled:   true,
		SelectorCachePath:  "selector_cache.json",
		ShortenConcurrency: 2,
		NavTimeout:         15 * time.Second,
		StepTimeout:        2 * time.Second,
	}

	// Load from environment
	cfg.NaverClientID = os.Getenv("NAVER_CLIENT_ID")
	cfg.NaverClientSecret = os.Getenv("NAVER_CLIENT_SECRET")

	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.SourceKind = getEnvOrDefault("ARTICLE_SOURCE", cfg.SourceKind)
	cfg.PressConfigPath = getEnvOrDefault("PRESS_CONFIG_PATH", cfg.PressConfigPath)
	cfg.SelectorCachePath = getEnvOrDefault("SELECTOR_CACHE_PATH", cfg.SelectorCachePath)

	cfg.Display = getEnvIntOrDefault("DISPLAY_COUNT", cfg.Display)
	cfg.FetchConcurrency = getEnvIntOrDefault("FETCH_CONCURRENCY", cfg.FetchConcurrency)
	cfg.NaverDailyQuota = getEnvIntOrDefault("NAVER_DAILY_QUOTA", cfg.NaverDailyQuota)
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)
	cfg.MinKeywordMatches = getEnvIntOrDefault("MIN_KEYWORD_MATCHES", cfg.MinKeywordMatches)
	cfg.ShortenConcurrency = getEnvIntOrDefault("SHORTEN_CONCURRENCY", cfg.ShortenConcurrency)

	cfg.FetchTimeout = getEnvDurationOrDefault("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.RequestTimeout = getEnvDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RetryDelay = getEnvDurationOrDefault("RETRY_DELAY", cfg.RetryDelay)
	cfg.RecencyWindow = getEnvDurationOrDefault("RECENCY_WINDOW", cfg.RecencyWindow)
	cfg.NavTimeout = getEnvDurationOrDefault("SHORTEN_NAV_TIMEOUT", cfg.NavTimeout)
	cfg.StepTimeout = getEnvDurationOrDefault("SHORTEN_STEP_TIMEOUT", cfg.StepTimeout)

	if v := os.Getenv("SHORTENER_ENABLED"); v != "" {
		cfg.ShortenerEnabled = v == "true"
	}
	if v := os.Getenv("VIDEO_REQUIRES_MAJOR"); v != "" {
		cfg.VideoRequiresMajor = v == "true"
	}
	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	switch c.SourceKind {
	case SourceAPI:
		// No partial result is meaningful without credentials, so fail at startup.
		if c.NaverClientID == "" || c.NaverClientSecret == "" {
			return fmt.Errorf("NAVER_CLIENT_ID and NAVER_CLIENT_SECRET are required when ARTICLE_SOURCE=api")
		}
	case SourceMobile, SourceRSS:
	default:
		return fmt.Errorf("ARTICLE_SOURCE must be 'api', 'mobile' or 'rss', got %q", c.SourceKind)
	}
	if c.MinKeywordMatches < 0 {
		return fmt.Errorf("MIN_KEYWORD_MATCHES must be >= 0")
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be >= 1")
	}
	if c.Display < 1 || c.Display > 100 {
		return fmt.Errorf("DISPLAY_COUNT must be between 1 and 100")
	}
	return nil
}
