package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is loaded once at startup
// and never modified afterwards.
type Config struct {
	// Application
	LogLevel       string
	HTTPPort       string
	TracingEnabled bool

	// Cache lifetimes
	QuoteCacheTTL    time.Duration
	NewsCacheTTL     time.Duration
	IVCacheTTL       time.Duration
	CalendarCacheTTL time.Duration

	// Rate limits, calls per minute
	QuoteRateLimit    int
	HistoryRateLimit  int
	EarningsRateLimit int
	FeedRateLimit     int

	// Market session, boundaries as offsets from local midnight
	MarketTimezone          string
	PremarketStart          time.Duration
	MarketOpen              time.Duration
	MarketClose             time.Duration
	AfterHoursEnd           time.Duration
	RefreshIntervalOpen     time.Duration
	RefreshIntervalPremkt   time.Duration
	RefreshIntervalAfterHrs time.Duration
	RefreshIntervalClosed   time.Duration

	// Aggregation
	MinMarketCap   float64
	TopMoversCount int
	NewsLimit      int
	PanelTimeout   time.Duration

	// Upstreams
	YahooBaseURL    string
	EarningsSource  string // "yahoo" or "finnhub"
	FinnhubBaseURL  string
	FinnhubAPIKey   string
	HTTPTimeout     time.Duration
	HTTPMaxAttempts int

	// Symbol universes and feeds
	UniverseFile string
	Universe     Universe
}

// LoadFromEnv loads configuration from environment variables with defaults.
// A .env file in the working directory is applied first when present.
func LoadFromEnv() (*Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		// Application defaults
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort:       getEnvOrDefault("HTTP_PORT", "8080"),
		TracingEnabled: getBoolOrDefault("TRACING_ENABLED", false),

		// Cache defaults
		QuoteCacheTTL:    getDurationOrDefault("QUOTE_CACHE_TTL", 30*time.Second),
		NewsCacheTTL:     getDurationOrDefault("NEWS_CACHE_TTL", 5*time.Minute),
		IVCacheTTL:       getDurationOrDefault("IV_CACHE_TTL", 60*time.Second),
		CalendarCacheTTL: getDurationOrDefault("CALENDAR_CACHE_TTL", time.Hour),

		// Rate limit defaults
		QuoteRateLimit:    getIntOrDefault("QUOTE_RATE_LIMIT", 120),
		HistoryRateLimit:  getIntOrDefault("HISTORY_RATE_LIMIT", 120),
		EarningsRateLimit: getIntOrDefault("EARNINGS_RATE_LIMIT", 60),
		FeedRateLimit:     getIntOrDefault("FEED_RATE_LIMIT", 30),

		// Session defaults (US equities)
		MarketTimezone:          getEnvOrDefault("MARKET_TIMEZONE", "America/New_York"),
		PremarketStart:          getClockOrDefault("PREMARKET_START", 7*time.Hour),
		MarketOpen:              getClockOrDefault("MARKET_OPEN", 9*time.Hour+30*time.Minute),
		MarketClose:             getClockOrDefault("MARKET_CLOSE", 16*time.Hour),
		AfterHoursEnd:           getClockOrDefault("AFTERHOURS_END", 20*time.Hour),
		RefreshIntervalOpen:     getDurationOrDefault("REFRESH_INTERVAL_OPEN", 60*time.Second),
		RefreshIntervalPremkt:   getDurationOrDefault("REFRESH_INTERVAL_PREMARKET", 300*time.Second),
		RefreshIntervalAfterHrs: getDurationOrDefault("REFRESH_INTERVAL_AFTERHOURS", 1800*time.Second),
		RefreshIntervalClosed:   getDurationOrDefault("REFRESH_INTERVAL_CLOSED", 3600*time.Second),

		// Aggregation defaults
		MinMarketCap:   getFloat64OrDefault("MIN_MARKET_CAP", 5e9),
		TopMoversCount: getIntOrDefault("TOP_MOVERS_COUNT", 5),
		NewsLimit:      getIntOrDefault("NEWS_LIMIT", 10),
		PanelTimeout:   getDurationOrDefault("PANEL_TIMEOUT", 30*time.Second),

		// Upstream defaults
		YahooBaseURL:    getEnvOrDefault("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		EarningsSource:  getEnvOrDefault("EARNINGS_SOURCE", "yahoo"),
		FinnhubBaseURL:  getEnvOrDefault("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
		FinnhubAPIKey:   os.Getenv("FINNHUB_API_KEY"),
		HTTPTimeout:     getDurationOrDefault("HTTP_TIMEOUT", 10*time.Second),
		HTTPMaxAttempts: getIntOrDefault("HTTP_MAX_ATTEMPTS", 3),

		UniverseFile: os.Getenv("UNIVERSE_FILE"),
		Universe:     DefaultUniverse(),
	}

	if cfg.UniverseFile != "" {
		cfg.Universe, err = LoadUniverse(cfg.UniverseFile)
		if err != nil {
			return nil, fmt.Errorf("load universe: %w", err)
		}
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	ttls := []struct {
		name string
		ttl  time.Duration
	}{
		{"QUOTE_CACHE_TTL", c.QuoteCacheTTL},
		{"NEWS_CACHE_TTL", c.NewsCacheTTL},
		{"IV_CACHE_TTL", c.IVCacheTTL},
		{"CALENDAR_CACHE_TTL", c.CalendarCacheTTL},
	}
	for _, t := range ttls {
		if t.ttl <= 0 {
			return fmt.Errorf("%s must be positive, got %v", t.name, t.ttl)
		}
	}

	limits := []struct {
		name  string
		limit int
	}{
		{"QUOTE_RATE_LIMIT", c.QuoteRateLimit},
		{"HISTORY_RATE_LIMIT", c.HistoryRateLimit},
		{"EARNINGS_RATE_LIMIT", c.EarningsRateLimit},
		{"FEED_RATE_LIMIT", c.FeedRateLimit},
	}
	for _, l := range limits {
		if l.limit <= 0 {
			return fmt.Errorf("%s must be positive, got %d", l.name, l.limit)
		}
	}

	if !(c.PremarketStart <= c.MarketOpen && c.MarketOpen < c.MarketClose && c.MarketClose <= c.AfterHoursEnd) {
		return fmt.Errorf("session boundaries must satisfy PREMARKET_START <= MARKET_OPEN < MARKET_CLOSE <= AFTERHOURS_END")
	}

	if c.TopMoversCount <= 0 {
		return fmt.Errorf("TOP_MOVERS_COUNT must be positive, got %d", c.TopMoversCount)
	}

	if c.NewsLimit <= 0 {
		return fmt.Errorf("NEWS_LIMIT must be positive, got %d", c.NewsLimit)
	}

	if c.MinMarketCap < 0 {
		return fmt.Errorf("MIN_MARKET_CAP cannot be negative, got %f", c.MinMarketCap)
	}

	if c.PanelTimeout <= 0 {
		return fmt.Errorf("PANEL_TIMEOUT must be positive, got %v", c.PanelTimeout)
	}

	switch c.EarningsSource {
	case "yahoo":
	case "finnhub":
		if c.FinnhubAPIKey == "" {
			return fmt.Errorf("FINNHUB_API_KEY is required when EARNINGS_SOURCE is 'finnhub'")
		}
	default:
		return fmt.Errorf("EARNINGS_SOURCE must be 'yahoo' or 'finnhub', got %q", c.EarningsSource)
	}

	err := c.Universe.Validate()
	if err != nil {
		return fmt.Errorf("universe: %w", err)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

// getDurationOrDefault accepts a Go duration ("90s", "5m") or a bare
// integer number of seconds.
func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err == nil {
		return duration
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

// getClockOrDefault reads a local wall-clock time ("15:04") as an offset
// from midnight.
func getClockOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	t, err := time.Parse("15:04", value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}
