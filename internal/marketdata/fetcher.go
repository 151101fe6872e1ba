// Package marketdata aggregates quotes, movers, volatility, headlines and
// calendars from the source adapters behind a TTL cache and a per-source
// rate limiter.
//
// Every operation is safe for concurrent use and reports missing data as an
// absent result rather than an error. Adapter calls run detached from the
// caller's cancellation so a fetch that outlives its caller still completes
// and fills the cache for the next read.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mselser95/market-dashboard/internal/sources"
	"github.com/mselser95/market-dashboard/pkg/cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache key prefixes. One entry exists per logical query.
const (
	quoteKeyPrefix    = "quote_"
	moversKeyPrefix   = "movers_"
	ivKeyPrefix       = "iv_"
	newsKey           = "news_headlines"
	econKeyPrefix     = "econ_calendar_"
	earningsKeyPrefix = "earnings_"
	detailsKeyPrefix  = "earnings_details_"
)

// Throttler gates calls to a named upstream.
type Throttler interface {
	Throttle(source string, callsPerMinute int)
}

// TTLs groups cache lifetimes per data category.
type TTLs struct {
	Quote    time.Duration
	News     time.Duration
	IV       time.Duration
	Calendar time.Duration
}

// RateLimits groups per-source limits in calls per minute.
type RateLimits struct {
	Quote    int
	History  int
	Earnings int
	Feed     int
}

// Fetcher is the market data aggregator.
type Fetcher struct {
	cache    cache.Cache
	limiter  Throttler
	quotes   sources.QuoteSource
	history  sources.HistorySource
	earnings sources.EarningsSource
	details  sources.DetailsSource
	economic sources.EconomicSource
	feeds    []sources.Feed

	moverUniverse    []string
	earningsUniverse []string
	minMarketCap     float64
	headlinesPerFeed int

	ttl    TTLs
	limits RateLimits
	today  func() string
	now    func() time.Time
	logger *zap.Logger

	// flight collapses concurrent misses on one cache key into one fetch.
	flight singleflight.Group
}

// Config holds Fetcher dependencies and tuning.
type Config struct {
	Cache    cache.Cache
	Limiter  Throttler
	Quotes   sources.QuoteSource
	History  sources.HistorySource
	Earnings sources.EarningsSource
	Details  sources.DetailsSource // optional
	Economic sources.EconomicSource
	Feeds    []sources.Feed

	MoverUniverse    []string
	EarningsUniverse []string
	MinMarketCap     float64
	HeadlinesPerFeed int // entries taken from each feed, default 3

	TTL    TTLs
	Limits RateLimits

	// Today returns the exchange-local date used when a calendar call
	// omits one.
	Today  func() string
	Now    func() time.Time
	Logger *zap.Logger
}

// New creates a Fetcher.
func New(cfg *Config) (*Fetcher, error) {
	if cfg.Cache == nil {
		return nil, errors.New("cache is required")
	}
	if cfg.Limiter == nil {
		return nil, errors.New("limiter is required")
	}
	if cfg.Quotes == nil || cfg.History == nil {
		return nil, errors.New("quote and history sources are required")
	}
	if cfg.Earnings == nil || cfg.Economic == nil {
		return nil, errors.New("earnings and economic sources are required")
	}

	f := &Fetcher{
		cache:            cfg.Cache,
		limiter:          cfg.Limiter,
		quotes:           cfg.Quotes,
		history:          cfg.History,
		earnings:         cfg.Earnings,
		details:          cfg.Details,
		economic:         cfg.Economic,
		feeds:            cfg.Feeds,
		moverUniverse:    cfg.MoverUniverse,
		earningsUniverse: cfg.EarningsUniverse,
		minMarketCap:     cfg.MinMarketCap,
		headlinesPerFeed: cfg.HeadlinesPerFeed,
		ttl:              cfg.TTL,
		limits:           cfg.Limits,
		today:            cfg.Today,
		now:              cfg.Now,
		logger:           cfg.Logger,
	}

	if f.headlinesPerFeed <= 0 {
		f.headlinesPerFeed = 3
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.today == nil {
		f.today = func() string { return f.now().Format(time.DateOnly) }
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}

	return f, nil
}

// ClearCache drops every cached entry. Rate limiter state is untouched.
func (f *Fetcher) ClearCache() {
	f.cache.Clear()
	f.logger.Info("market-data-cache-cleared")
}

type loaded struct {
	value interface{}
	ok    bool
}

// loadOnce returns the cached value for key or runs fetch to produce it.
// Callers missing the same key together share one fetch; fetch is
// responsible for caching what it wants kept. The cache is checked again
// inside the flight so a caller arriving just after a fetch finished does
// not repeat it.
func (f *Fetcher) loadOnce(key string, fetch func() (interface{}, bool)) (interface{}, bool) {
	v, _, _ := f.flight.Do(key, func() (interface{}, error) {
		if cached, ok := f.cache.Get(key); ok {
			return loaded{value: cached, ok: true}, nil
		}
		value, ok := fetch()
		return loaded{value: value, ok: ok}, nil
	})
	l := v.(loaded)
	return l.value, l.ok
}

// throttle waits for the limiter slot of one adapter capability.
func (f *Fetcher) throttle(source, capability string, callsPerMinute int) {
	f.limiter.Throttle(fmt.Sprintf("%s/%s", source, capability), callsPerMinute)
}

// detach strips cancellation so adapter calls outlive an impatient caller.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// noteFailure logs and counts an item that was recovered as absent.
func (f *Fetcher) noteFailure(operation, identifier string, err error) {
	ItemFailuresTotal.WithLabelValues(operation).Inc()

	level := f.logger.Warn
	if errors.Is(err, sources.ErrNoData) {
		level = f.logger.Info
	}
	level(operation+"-failed",
		zap.String("id", identifier),
		zap.Error(err))
}

func observe(operation string, start time.Time) {
	OperationDurationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
