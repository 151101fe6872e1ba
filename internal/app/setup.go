package app

import (
	"context"
	"fmt"
	"time"

	"github.com/mselser95/market-dashboard/internal/marketdata"
	"github.com/mselser95/market-dashboard/internal/refresh"
	"github.com/mselser95/market-dashboard/internal/session"
	"github.com/mselser95/market-dashboard/internal/sources"
	"github.com/mselser95/market-dashboard/internal/sources/calendar"
	"github.com/mselser95/market-dashboard/internal/sources/finnhub"
	"github.com/mselser95/market-dashboard/internal/sources/rss"
	"github.com/mselser95/market-dashboard/internal/sources/yahoo"
	"github.com/mselser95/market-dashboard/internal/telemetry"
	"github.com/mselser95/market-dashboard/pkg/cache"
	"github.com/mselser95/market-dashboard/pkg/config"
	"github.com/mselser95/market-dashboard/pkg/healthprobe"
	"github.com/mselser95/market-dashboard/pkg/httpserver"
	"github.com/mselser95/market-dashboard/pkg/ratelimit"
	"github.com/mselser95/market-dashboard/pkg/types"
	"go.uber.org/zap"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	tracing, err := setupTracing(cfg, logger, opts)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	clock, err := SetupClock(cfg)
	if err != nil {
		shutdownTracingOnError(tracing, logger)
		return nil, fmt.Errorf("setup clock: %w", err)
	}

	fetcher, err := SetupFetcher(cfg, logger, clock)
	if err != nil {
		shutdownTracingOnError(tracing, logger)
		return nil, fmt.Errorf("setup fetcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := setupHealthChecker()
	refreshService := setupRefreshService(cfg, logger, clock, fetcher, healthChecker)
	httpServer := setupHTTPServer(cfg, logger, healthChecker, clock, fetcher, refreshService)

	return &App{
		cfg:            cfg,
		logger:         logger,
		healthChecker:  healthChecker,
		httpServer:     httpServer,
		tracing:        tracing,
		clock:          clock,
		fetcher:        fetcher,
		refreshService: refreshService,
		ctx:            ctx,
		cancel:         cancel,
	}, nil
}

// Fetcher returns the market data aggregator.
func (a *App) Fetcher() *marketdata.Fetcher {
	return a.fetcher
}

// RefreshService returns the refresh scheduler.
func (a *App) RefreshService() *refresh.Service {
	return a.refreshService
}

func setupHealthChecker() *healthprobe.HealthChecker {
	return healthprobe.New()
}

func setupTracing(cfg *config.Config, logger *zap.Logger, opts *Options) (*telemetry.Provider, error) {
	return telemetry.Setup(&telemetry.Config{
		Enabled:        cfg.TracingEnabled,
		ServiceName:    "market-dashboard",
		ServiceVersion: opts.Version,
		Writer:         opts.TraceWriter,
		Logger:         logger,
	})
}

// shutdownTracingOnError releases the tracer provider when New fails after
// installing it.
func shutdownTracingOnError(tracing *telemetry.Provider, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := tracing.Shutdown(ctx)
	if err != nil {
		logger.Warn("tracing-shutdown-error", zap.Error(err))
	}
}

// SetupClock builds the exchange session clock from configuration.
func SetupClock(cfg *config.Config) (*session.Clock, error) {
	loc, err := time.LoadLocation(cfg.MarketTimezone)
	if err != nil {
		return nil, fmt.Errorf("load market timezone %q: %w", cfg.MarketTimezone, err)
	}

	return session.New(&session.Config{
		Location: loc,
		Hours: session.Hours{
			PremarketStart: cfg.PremarketStart,
			Open:           cfg.MarketOpen,
			Close:          cfg.MarketClose,
			AfterHoursEnd:  cfg.AfterHoursEnd,
		},
		Intervals: session.Intervals{
			MarketOpen: cfg.RefreshIntervalOpen,
			Premarket:  cfg.RefreshIntervalPremkt,
			AfterHours: cfg.RefreshIntervalAfterHrs,
			Closed:     cfg.RefreshIntervalClosed,
		},
	})
}

// SetupFetcher wires the cache, limiter and upstream adapters into the
// market data aggregator. The one-shot CLI commands share it with serve.
func SetupFetcher(cfg *config.Config, logger *zap.Logger, clock *session.Clock) (*marketdata.Fetcher, error) {
	httpClient := sources.NewHTTPClient(&sources.HTTPConfig{
		Timeout:     cfg.HTTPTimeout,
		MaxAttempts: cfg.HTTPMaxAttempts,
		Logger:      logger,
	})

	yahooClient := yahoo.New(&yahoo.Config{
		BaseURL:  cfg.YahooBaseURL,
		HTTP:     httpClient,
		Location: clock.Location(),
		Logger:   logger,
	})

	earnings, err := setupEarningsSource(cfg, logger, clock, httpClient, yahooClient)
	if err != nil {
		return nil, err
	}

	return marketdata.New(&marketdata.Config{
		Cache:            setupCache(logger),
		Limiter:          setupLimiter(logger),
		Quotes:           yahooClient,
		History:          yahooClient,
		Earnings:         earnings,
		Details:          yahooClient,
		Economic:         calendar.NewStatic(nil),
		Feeds:            setupFeeds(cfg, logger, httpClient),
		MoverUniverse:    cfg.Universe.Movers,
		EarningsUniverse: cfg.Universe.Earnings,
		MinMarketCap:     cfg.MinMarketCap,
		TTL: marketdata.TTLs{
			Quote:    cfg.QuoteCacheTTL,
			News:     cfg.NewsCacheTTL,
			IV:       cfg.IVCacheTTL,
			Calendar: cfg.CalendarCacheTTL,
		},
		Limits: marketdata.RateLimits{
			Quote:    cfg.QuoteRateLimit,
			History:  cfg.HistoryRateLimit,
			Earnings: cfg.EarningsRateLimit,
			Feed:     cfg.FeedRateLimit,
		},
		Today:  clock.Today,
		Logger: logger,
	})
}

func setupCache(logger *zap.Logger) cache.Cache {
	return cache.NewTTLCache(&cache.TTLConfig{Logger: logger})
}

func setupLimiter(logger *zap.Logger) *ratelimit.Limiter {
	return ratelimit.New(&ratelimit.Config{Logger: logger})
}

func setupEarningsSource(
	cfg *config.Config,
	logger *zap.Logger,
	clock *session.Clock,
	httpClient *sources.HTTPClient,
	yahooClient *yahoo.Client,
) (sources.EarningsSource, error) {
	if cfg.EarningsSource != finnhub.Name {
		return yahooClient, nil
	}

	if cfg.FinnhubAPIKey == "" {
		return nil, finnhub.ErrMissingAPIKey
	}

	logger.Info("earnings-source-selected", zap.String("source", finnhub.Name))
	return finnhub.New(&finnhub.Config{
		BaseURL:  cfg.FinnhubBaseURL,
		APIKey:   cfg.FinnhubAPIKey,
		HTTP:     httpClient,
		Location: clock.Location(),
		Logger:   logger,
	}), nil
}

func setupFeeds(cfg *config.Config, logger *zap.Logger, httpClient *sources.HTTPClient) []sources.Feed {
	feeds := make([]sources.Feed, 0, len(cfg.Universe.NewsSources))
	for _, ns := range cfg.Universe.NewsSources {
		feeds = append(feeds, sources.Feed{
			Name: ns.Name,
			Source: rss.New(&rss.Config{
				Name:       ns.Name,
				URL:        ns.URL,
				HTTPClient: httpClient.Client(),
				UserAgent:  httpClient.UserAgent(),
				Logger:     logger,
			}),
		})
	}
	return feeds
}

func setupRefreshService(
	cfg *config.Config,
	logger *zap.Logger,
	clock *session.Clock,
	fetcher *marketdata.Fetcher,
	healthChecker *healthprobe.HealthChecker,
) *refresh.Service {
	return refresh.New(&refresh.Config{
		Aggregator: fetcher,
		Clock:      clock,
		Panels: refresh.Panels{
			Overview:  cfg.Universe.Overview(),
			IVSymbols: cfg.Universe.IVStocks,
			TopMovers: cfg.TopMoversCount,
			NewsLimit: cfg.NewsLimit,
		},
		PanelTimeout: cfg.PanelTimeout,
		OnPublish: func(snap *types.Snapshot) {
			healthChecker.MarkRefreshed(snap.CompletedAt, snap.Complete())
		},
		Logger: logger,
	})
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	clock *session.Clock,
	fetcher *marketdata.Fetcher,
	refreshService *refresh.Service,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		MarketData:    fetcher,
		Refresher:     refreshService,
		Clock:         clock,
		TopMovers:     cfg.TopMoversCount,
		NewsLimit:     cfg.NewsLimit,
	})
}
