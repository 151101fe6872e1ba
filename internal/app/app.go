package app

import (
	"context"
	"io"
	"sync"

	"github.com/mselser95/market-dashboard/internal/marketdata"
	"github.com/mselser95/market-dashboard/internal/refresh"
	"github.com/mselser95/market-dashboard/internal/session"
	"github.com/mselser95/market-dashboard/internal/telemetry"
	"github.com/mselser95/market-dashboard/pkg/config"
	"github.com/mselser95/market-dashboard/pkg/healthprobe"
	"github.com/mselser95/market-dashboard/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg            *config.Config
	logger         *zap.Logger
	healthChecker  *healthprobe.HealthChecker
	httpServer     *httpserver.Server
	tracing        *telemetry.Provider
	clock          *session.Clock
	fetcher        *marketdata.Fetcher
	refreshService *refresh.Service
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
}

// Options holds application options.
type Options struct {
	Version     string    // reported as the tracing service version
	TraceWriter io.Writer // span output when tracing is enabled, defaults to stdout
}
