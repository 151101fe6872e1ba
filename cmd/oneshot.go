package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mselser95/market-dashboard/internal/app"
	"github.com/mselser95/market-dashboard/internal/marketdata"
	"github.com/mselser95/market-dashboard/internal/session"
	"github.com/mselser95/market-dashboard/pkg/config"
	"go.uber.org/zap"
)

const oneShotTimeout = 60 * time.Second

// oneShot holds what a single-query command needs.
type oneShot struct {
	cfg     *config.Config
	clock   *session.Clock
	fetcher *marketdata.Fetcher
	logger  *zap.Logger
}

func newOneShot() (*oneShot, error) {
	// Load config
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Upstream failures are logged as warnings; keep them off the table
	// output unless asked for.
	level := cfg.LogLevel
	if level == "info" {
		level = "error"
	}
	logger, err := config.NewLogger(level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	clock, err := app.SetupClock(cfg)
	if err != nil {
		return nil, fmt.Errorf("setup clock: %w", err)
	}

	fetcher, err := app.SetupFetcher(cfg, logger, clock)
	if err != nil {
		return nil, fmt.Errorf("setup fetcher: %w", err)
	}

	return &oneShot{cfg: cfg, clock: clock, fetcher: fetcher, logger: logger}, nil
}

func (o *oneShot) close() {
	_ = o.logger.Sync()
}

func oneShotContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), oneShotTimeout)
}

// parseSymbols upper-cases and de-duplicates symbols given as args or
// comma separated lists.
func parseSymbols(args []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, arg := range args {
		for _, s := range strings.Split(arg, ",") {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
