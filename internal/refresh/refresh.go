// Package refresh drives dashboard refresh cycles. Each cycle loads every
// panel concurrently, waits a bounded time for them and publishes a Snapshot.
// The wait before the next cycle follows the market session.
package refresh

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mselser95/market-dashboard/internal/session"
	"github.com/mselser95/market-dashboard/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Panel names as reported in Snapshot.Pending.
const (
	PanelOverview   = "overview"
	PanelGainers    = "gainers"
	PanelLosers     = "losers"
	PanelVolatility = "volatility"
	PanelNews       = "news"
	PanelEconomic   = "economic"
	PanelEarnings   = "earnings"
)

// ErrCycleInFlight is returned when a cycle is requested while one runs.
var ErrCycleInFlight = errors.New("refresh cycle already in flight")

// Aggregator is the market data surface the panels read from.
type Aggregator interface {
	GetQuotesBatch(ctx context.Context, symbols []string) map[string]types.Quote
	GetTopMovers(ctx context.Context, direction types.Direction, limit int) []types.Quote
	GetIVDataBatch(ctx context.Context, symbols []string) map[string]types.VolatilityRecord
	GetNewsHeadlines(ctx context.Context, limit int) []types.Headline
	GetEconomicCalendar(ctx context.Context, date string) []types.EconomicEvent
	GetEarningsCalendar(ctx context.Context, date string) types.EarningsSchedule
	ClearCache()
}

// Panels lists what each cycle loads.
type Panels struct {
	Overview  []string // indices, volatility and rates symbols
	IVSymbols []string
	TopMovers int
	NewsLimit int
}

// Service runs refresh cycles.
type Service struct {
	agg       Aggregator
	clock     *session.Clock
	panels    Panels
	timeout   time.Duration
	onPublish func(*types.Snapshot)
	logger    *zap.Logger

	inFlight atomic.Bool
	manualCh chan struct{}

	mu     sync.RWMutex
	latest *types.Snapshot
}

// Config holds refresh service configuration.
type Config struct {
	Aggregator   Aggregator
	Clock        *session.Clock
	Panels       Panels
	PanelTimeout time.Duration // how long a cycle waits for its panels
	OnPublish    func(*types.Snapshot)
	Logger       *zap.Logger
}

// New creates a refresh service.
func New(cfg *Config) *Service {
	s := &Service{
		agg:       cfg.Aggregator,
		clock:     cfg.Clock,
		panels:    cfg.Panels,
		timeout:   cfg.PanelTimeout,
		onPublish: cfg.OnPublish,
		logger:    cfg.Logger,
		manualCh:  make(chan struct{}, 1),
	}

	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	return s
}

// Run executes a cycle immediately, then keeps scheduling cycles until ctx
// is cancelled. The delay after each cycle comes from the session state at
// the time the cycle finished.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("refresh-service-starting",
		zap.Duration("panel-timeout", s.timeout))

	s.cycle(ctx)

	for {
		state := s.clock.State(s.clock.Now())
		wait := s.clock.RefreshInterval(state)
		NextRefreshSeconds.Set(wait.Seconds())
		s.logger.Info("next-refresh-scheduled",
			zap.String("session", string(state)),
			zap.Duration("in", wait))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("refresh-service-stopping")
			return ctx.Err()
		case <-timer.C:
			s.cycle(ctx)
		case <-s.manualCh:
			// A manual cycle just ran; restart the schedule from it.
			timer.Stop()
		}
	}
}

func (s *Service) cycle(ctx context.Context) {
	_, err := s.RunCycle(ctx)
	if err != nil && !errors.Is(err, ErrCycleInFlight) {
		s.logger.Warn("refresh-cycle-failed", zap.Error(err))
	}
}

// Refresh clears the aggregator cache and runs a cycle right away. When a
// Run loop is active it is woken so the schedule restarts from this cycle.
//
// The cycle slot is claimed before the cache is cleared, so a refresh that
// loses to a running cycle leaves the cache alone.
func (s *Service) Refresh(ctx context.Context) (*types.Snapshot, error) {
	if !s.claim() {
		return nil, ErrCycleInFlight
	}

	s.logger.Info("manual-refresh-triggered")
	s.agg.ClearCache()

	snap := s.runClaimed(ctx)

	select {
	case s.manualCh <- struct{}{}:
	default:
	}

	return snap, nil
}

// Latest returns the most recently published snapshot, or nil before the
// first cycle completes. Snapshots are never modified after publication.
func (s *Service) Latest() *types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// RunCycle loads all panels and publishes the result. Panels still running
// when the timeout passes are listed as pending; they keep running in the
// background and fill the cache for the next cycle, and no new cycle starts
// until they have finished.
func (s *Service) RunCycle(ctx context.Context) (*types.Snapshot, error) {
	if !s.claim() {
		return nil, ErrCycleInFlight
	}
	return s.runClaimed(ctx), nil
}

// claim takes the cycle slot, reporting false when another cycle holds it.
func (s *Service) claim() bool {
	if s.inFlight.CompareAndSwap(false, true) {
		return true
	}
	CyclesTotal.WithLabelValues("skipped").Inc()
	s.logger.Debug("refresh-cycle-skipped")
	return false
}

// runClaimed runs one cycle for a caller that holds the slot. The slot is
// released once every panel has returned.
func (s *Service) runClaimed(ctx context.Context) *types.Snapshot {
	start := time.Now()
	b := &builder{
		snap: &types.Snapshot{
			CycleID:   uuid.NewString(),
			StartedAt: s.clock.Now(),
			Session:   string(s.clock.State(s.clock.Now())),
		},
		done: make(map[string]bool, 7),
	}

	// Panels run detached: the deadline bounds the wait, not the work.
	panelCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	for _, load := range s.loaders(b) {
		load := load
		g.Go(func() error {
			load(panelCtx)
			return nil
		})
	}

	finished := make(chan struct{})
	go func() {
		_ = g.Wait()
		s.inFlight.Store(false)
		close(finished)
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case <-finished:
	case <-timer.C:
	case <-ctx.Done():
	}

	snap := b.publish(s.clock.Now())
	CycleDurationSeconds.Observe(time.Since(start).Seconds())

	if snap.Complete() {
		CyclesTotal.WithLabelValues("complete").Inc()
	} else {
		CyclesTotal.WithLabelValues("partial").Inc()
		for _, p := range snap.Pending {
			PanelTimeoutsTotal.WithLabelValues(p).Inc()
		}
		s.logger.Warn("refresh-cycle-partial",
			zap.String("cycle-id", snap.CycleID),
			zap.Strings("pending", snap.Pending))
	}

	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()

	if s.onPublish != nil {
		s.onPublish(snap)
	}

	s.logger.Info("refresh-cycle-complete",
		zap.String("cycle-id", snap.CycleID),
		zap.String("session", snap.Session),
		zap.Int("quotes", len(snap.Quotes)),
		zap.Int("headlines", len(snap.Headlines)),
		zap.Duration("duration", time.Since(start)))

	return snap
}

func (s *Service) loaders(b *builder) map[string]func(context.Context) {
	return map[string]func(context.Context){
		PanelOverview: func(ctx context.Context) {
			quotes := s.agg.GetQuotesBatch(ctx, s.panels.Overview)
			b.set(PanelOverview, func(snap *types.Snapshot) { snap.Quotes = quotes })
		},
		PanelGainers: func(ctx context.Context) {
			movers := s.agg.GetTopMovers(ctx, types.Gainers, s.panels.TopMovers)
			b.set(PanelGainers, func(snap *types.Snapshot) { snap.Gainers = movers })
		},
		PanelLosers: func(ctx context.Context) {
			movers := s.agg.GetTopMovers(ctx, types.Losers, s.panels.TopMovers)
			b.set(PanelLosers, func(snap *types.Snapshot) { snap.Losers = movers })
		},
		PanelVolatility: func(ctx context.Context) {
			vol := s.agg.GetIVDataBatch(ctx, s.panels.IVSymbols)
			b.set(PanelVolatility, func(snap *types.Snapshot) { snap.Volatility = vol })
		},
		PanelNews: func(ctx context.Context) {
			headlines := s.agg.GetNewsHeadlines(ctx, s.panels.NewsLimit)
			b.set(PanelNews, func(snap *types.Snapshot) { snap.Headlines = headlines })
		},
		PanelEconomic: func(ctx context.Context) {
			events := s.agg.GetEconomicCalendar(ctx, "")
			b.set(PanelEconomic, func(snap *types.Snapshot) { snap.Economic = events })
		},
		PanelEarnings: func(ctx context.Context) {
			sched := s.agg.GetEarningsCalendar(ctx, "")
			b.set(PanelEarnings, func(snap *types.Snapshot) { snap.Earnings = sched })
		},
	}
}

// builder collects panel results for one cycle. After publish, late panels
// write into a snapshot nobody reads.
type builder struct {
	mu        sync.Mutex
	snap      *types.Snapshot
	done      map[string]bool
	published bool
}

// set stores a panel result and marks the panel done in one step, so a
// published snapshot never lists a filled panel as pending.
func (b *builder) set(name string, apply func(*types.Snapshot)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.published {
		return
	}
	apply(b.snap)
	b.done[name] = true
}

func (b *builder) publish(now time.Time) *types.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.published = true
	out := *b.snap
	out.CompletedAt = now

	for _, name := range allPanels {
		if !b.done[name] {
			out.Pending = append(out.Pending, name)
		}
	}
	sort.Strings(out.Pending)

	return &out
}

var allPanels = []string{
	PanelOverview, PanelGainers, PanelLosers, PanelVolatility,
	PanelNews, PanelEconomic, PanelEarnings,
}
