package marketdata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mselser95/market-dashboard/internal/sources"
	"github.com/mselser95/market-dashboard/pkg/cache"
	"github.com/mselser95/market-dashboard/pkg/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errUpstream = errors.New("upstream unavailable")

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingLimiter struct {
	mu    sync.Mutex
	calls map[string]int
	rates map[string]int
}

func (l *countingLimiter) Throttle(source string, callsPerMinute int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		l.calls = make(map[string]int)
		l.rates = make(map[string]int)
	}
	l.calls[source]++
	l.rates[source] = callsPerMinute
}

func (l *countingLimiter) Calls(source string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[source]
}

type fakeQuotes struct {
	quotes map[string]*sources.RawQuote
	delay  time.Duration
	calls  atomic.Int32
}

func (f *fakeQuotes) Name() string { return "fake" }

func (f *fakeQuotes) FetchQuote(ctx context.Context, symbol string) (*sources.RawQuote, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, sources.Wrap("fake", symbol, errUpstream)
	}
	return q, nil
}

type fakeHistory struct {
	closes map[string][]float64
	calls  atomic.Int32
}

func (f *fakeHistory) Name() string { return "fake" }

func (f *fakeHistory) FetchDailyCloses(_ context.Context, symbol string) ([]float64, error) {
	f.calls.Add(1)
	c, ok := f.closes[symbol]
	if !ok {
		return nil, sources.Wrap("fake", symbol, errUpstream)
	}
	if len(c) == 0 {
		return nil, sources.Wrap("fake", symbol, sources.ErrNoData)
	}
	return c, nil
}

type fakeEarnings struct {
	dates map[string][]sources.EarningsDate
	fail  map[string]bool
	calls atomic.Int32
}

func (f *fakeEarnings) Name() string { return "fake" }

func (f *fakeEarnings) FetchEarningsDates(_ context.Context, symbol string) ([]sources.EarningsDate, error) {
	f.calls.Add(1)
	if f.fail[symbol] {
		return nil, sources.Wrap("fake", symbol, errUpstream)
	}
	return f.dates[symbol], nil
}

type fakeDetails struct {
	details map[string]*types.EarningsDetails
	calls   atomic.Int32
}

func (f *fakeDetails) Name() string { return "fake" }

func (f *fakeDetails) FetchEarningsDetails(_ context.Context, symbol string) (*types.EarningsDetails, error) {
	f.calls.Add(1)
	d, ok := f.details[symbol]
	if !ok {
		return nil, sources.Wrap("fake", symbol, sources.ErrNoData)
	}
	return d, nil
}

type fakeEconomic struct {
	events []types.EconomicEvent
	dates  []string
	calls  atomic.Int32
}

func (f *fakeEconomic) FetchEvents(_ context.Context, date string) ([]types.EconomicEvent, error) {
	f.calls.Add(1)
	f.dates = append(f.dates, date)
	out := make([]types.EconomicEvent, len(f.events))
	copy(out, f.events)
	return out, nil
}

type fakeFeed struct {
	entries []sources.FeedEntry
	err     error
	calls   atomic.Int32
}

func (f *fakeFeed) FetchEntries(_ context.Context) ([]sources.FeedEntry, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

type harness struct {
	fetcher  *Fetcher
	clock    *fakeClock
	limiter  *countingLimiter
	quotes   *fakeQuotes
	history  *fakeHistory
	earnings *fakeEarnings
	details  *fakeDetails
	economic *fakeEconomic
}

func newHarness(t *testing.T, feeds ...sources.Feed) *harness {
	t.Helper()

	h := &harness{
		clock:    &fakeClock{now: time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC)},
		limiter:  &countingLimiter{},
		quotes:   &fakeQuotes{quotes: map[string]*sources.RawQuote{}},
		history:  &fakeHistory{closes: map[string][]float64{}},
		earnings: &fakeEarnings{dates: map[string][]sources.EarningsDate{}, fail: map[string]bool{}},
		details:  &fakeDetails{details: map[string]*types.EarningsDetails{}},
		economic: &fakeEconomic{},
	}

	c := cache.NewTTLCache(&cache.TTLConfig{Logger: zap.NewNop(), Now: h.clock.Now})

	f, err := New(&Config{
		Cache:        c,
		Limiter:      h.limiter,
		Quotes:       h.quotes,
		History:      h.history,
		Earnings:     h.earnings,
		Details:      h.details,
		Economic:     h.economic,
		Feeds:        feeds,
		MinMarketCap: 5e9,
		TTL: TTLs{
			Quote:    30 * time.Second,
			News:     5 * time.Minute,
			IV:       time.Minute,
			Calendar: time.Hour,
		},
		Limits: RateLimits{Quote: 120, History: 120, Earnings: 60, Feed: 30},
		Today:  func() string { return "2026-10-16" },
		Now:    h.clock.Now,
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	h.fetcher = f
	return h
}
