package marketdata

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mselser95/market-dashboard/internal/sources"
	"github.com/mselser95/market-dashboard/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetQuote_Normalizes(t *testing.T) {
	h := newHarness(t)
	h.quotes.quotes["AAPL"] = &sources.RawQuote{
		CurrentPrice:       f64(191),
		RegularMarketPrice: f64(190),
		Change:             f64(1.5),
		ChangePct:          f64(0.79),
		Volume:             i64(1000),
		MarketCap:          f64(3e12),
	}

	q, ok := h.fetcher.GetQuote(context.Background(), "AAPL")
	require.True(t, ok)

	assert.Equal(t, types.Quote{
		Symbol:     "AAPL",
		Price:      191,
		Change:     1.5,
		ChangePct:  0.79,
		Volume:     1000,
		MarketCap:  3e12,
		ObservedAt: h.clock.Now(),
	}, q)
	assert.Equal(t, 1, h.limiter.Calls("fake/quote"))
	assert.Equal(t, 120, h.limiter.rates["fake/quote"])
}

func TestGetQuote_PriceFallback(t *testing.T) {
	tests := []struct {
		name      string
		raw       *sources.RawQuote
		wantPrice float64
		wantOK    bool
	}{
		{"current-price", &sources.RawQuote{CurrentPrice: f64(10), RegularMarketPrice: f64(9)}, 10, true},
		{"missing-current", &sources.RawQuote{RegularMarketPrice: f64(9)}, 9, true},
		{"zero-current", &sources.RawQuote{CurrentPrice: f64(0), RegularMarketPrice: f64(9)}, 9, true},
		{"no-price", &sources.RawQuote{Change: f64(1)}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.quotes.quotes["X"] = tt.raw

			q, ok := h.fetcher.GetQuote(context.Background(), "X")
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.wantPrice, q.Price, 1e-9)
			assert.Zero(t, q.Volume)
		})
	}
}

func TestGetQuote_CachedWithinTTL(t *testing.T) {
	h := newHarness(t)
	h.quotes.quotes["SPY"] = &sources.RawQuote{RegularMarketPrice: f64(500)}

	_, ok := h.fetcher.GetQuote(context.Background(), "SPY")
	require.True(t, ok)
	h.clock.Advance(29 * time.Second)
	_, ok = h.fetcher.GetQuote(context.Background(), "SPY")
	require.True(t, ok)

	assert.Equal(t, int32(1), h.quotes.calls.Load())
	assert.Equal(t, 1, h.limiter.Calls("fake/quote"))

	h.clock.Advance(time.Second)
	_, ok = h.fetcher.GetQuote(context.Background(), "SPY")
	require.True(t, ok)
	assert.Equal(t, int32(2), h.quotes.calls.Load())
}

func TestGetQuote_FailureIsAbsentAndNotCached(t *testing.T) {
	h := newHarness(t)

	_, ok := h.fetcher.GetQuote(context.Background(), "MISSING")
	assert.False(t, ok)
	_, ok = h.fetcher.GetQuote(context.Background(), "MISSING")
	assert.False(t, ok)

	assert.Equal(t, int32(2), h.quotes.calls.Load())
}

func TestGetQuote_IgnoresCallerCancellation(t *testing.T) {
	h := newHarness(t)
	h.quotes.quotes["QQQ"] = &sources.RawQuote{RegularMarketPrice: f64(400)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q, ok := h.fetcher.GetQuote(ctx, "QQQ")
	require.True(t, ok)
	assert.InDelta(t, 400.0, q.Price, 1e-9)

	_, ok = h.fetcher.GetQuote(context.Background(), "QQQ")
	require.True(t, ok)
	assert.Equal(t, int32(1), h.quotes.calls.Load())
}

func TestGetQuotesBatch_SkipsFailures(t *testing.T) {
	h := newHarness(t)
	h.quotes.quotes["A"] = &sources.RawQuote{RegularMarketPrice: f64(1)}
	h.quotes.quotes["C"] = &sources.RawQuote{RegularMarketPrice: f64(3)}

	got := h.fetcher.GetQuotesBatch(context.Background(), []string{"A", "B", "C"})

	require.Len(t, got, 2)
	assert.Contains(t, got, "A")
	assert.Contains(t, got, "C")
	assert.NotContains(t, got, "B")
}

func TestGetQuotesBatch_TotalOutage(t *testing.T) {
	h := newHarness(t)

	got := h.fetcher.GetQuotesBatch(context.Background(), []string{"A", "B"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func moverHarness(t *testing.T) *harness {
	t.Helper()

	h := newHarness(t)
	h.fetcher.moverUniverse = []string{"A", "B", "C", "D", "E", "SMALL", "EDGE", "DOWN"}

	add := func(sym string, pct, cap float64) {
		h.quotes.quotes[sym] = &sources.RawQuote{
			RegularMarketPrice: f64(100),
			ChangePct:          f64(pct),
			MarketCap:          f64(cap),
		}
	}
	add("A", 1.0, 10e9)
	add("B", 3.0, 10e9)
	add("C", 3.0, 10e9) // ties with B, scanned later
	add("D", -2.0, 10e9)
	// E fails upstream
	add("SMALL", 9.0, 1e9)
	add("EDGE", 8.0, 5e9) // exactly at the floor
	add("DOWN", -4.0, 6e9)

	return h
}

func symbols(qs []types.Quote) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.Symbol
	}
	return out
}

func TestGetTopMovers_Gainers(t *testing.T) {
	h := moverHarness(t)

	got := h.fetcher.GetTopMovers(context.Background(), types.Gainers, 3)

	assert.Equal(t, []string{"B", "C", "A"}, symbols(got))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].ChangePct, got[i].ChangePct)
	}
	for _, q := range got {
		assert.Greater(t, q.MarketCap, 5e9)
	}
}

func TestGetTopMovers_Losers(t *testing.T) {
	h := moverHarness(t)

	got := h.fetcher.GetTopMovers(context.Background(), types.Losers, 10)

	assert.Equal(t, []string{"DOWN", "D", "A", "B", "C"}, symbols(got))
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].ChangePct, got[i].ChangePct)
	}
}

func TestGetTopMovers_CachedByDirection(t *testing.T) {
	h := moverHarness(t)

	first := h.fetcher.GetTopMovers(context.Background(), types.Gainers, 2)
	require.Len(t, first, 2)
	calls := h.quotes.calls.Load()

	second := h.fetcher.GetTopMovers(context.Background(), types.Gainers, 5)
	assert.Equal(t, symbols(first), symbols(second))
	assert.Equal(t, calls, h.quotes.calls.Load())

	third := h.fetcher.GetTopMovers(context.Background(), types.Gainers, 1)
	assert.Equal(t, []string{"B"}, symbols(third))
}

func TestGetTopMovers_ConcurrentDirectionsShareFetches(t *testing.T) {
	h := newHarness(t)
	h.quotes.delay = 5 * time.Millisecond

	universe := make([]string, 25)
	for i := range universe {
		universe[i] = fmt.Sprintf("S%02d", i)
		h.quotes.quotes[universe[i]] = &sources.RawQuote{
			RegularMarketPrice: f64(100),
			ChangePct:          f64(float64(i - 12)),
			MarketCap:          f64(10e9),
		}
	}
	h.fetcher.moverUniverse = universe

	var (
		wg              sync.WaitGroup
		gainers, losers []types.Quote
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		gainers = h.fetcher.GetTopMovers(context.Background(), types.Gainers, 5)
	}()
	go func() {
		defer wg.Done()
		losers = h.fetcher.GetTopMovers(context.Background(), types.Losers, 5)
	}()
	wg.Wait()

	assert.Equal(t, []string{"S24", "S23", "S22", "S21", "S20"}, symbols(gainers))
	assert.Equal(t, []string{"S00", "S01", "S02", "S03", "S04"}, symbols(losers))
	assert.Equal(t, int32(len(universe)), h.quotes.calls.Load())
	assert.Equal(t, len(universe), h.limiter.Calls("fake/quote"))
}

func TestGetQuote_ConcurrentMissesFetchOnce(t *testing.T) {
	h := newHarness(t)
	h.quotes.delay = 10 * time.Millisecond
	h.quotes.quotes["SPY"] = &sources.RawQuote{RegularMarketPrice: f64(500)}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, ok := h.fetcher.GetQuote(context.Background(), "SPY")
			assert.True(t, ok)
			assert.InDelta(t, 500.0, q.Price, 1e-9)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), h.quotes.calls.Load())
}

func TestGetTopMovers_InvalidInput(t *testing.T) {
	h := moverHarness(t)

	assert.Empty(t, h.fetcher.GetTopMovers(context.Background(), types.Direction("sideways"), 5))
	assert.Empty(t, h.fetcher.GetTopMovers(context.Background(), types.Gainers, 0))
	assert.Equal(t, int32(0), h.quotes.calls.Load())
}

func TestGetTopMovers_OutageNotCached(t *testing.T) {
	h := newHarness(t)
	h.fetcher.moverUniverse = []string{"A"}

	assert.Empty(t, h.fetcher.GetTopMovers(context.Background(), types.Gainers, 5))

	h.quotes.quotes["A"] = &sources.RawQuote{RegularMarketPrice: f64(1), ChangePct: f64(1), MarketCap: f64(6e9)}
	got := h.fetcher.GetTopMovers(context.Background(), types.Gainers, 5)
	assert.Equal(t, []string{"A"}, symbols(got))
}

func TestClearCache_ForcesRefetch(t *testing.T) {
	h := newHarness(t)
	h.quotes.quotes["SPY"] = &sources.RawQuote{RegularMarketPrice: f64(500)}

	_, _ = h.fetcher.GetQuote(context.Background(), "SPY")
	h.fetcher.ClearCache()
	_, _ = h.fetcher.GetQuote(context.Background(), "SPY")

	assert.Equal(t, int32(2), h.quotes.calls.Load())
	assert.Equal(t, 2, h.limiter.Calls("fake/quote"))
}
