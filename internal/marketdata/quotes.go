package marketdata

import (
	"context"
	"sort"
	"time"

	"github.com/mselser95/market-dashboard/internal/sources"
	"github.com/mselser95/market-dashboard/internal/telemetry"
	"github.com/mselser95/market-dashboard/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GetQuote returns the quote for symbol, from cache when fresh.
func (f *Fetcher) GetQuote(ctx context.Context, symbol string) (types.Quote, bool) {
	defer observe("quote", time.Now())

	ctx, span := telemetry.StartSpan(ctx, "marketdata.GetQuote",
		trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	key := quoteKeyPrefix + symbol
	if cached, ok := f.cache.Get(key); ok {
		if q, ok := cached.(types.Quote); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return q, true
		}
	}

	v, ok := f.loadOnce(key, func() (interface{}, bool) {
		f.throttle(f.quotes.Name(), "quote", f.limits.Quote)
		UpstreamFetchesTotal.WithLabelValues("quote").Inc()

		raw, err := f.quotes.FetchQuote(detach(ctx), symbol)
		if err != nil {
			span.RecordError(err)
			f.noteFailure("quote", symbol, err)
			return nil, false
		}

		q, ok := normalizeQuote(symbol, raw, f.now())
		if !ok {
			f.noteFailure("quote", symbol, sources.Wrap(f.quotes.Name(), symbol, sources.ErrNoData))
			return nil, false
		}

		f.cache.Set(key, q, f.ttl.Quote)
		return q, true
	})
	if !ok {
		return types.Quote{}, false
	}

	q, ok := v.(types.Quote)
	return q, ok
}

// normalizeQuote fills absent optional fields with zero. A quote without
// any price is unusable.
func normalizeQuote(symbol string, raw *sources.RawQuote, now time.Time) (types.Quote, bool) {
	if raw == nil {
		return types.Quote{}, false
	}

	var price float64
	switch {
	case raw.CurrentPrice != nil && *raw.CurrentPrice != 0:
		price = *raw.CurrentPrice
	case raw.RegularMarketPrice != nil:
		price = *raw.RegularMarketPrice
	default:
		return types.Quote{}, false
	}

	return types.Quote{
		Symbol:     symbol,
		Price:      price,
		Change:     floatOrZero(raw.Change),
		ChangePct:  floatOrZero(raw.ChangePct),
		Volume:     intOrZero(raw.Volume),
		MarketCap:  floatOrZero(raw.MarketCap),
		ObservedAt: now,
	}, true
}

// GetQuotesBatch looks up each symbol in turn. Failed symbols are omitted.
func (f *Fetcher) GetQuotesBatch(ctx context.Context, symbols []string) map[string]types.Quote {
	ctx, span := telemetry.StartSpan(ctx, "marketdata.GetQuotesBatch",
		trace.WithAttributes(attribute.Int("symbols", len(symbols))))
	defer span.End()

	out := make(map[string]types.Quote, len(symbols))
	for _, s := range symbols {
		if q, ok := f.GetQuote(ctx, s); ok {
			out[s] = q
		}
	}

	span.SetAttributes(attribute.Int("returned", len(out)))
	return out
}

// GetTopMovers ranks the mover universe by percentage change. Only quotes
// with market cap above the floor qualify; equal changes keep scan order.
//
// The result is cached per direction only, so a later call with a larger
// limit can receive the shorter cached list until it expires.
func (f *Fetcher) GetTopMovers(ctx context.Context, direction types.Direction, limit int) []types.Quote {
	defer observe("movers", time.Now())

	ctx, span := telemetry.StartSpan(ctx, "marketdata.GetTopMovers",
		trace.WithAttributes(
			attribute.String("direction", string(direction)),
			attribute.Int("limit", limit)))
	defer span.End()

	if _, ok := types.ParseDirection(string(direction)); !ok || limit <= 0 {
		return []types.Quote{}
	}

	key := moversKeyPrefix + string(direction)
	if cached, ok := f.cache.Get(key); ok {
		if movers, ok := cached.([]types.Quote); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return truncate(movers, limit)
		}
	}

	quotes := f.GetQuotesBatch(ctx, f.moverUniverse)
	fetched := len(quotes)

	movers := make([]types.Quote, 0, len(quotes))
	for _, s := range f.moverUniverse {
		q, ok := quotes[s]
		if !ok || q.MarketCap <= f.minMarketCap {
			continue
		}
		movers = append(movers, q)
		delete(quotes, s) // universe may repeat a symbol
	}

	if direction == types.Gainers {
		sort.SliceStable(movers, func(i, j int) bool { return movers[i].ChangePct > movers[j].ChangePct })
	} else {
		sort.SliceStable(movers, func(i, j int) bool { return movers[i].ChangePct < movers[j].ChangePct })
	}

	result := truncate(movers, limit)

	// An empty scan means every lookup failed; let the next call retry.
	if fetched > 0 {
		f.cache.Set(key, clone(result), f.ttl.Quote)
	}

	return result
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// truncate returns a copy of at most n leading elements.
func truncate[T any](in []T, n int) []T {
	if n > len(in) {
		n = len(in)
	}
	if n < 0 {
		n = 0
	}
	return clone(in[:n])
}

func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
