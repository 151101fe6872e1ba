package marketdata

import (
	"context"
	"math"
	"time"

	"github.com/mselser95/market-dashboard/internal/sources"
	"github.com/mselser95/market-dashboard/internal/telemetry"
	"github.com/mselser95/market-dashboard/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/stat"
)

const (
	tradingDaysPerYear = 252
	trailingWindow     = 30
	currentWindow      = 10
	neutralPercentile  = 50
)

// GetIVData returns the volatility record for symbol.
//
// The figures are historical volatility of daily returns standing in for
// option implied volatility: the last 10 returns give the current reading,
// the last 30 the baseline, and their ratio the percentile proxy.
func (f *Fetcher) GetIVData(ctx context.Context, symbol string) (types.VolatilityRecord, bool) {
	defer observe("iv", time.Now())

	ctx, span := telemetry.StartSpan(ctx, "marketdata.GetIVData",
		trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	key := ivKeyPrefix + symbol
	if cached, ok := f.cache.Get(key); ok {
		if rec, ok := cached.(types.VolatilityRecord); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return rec, true
		}
	}

	v, ok := f.loadOnce(key, func() (interface{}, bool) {
		f.throttle(f.history.Name(), "history", f.limits.History)
		UpstreamFetchesTotal.WithLabelValues("iv").Inc()

		closes, err := f.history.FetchDailyCloses(detach(ctx), symbol)
		if err != nil {
			span.RecordError(err)
			f.noteFailure("iv", symbol, err)
			return nil, false
		}

		rec, ok := ComputeVolatility(symbol, closes, f.now())
		if !ok {
			f.noteFailure("iv", symbol, sources.Wrap(f.history.Name(), symbol, sources.ErrNoData))
			return nil, false
		}

		f.cache.Set(key, rec, f.ttl.IV)
		return rec, true
	})
	if !ok {
		return types.VolatilityRecord{}, false
	}

	rec, ok := v.(types.VolatilityRecord)
	return rec, ok
}

// GetIVDataBatch looks up each symbol in turn. Failed symbols are omitted.
func (f *Fetcher) GetIVDataBatch(ctx context.Context, symbols []string) map[string]types.VolatilityRecord {
	ctx, span := telemetry.StartSpan(ctx, "marketdata.GetIVDataBatch",
		trace.WithAttributes(attribute.Int("symbols", len(symbols))))
	defer span.End()

	out := make(map[string]types.VolatilityRecord, len(symbols))
	for _, s := range symbols {
		if rec, ok := f.GetIVData(ctx, s); ok {
			out[s] = rec
		}
	}
	return out
}

// ComputeVolatility derives a VolatilityRecord from daily closes, oldest
// first. It needs at least two returns in each window.
func ComputeVolatility(symbol string, closes []float64, now time.Time) (types.VolatilityRecord, bool) {
	returns := dailyReturns(closes)

	trailing, ok := annualizedVol(tail(returns, trailingWindow))
	if !ok {
		return types.VolatilityRecord{}, false
	}
	current, ok := annualizedVol(tail(returns, currentWindow))
	if !ok {
		return types.VolatilityRecord{}, false
	}

	percentile := float64(neutralPercentile)
	if trailing > 0 {
		percentile = math.Min(100, math.Max(0, current/trailing*100))
	}

	return types.VolatilityRecord{
		Symbol:          symbol,
		CurrentVol:      current,
		Trailing30dVol:  trailing,
		PercentileProxy: percentile,
		ObservedAt:      now,
	}, true
}

// dailyReturns computes fractional close-to-close changes. Pairs whose
// previous close is zero have no defined return and are skipped.
func dailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}

	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			continue
		}
		out = append(out, (closes[i]-prev)/prev)
	}
	return out
}

func annualizedVol(returns []float64) (float64, bool) {
	if len(returns) < 2 {
		return 0, false
	}
	return stat.StdDev(returns, nil) * math.Sqrt(tradingDaysPerYear) * 100, true
}

func tail(in []float64, n int) []float64 {
	if len(in) <= n {
		return in
	}
	return in[len(in)-n:]
}
