package marketdata

import (
	"context"
	"time"

	"github.com/mselser95/market-dashboard/internal/telemetry"
	"github.com/mselser95/market-dashboard/pkg/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GetEconomicCalendar returns the releases scheduled on date, in source
// order. An empty date means today in exchange time.
func (f *Fetcher) GetEconomicCalendar(ctx context.Context, date string) []types.EconomicEvent {
	defer observe("economic", time.Now())

	if date == "" {
		date = f.today()
	}

	ctx, span := telemetry.StartSpan(ctx, "marketdata.GetEconomicCalendar",
		trace.WithAttributes(attribute.String("date", date)))
	defer span.End()

	key := econKeyPrefix + date
	if cached, ok := f.cache.Get(key); ok {
		if events, ok := cached.([]types.EconomicEvent); ok {
			return clone(events)
		}
	}

	v, ok := f.loadOnce(key, func() (interface{}, bool) {
		UpstreamFetchesTotal.WithLabelValues("economic").Inc()
		events, err := f.economic.FetchEvents(detach(ctx), date)
		if err != nil {
			span.RecordError(err)
			f.noteFailure("economic", date, err)
			return nil, false
		}

		f.cache.Set(key, events, f.ttl.Calendar)
		return events, true
	})
	if !ok {
		return []types.EconomicEvent{}
	}

	events, _ := v.([]types.EconomicEvent)
	return clone(events)
}

// GetEarningsCalendar lists the earnings universe symbols reporting on date,
// bucketed by report timing. An empty date means today in exchange time.
// Symbols whose lookup fails are left out.
func (f *Fetcher) GetEarningsCalendar(ctx context.Context, date string) types.EarningsSchedule {
	defer observe("earnings", time.Now())

	if date == "" {
		date = f.today()
	}

	ctx, span := telemetry.StartSpan(ctx, "marketdata.GetEarningsCalendar",
		trace.WithAttributes(attribute.String("date", date)))
	defer span.End()

	key := earningsKeyPrefix + date
	if cached, ok := f.cache.Get(key); ok {
		if sched, ok := cached.(types.EarningsSchedule); ok {
			return cloneSchedule(sched)
		}
	}

	v, _ := f.loadOnce(key, func() (interface{}, bool) {
		sched := types.EarningsSchedule{
			Date:       date,
			BeforeOpen: []string{},
			AfterClose: []string{},
			Unknown:    []string{},
		}

		seen := make(map[string]bool, len(f.earningsUniverse))
		succeeded := 0
		for _, symbol := range f.earningsUniverse {
			if seen[symbol] {
				continue
			}
			seen[symbol] = true

			f.throttle(f.earnings.Name(), "earnings", f.limits.Earnings)
			UpstreamFetchesTotal.WithLabelValues("earnings").Inc()

			dates, err := f.earnings.FetchEarningsDates(detach(ctx), symbol)
			if err != nil {
				span.RecordError(err)
				f.noteFailure("earnings", symbol, err)
				continue
			}
			succeeded++

			for _, d := range dates {
				if d.Date != date {
					continue
				}
				switch d.Timing {
				case types.BeforeOpen:
					sched.BeforeOpen = append(sched.BeforeOpen, symbol)
				case types.AfterClose:
					sched.AfterClose = append(sched.AfterClose, symbol)
				default:
					sched.Unknown = append(sched.Unknown, symbol)
				}
				break
			}
		}

		if succeeded > 0 || len(f.earningsUniverse) == 0 {
			f.cache.Set(key, sched, f.ttl.Calendar)
		}

		return sched, true
	})

	sched, _ := v.(types.EarningsSchedule)
	return cloneSchedule(sched)
}

// GetEarningsDetails returns consensus estimates for symbol's next report.
func (f *Fetcher) GetEarningsDetails(ctx context.Context, symbol string) (types.EarningsDetails, bool) {
	defer observe("earnings_details", time.Now())

	if f.details == nil {
		return types.EarningsDetails{}, false
	}

	ctx, span := telemetry.StartSpan(ctx, "marketdata.GetEarningsDetails",
		trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	key := detailsKeyPrefix + symbol
	if cached, ok := f.cache.Get(key); ok {
		if d, ok := cached.(types.EarningsDetails); ok {
			return cloneDetails(d), true
		}
	}

	v, ok := f.loadOnce(key, func() (interface{}, bool) {
		f.throttle(f.details.Name(), "details", f.limits.Earnings)
		UpstreamFetchesTotal.WithLabelValues("earnings_details").Inc()

		d, err := f.details.FetchEarningsDetails(detach(ctx), symbol)
		if err != nil {
			span.RecordError(err)
			f.noteFailure("earnings_details", symbol, err)
			return nil, false
		}

		f.cache.Set(key, cloneDetails(*d), f.ttl.Calendar)
		return cloneDetails(*d), true
	})
	if !ok {
		return types.EarningsDetails{}, false
	}

	d, ok := v.(types.EarningsDetails)
	if !ok {
		return types.EarningsDetails{}, false
	}
	return cloneDetails(d), true
}

func cloneDetails(d types.EarningsDetails) types.EarningsDetails {
	return types.EarningsDetails{
		Symbol:          d.Symbol,
		EPSEstimate:     clonePtr(d.EPSEstimate),
		RevenueEstimate: clonePtr(d.RevenueEstimate),
		ReturnOnEquity:  clonePtr(d.ReturnOnEquity),
	}
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneSchedule(s types.EarningsSchedule) types.EarningsSchedule {
	return types.EarningsSchedule{
		Date:       s.Date,
		BeforeOpen: clone(s.BeforeOpen),
		AfterClose: clone(s.AfterClose),
		Unknown:    clone(s.Unknown),
	}
}
