// Package calendar serves the economic-release schedule. No free structured
// feed exists for it, so the source is a fixed list applied to every date.
package calendar

import (
	"context"

	"github.com/mselser95/market-dashboard/pkg/types"
)

// DefaultEvents is the standing list of releases shown for each date.
func DefaultEvents() []types.EconomicEvent {
	return []types.EconomicEvent{
		{Time: "08:30 AM", Name: "Initial Jobless Claims", Forecast: "TBD", Importance: types.ImportanceHigh},
		{Time: "10:00 AM", Name: "Consumer Sentiment Index", Forecast: "TBD", Importance: types.ImportanceMedium},
		{Time: "02:00 PM", Name: "FOMC Minutes Release", Forecast: "N/A", Importance: types.ImportanceHigh},
	}
}

// Static implements sources.EconomicSource over a fixed event list.
type Static struct {
	events []types.EconomicEvent
}

// NewStatic creates a Static source. A nil list selects DefaultEvents.
func NewStatic(events []types.EconomicEvent) *Static {
	if events == nil {
		events = DefaultEvents()
	}
	return &Static{events: events}
}

// FetchEvents returns a copy of the configured events regardless of date.
func (s *Static) FetchEvents(_ context.Context, _ string) ([]types.EconomicEvent, error) {
	out := make([]types.EconomicEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}
