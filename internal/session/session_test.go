package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYorkClock(t *testing.T) (*Clock, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	c, err := New(&Config{Location: loc})
	require.NoError(t, err)
	return c, loc
}

func TestState(t *testing.T) {
	c, ny := newYorkClock(t)

	// 2026-10-16 is a Friday, 2026-10-17 a Saturday.
	at := func(day, h, m, s int) time.Time {
		return time.Date(2026, 10, day, h, m, s, 0, ny)
	}

	tests := []struct {
		name string
		t    time.Time
		want State
	}{
		{name: "saturday-mid-morning", t: at(17, 10, 0, 0), want: Closed},
		{name: "sunday-afternoon", t: at(18, 14, 0, 0), want: Closed},
		{name: "weekday-open-bell", t: at(16, 9, 30, 0), want: MarketOpen},
		{name: "weekday-one-second-before-open", t: at(16, 9, 29, 59), want: Premarket},
		{name: "weekday-premarket-start", t: at(16, 7, 0, 0), want: Premarket},
		{name: "weekday-before-premarket", t: at(16, 6, 59, 59), want: Closed},
		{name: "weekday-midday", t: at(16, 12, 0, 0), want: MarketOpen},
		{name: "weekday-close-bell", t: at(16, 16, 0, 0), want: AfterHours},
		{name: "weekday-last-second-after-hours", t: at(16, 19, 59, 59), want: AfterHours},
		{name: "weekday-after-hours-end", t: at(16, 20, 0, 0), want: Closed},
		{name: "weekday-midnight", t: at(16, 0, 0, 0), want: Closed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.State(tt.t))
		})
	}
}

func TestState_ConvertsToExchangeZone(t *testing.T) {
	c, _ := newYorkClock(t)

	// 13:30 UTC on a weekday in October is 09:30 in New York (EDT).
	utc := time.Date(2026, 10, 16, 13, 30, 0, 0, time.UTC)
	assert.Equal(t, MarketOpen, c.State(utc))

	// 23:30 UTC on Friday is 19:30 in New York.
	friEvening := time.Date(2026, 10, 16, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, AfterHours, c.State(friEvening))
}

func TestRefreshInterval(t *testing.T) {
	c, _ := newYorkClock(t)

	assert.Equal(t, 60*time.Second, c.RefreshInterval(MarketOpen))
	assert.Equal(t, 300*time.Second, c.RefreshInterval(Premarket))
	assert.Equal(t, 1800*time.Second, c.RefreshInterval(AfterHours))
	assert.Equal(t, 3600*time.Second, c.RefreshInterval(Closed))
}

func TestRefreshInterval_Custom(t *testing.T) {
	c, err := New(&Config{
		Location:  time.UTC,
		Intervals: Intervals{MarketOpen: time.Second, Premarket: 2 * time.Second, AfterHours: 3 * time.Second, Closed: 4 * time.Second},
	})
	require.NoError(t, err)

	assert.Equal(t, time.Second, c.RefreshInterval(MarketOpen))
	assert.Equal(t, 4*time.Second, c.RefreshInterval(Closed))
}

func TestNew_RejectsUnorderedHours(t *testing.T) {
	_, err := New(&Config{
		Location: time.UTC,
		Hours: Hours{
			PremarketStart: 7 * time.Hour,
			Open:           16 * time.Hour,
			Close:          9 * time.Hour,
			AfterHoursEnd:  20 * time.Hour,
		},
	})
	assert.Error(t, err)
}

func TestLabelsAndDataType(t *testing.T) {
	assert.Equal(t, "MARKET OPEN", MarketOpen.Label())
	assert.Equal(t, "AFTER HOURS", AfterHours.Label())
	assert.Equal(t, "CLOSED", Closed.Label())

	assert.Equal(t, "live", MarketOpen.DataType())
	assert.Equal(t, "premarket", Premarket.DataType())
	assert.Equal(t, "premarket", AfterHours.DataType())
	assert.Equal(t, "previous_close", Closed.DataType())
}

func TestToday_UsesExchangeDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:00 UTC on the 17th is still the 16th in New York.
	fixed := time.Date(2026, 10, 17, 2, 0, 0, 0, time.UTC)
	c, err := New(&Config{Location: ny, Now: func() time.Time { return fixed }})
	require.NoError(t, err)

	assert.Equal(t, "2026-10-16", c.Today())
	assert.Equal(t, Closed, c.Current())
}

func TestNextOpen(t *testing.T) {
	c, ny := newYorkClock(t)

	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			name: "weekday-before-open",
			from: time.Date(2026, 10, 16, 8, 0, 0, 0, ny),
			want: time.Date(2026, 10, 16, 9, 30, 0, 0, ny),
		},
		{
			name: "friday-after-open-rolls-to-monday",
			from: time.Date(2026, 10, 16, 10, 0, 0, 0, ny),
			want: time.Date(2026, 10, 19, 9, 30, 0, 0, ny),
		},
		{
			name: "saturday",
			from: time.Date(2026, 10, 17, 12, 0, 0, 0, ny),
			want: time.Date(2026, 10, 19, 9, 30, 0, 0, ny),
		},
		{
			name: "exactly-at-open-moves-to-next-day",
			from: time.Date(2026, 10, 14, 9, 30, 0, 0, ny),
			want: time.Date(2026, 10, 15, 9, 30, 0, 0, ny),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(c.NextOpen(tt.from)), "got %v", c.NextOpen(tt.from))
		})
	}
}
