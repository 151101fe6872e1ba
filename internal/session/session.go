// Package session maps wall-clock time onto exchange trading sessions and the
// refresh cadence that goes with each of them.
package session

import (
	"fmt"
	"time"
	_ "time/tzdata" // exchange zones must resolve in minimal containers
)

// State is the trading session an instant falls into.
type State string

const (
	MarketOpen State = "MARKET_OPEN"
	Premarket  State = "PREMARKET"
	AfterHours State = "AFTER_HOURS"
	Closed     State = "CLOSED"
)

// Label returns the human readable status shown to users.
func (s State) Label() string {
	switch s {
	case MarketOpen:
		return "MARKET OPEN"
	case Premarket:
		return "PREMARKET"
	case AfterHours:
		return "AFTER HOURS"
	default:
		return "CLOSED"
	}
}

// DataType says which flavour of price is meaningful in the session.
func (s State) DataType() string {
	switch s {
	case MarketOpen:
		return "live"
	case Premarket, AfterHours:
		return "premarket"
	default:
		return "previous_close"
	}
}

// Hours holds session boundaries as offsets from local midnight.
// Each session is half-open: start <= t < end.
type Hours struct {
	PremarketStart time.Duration
	Open           time.Duration
	Close          time.Duration
	AfterHoursEnd  time.Duration
}

// DefaultHours returns US equity session boundaries.
func DefaultHours() Hours {
	return Hours{
		PremarketStart: 7 * time.Hour,
		Open:           9*time.Hour + 30*time.Minute,
		Close:          16 * time.Hour,
		AfterHoursEnd:  20 * time.Hour,
	}
}

// Validate checks the boundaries are ordered inside one day.
func (h Hours) Validate() error {
	if h.PremarketStart < 0 || h.AfterHoursEnd > 24*time.Hour {
		return fmt.Errorf("session hours must fall within a single day")
	}
	if !(h.PremarketStart <= h.Open && h.Open < h.Close && h.Close <= h.AfterHoursEnd) {
		return fmt.Errorf("session hours out of order: premarket %v, open %v, close %v, after-hours end %v",
			h.PremarketStart, h.Open, h.Close, h.AfterHoursEnd)
	}
	return nil
}

// Intervals maps each session to a refresh period.
type Intervals struct {
	MarketOpen time.Duration
	Premarket  time.Duration
	AfterHours time.Duration
	Closed     time.Duration
}

// DefaultIntervals returns the standard refresh cadence.
func DefaultIntervals() Intervals {
	return Intervals{
		MarketOpen: 60 * time.Second,
		Premarket:  300 * time.Second,
		AfterHours: 1800 * time.Second,
		Closed:     3600 * time.Second,
	}
}

// Clock evaluates session state in an exchange's local time zone.
// All methods are pure functions of their arguments except Now, Current and Today.
type Clock struct {
	location  *time.Location
	hours     Hours
	intervals Intervals
	now       func() time.Time
}

// Config holds Clock configuration.
type Config struct {
	Location  *time.Location   // defaults to America/New_York
	Hours     Hours            // zero value selects DefaultHours
	Intervals Intervals        // zero value selects DefaultIntervals
	Now       func() time.Time // defaults to time.Now
}

// New creates a Clock.
func New(cfg *Config) (*Clock, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	c := &Clock{
		location:  cfg.Location,
		hours:     cfg.Hours,
		intervals: cfg.Intervals,
		now:       cfg.Now,
	}

	if c.location == nil {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			return nil, fmt.Errorf("load exchange time zone: %w", err)
		}
		c.location = loc
	}
	if c.hours == (Hours{}) {
		c.hours = DefaultHours()
	}
	if c.intervals == (Intervals{}) {
		c.intervals = DefaultIntervals()
	}
	if c.now == nil {
		c.now = time.Now
	}

	err := c.hours.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate hours: %w", err)
	}

	return c, nil
}

// Location returns the exchange time zone.
func (c *Clock) Location() *time.Location {
	return c.location
}

// Now returns the current time in the exchange time zone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.location)
}

// Today returns the current exchange-local date as YYYY-MM-DD.
func (c *Clock) Today() string {
	return c.Now().Format(time.DateOnly)
}

// Current returns the session state right now.
func (c *Clock) Current() State {
	return c.State(c.now())
}

// IsTradingDay reports whether t falls on an exchange-local weekday.
// Exchange holidays are not modelled.
func (c *Clock) IsTradingDay(t time.Time) bool {
	switch t.In(c.location).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// State classifies t into a session.
func (c *Clock) State(t time.Time) State {
	if !c.IsTradingDay(t) {
		return Closed
	}

	tod := timeOfDay(t.In(c.location))
	switch {
	case c.hours.Open <= tod && tod < c.hours.Close:
		return MarketOpen
	case c.hours.PremarketStart <= tod && tod < c.hours.Open:
		return Premarket
	case c.hours.Close <= tod && tod < c.hours.AfterHoursEnd:
		return AfterHours
	default:
		return Closed
	}
}

// RefreshInterval returns how long to wait before the next refresh in state s.
func (c *Clock) RefreshInterval(s State) time.Duration {
	switch s {
	case MarketOpen:
		return c.intervals.MarketOpen
	case Premarket:
		return c.intervals.Premarket
	case AfterHours:
		return c.intervals.AfterHours
	default:
		return c.intervals.Closed
	}
}

// NextOpen returns the first regular-session open strictly after t.
func (c *Clock) NextOpen(t time.Time) time.Time {
	local := t.In(c.location)
	y, m, d := local.Date()
	hour := int(c.hours.Open / time.Hour)
	minute := int(c.hours.Open % time.Hour / time.Minute)

	for i := 0; i < 8; i++ {
		open := time.Date(y, m, d+i, hour, minute, 0, 0, c.location)
		if open.After(t) && c.IsTradingDay(open) {
			return open
		}
	}
	return time.Time{}
}

func timeOfDay(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond())
}
