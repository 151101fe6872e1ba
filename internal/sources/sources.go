// Package sources defines the upstream adapter boundary. Every adapter turns
// one upstream capability into normalized records and reports failure as an
// explicit error; the aggregator decides what a failure means for callers.
package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mselser95/market-dashboard/pkg/types"
)

// ErrNoData marks an upstream call that succeeded but returned nothing usable.
var ErrNoData = errors.New("no data")

// FetchError describes a failed adapter call.
type FetchError struct {
	Source     string // adapter name, e.g. "yahoo"
	Identifier string // symbol, feed name or date the call was for
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch %s: %v", e.Source, e.Identifier, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Wrap attaches source and identifier context to err. A nil err stays nil.
func Wrap(source, identifier string, err error) error {
	if err == nil {
		return nil
	}
	return &FetchError{Source: source, Identifier: identifier, Err: err}
}

// RawQuote is a quote as delivered upstream. Nil fields were absent.
type RawQuote struct {
	Symbol             string
	CurrentPrice       *float64
	RegularMarketPrice *float64
	Change             *float64
	ChangePct          *float64
	Volume             *int64
	MarketCap          *float64
}

// QuoteSource looks up the latest quote for one symbol.
type QuoteSource interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (*RawQuote, error)
}

// HistorySource returns about one year of daily closes, oldest first.
type HistorySource interface {
	Name() string
	FetchDailyCloses(ctx context.Context, symbol string) ([]float64, error)
}

// FeedEntry is one item from a headline feed. PublishedAt is nil when the
// feed carried no parseable timestamp.
type FeedEntry struct {
	Title       string
	Summary     string
	Link        string
	PublishedAt *time.Time
}

// FeedSource fetches the current entries of one headline feed.
type FeedSource interface {
	FetchEntries(ctx context.Context) ([]FeedEntry, error)
}

// Feed pairs a display name with its source.
type Feed struct {
	Name   string
	Source FeedSource
}

// EarningsDate is one announced earnings report.
type EarningsDate struct {
	Date   string // exchange-local YYYY-MM-DD
	Timing types.EarningsTiming
}

// EarningsSource lists upcoming earnings dates for a symbol.
type EarningsSource interface {
	Name() string
	FetchEarningsDates(ctx context.Context, symbol string) ([]EarningsDate, error)
}

// DetailsSource looks up consensus estimates for a symbol's next report.
type DetailsSource interface {
	Name() string
	FetchEarningsDetails(ctx context.Context, symbol string) (*types.EarningsDetails, error)
}

// EconomicSource lists macro releases scheduled on a date (YYYY-MM-DD).
type EconomicSource interface {
	FetchEvents(ctx context.Context, date string) ([]types.EconomicEvent, error)
}
