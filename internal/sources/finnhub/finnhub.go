// Package finnhub reads the Finnhub earnings calendar, which unlike Yahoo
// reports whether a company announces before the open or after the close.
package finnhub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mselser95/market-dashboard/internal/sources"
	"github.com/mselser95/market-dashboard/pkg/types"
	"go.uber.org/zap"
)

const (
	// Name identifies this adapter in errors, metrics and rate limiting.
	Name = "finnhub"

	// DefaultBaseURL is the Finnhub REST API root.
	DefaultBaseURL = "https://finnhub.io/api/v1"

	tokenHeader = "X-Finnhub-Token"
)

// ErrMissingAPIKey is returned when no API key was configured.
var ErrMissingAPIKey = errors.New("finnhub api key not configured")

// Client implements sources.EarningsSource.
type Client struct {
	baseURL   string
	apiKey    string
	lookback  time.Duration
	lookahead time.Duration
	http      *sources.HTTPClient
	location  *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL   string
	APIKey    string
	Lookback  time.Duration // window start relative to today, default 7 days
	Lookahead time.Duration // window end relative to today, default 90 days
	HTTP      *sources.HTTPClient
	Location  *time.Location
	Now       func() time.Time
	Logger    *zap.Logger
}

// New creates a Finnhub client.
func New(cfg *Config) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		lookback:  cfg.Lookback,
		lookahead: cfg.Lookahead,
		http:      cfg.HTTP,
		location:  cfg.Location,
		now:       cfg.Now,
		logger:    cfg.Logger,
	}

	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.lookback <= 0 {
		c.lookback = 7 * 24 * time.Hour
	}
	if c.lookahead <= 0 {
		c.lookahead = 90 * 24 * time.Hour
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.http == nil {
		c.http = sources.NewHTTPClient(&sources.HTTPConfig{Logger: c.logger})
	}
	if c.location == nil {
		c.location = time.UTC
	}
	if c.now == nil {
		c.now = time.Now
	}

	return c
}

// Name returns the adapter name.
func (c *Client) Name() string {
	return Name
}

type earningsResponse struct {
	EarningsCalendar []struct {
		Date   string `json:"date"`
		Hour   string `json:"hour"`
		Symbol string `json:"symbol"`
	} `json:"earningsCalendar"`
}

// FetchEarningsDates lists the earnings reports for symbol inside the
// configured window around today.
func (c *Client) FetchEarningsDates(ctx context.Context, symbol string) ([]sources.EarningsDate, error) {
	if c.apiKey == "" {
		return nil, sources.Wrap(Name, symbol, ErrMissingAPIKey)
	}

	today := c.now().In(c.location)
	q := url.Values{}
	q.Set("from", today.Add(-c.lookback).Format(time.DateOnly))
	q.Set("to", today.Add(c.lookahead).Format(time.DateOnly))
	q.Set("symbol", symbol)

	header := http.Header{}
	header.Set(tokenHeader, c.apiKey)

	var resp earningsResponse
	endpoint := fmt.Sprintf("%s/calendar/earnings?%s", c.baseURL, q.Encode())
	if err := c.http.GetJSON(ctx, Name, endpoint, header, &resp); err != nil {
		return nil, sources.Wrap(Name, symbol, err)
	}

	dates := make([]sources.EarningsDate, 0, len(resp.EarningsCalendar))
	for _, e := range resp.EarningsCalendar {
		if e.Date == "" || (e.Symbol != "" && !strings.EqualFold(e.Symbol, symbol)) {
			continue
		}
		dates = append(dates, sources.EarningsDate{Date: e.Date, Timing: ParseHour(e.Hour)})
	}

	return dates, nil
}

// ParseHour maps Finnhub's hour code to a timing.
func ParseHour(hour string) types.EarningsTiming {
	switch strings.ToLower(strings.TrimSpace(hour)) {
	case "bmo":
		return types.BeforeOpen
	case "amc":
		return types.AfterClose
	default:
		return types.TimingUnknown
	}
}
