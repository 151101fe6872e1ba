// Package yahoo adapts the Yahoo Finance JSON endpoints to the source
// interfaces: quotes (v7), daily chart history (v8) and calendar events (v10).
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mselser95/market-dashboard/internal/sources"
	"github.com/mselser95/market-dashboard/pkg/types"
	"go.uber.org/zap"
)

const (
	// Name identifies this adapter in errors, metrics and rate limiting.
	Name = "yahoo"

	// DefaultBaseURL is the public Yahoo Finance query host.
	DefaultBaseURL = "https://query1.finance.yahoo.com"
)

// Client implements sources.QuoteSource, sources.HistorySource,
// sources.EarningsSource and sources.DetailsSource.
type Client struct {
	baseURL  string
	http     *sources.HTTPClient
	location *time.Location
	logger   *zap.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL  string
	HTTP     *sources.HTTPClient
	Location *time.Location // exchange time zone for earnings dates
	Logger   *zap.Logger
}

// New creates a Yahoo Finance client.
func New(cfg *Config) *Client {
	c := &Client{
		baseURL:  cfg.BaseURL,
		http:     cfg.HTTP,
		location: cfg.Location,
		logger:   cfg.Logger,
	}

	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
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

	return c
}

// Name returns the adapter name.
func (c *Client) Name() string {
	return Name
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *apiError) err() error {
	if e == nil {
		return nil
	}
	if e.Code == "Not Found" {
		return sources.ErrNoData
	}
	return fmt.Errorf("api error %s: %s", e.Code, e.Description)
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string   `json:"symbol"`
			CurrentPrice               *float64 `json:"currentPrice"`
			RegularMarketPrice         *float64 `json:"regularMarketPrice"`
			RegularMarketChange        *float64 `json:"regularMarketChange"`
			RegularMarketChangePercent *float64 `json:"regularMarketChangePercent"`
			RegularMarketVolume        *int64   `json:"regularMarketVolume"`
			MarketCap                  *float64 `json:"marketCap"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteResponse"`
}

// FetchQuote looks up the latest quote for symbol.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*sources.RawQuote, error) {
	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(symbol))

	var resp quoteResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, sources.Wrap(Name, symbol, err)
	}
	if err := resp.QuoteResponse.Error.err(); err != nil {
		return nil, sources.Wrap(Name, symbol, err)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, sources.Wrap(Name, symbol, sources.ErrNoData)
	}

	r := resp.QuoteResponse.Result[0]
	return &sources.RawQuote{
		Symbol:             symbol,
		CurrentPrice:       r.CurrentPrice,
		RegularMarketPrice: r.RegularMarketPrice,
		Change:             r.RegularMarketChange,
		ChangePct:          r.RegularMarketChangePercent,
		Volume:             r.RegularMarketVolume,
		MarketCap:          r.MarketCap,
	}, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

// FetchDailyCloses returns one year of daily closes for symbol, oldest first.
// Sessions without a close are skipped.
func (c *Client) FetchDailyCloses(ctx context.Context, symbol string) ([]float64, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1y&interval=1d", c.baseURL, url.PathEscape(symbol))

	var resp chartResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, sources.Wrap(Name, symbol, err)
	}
	if err := resp.Chart.Error.err(); err != nil {
		return nil, sources.Wrap(Name, symbol, err)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, sources.Wrap(Name, symbol, sources.ErrNoData)
	}

	raw := resp.Chart.Result[0].Indicators.Quote[0].Close
	closes := make([]float64, 0, len(raw))
	for _, v := range raw {
		if v != nil {
			closes = append(closes, *v)
		}
	}

	if len(closes) == 0 {
		return nil, sources.Wrap(Name, symbol, sources.ErrNoData)
	}

	return closes, nil
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			CalendarEvents struct {
				Earnings struct {
					EarningsDate []struct {
						Raw int64  `json:"raw"`
						Fmt string `json:"fmt"`
					} `json:"earningsDate"`
				} `json:"earnings"`
			} `json:"calendarEvents"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

// FetchEarningsDates returns the announced earnings dates for symbol.
// Yahoo does not publish the report time, so timing is always unknown.
func (c *Client) FetchEarningsDates(ctx context.Context, symbol string) ([]sources.EarningsDate, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=calendarEvents", c.baseURL, url.PathEscape(symbol))

	var resp summaryResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, sources.Wrap(Name, symbol, err)
	}
	if err := resp.QuoteSummary.Error.err(); err != nil {
		return nil, sources.Wrap(Name, symbol, err)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, sources.Wrap(Name, symbol, sources.ErrNoData)
	}

	var dates []sources.EarningsDate
	for _, d := range resp.QuoteSummary.Result[0].CalendarEvents.Earnings.EarningsDate {
		date := d.Fmt
		if d.Raw > 0 {
			date = time.Unix(d.Raw, 0).In(c.location).Format(time.DateOnly)
		}
		if date == "" {
			continue
		}
		dates = append(dates, sources.EarningsDate{Date: date, Timing: types.TimingUnknown})
	}

	return dates, nil
}

type rawValue struct {
	Raw *float64 `json:"raw"`
}

type detailsResponse struct {
	QuoteSummary struct {
		Result []struct {
			EarningsTrend struct {
				Trend []struct {
					Period           string   `json:"period"`
					EarningsEstimate struct {
						Avg rawValue `json:"avg"`
					} `json:"earningsEstimate"`
					RevenueEstimate struct {
						Avg rawValue `json:"avg"`
					} `json:"revenueEstimate"`
				} `json:"trend"`
			} `json:"earningsTrend"`
			FinancialData struct {
				ReturnOnEquity rawValue `json:"returnOnEquity"`
			} `json:"financialData"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

// FetchEarningsDetails returns current-quarter consensus estimates for symbol.
func (c *Client) FetchEarningsDetails(ctx context.Context, symbol string) (*types.EarningsDetails, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=earningsTrend,financialData", c.baseURL, url.PathEscape(symbol))

	var resp detailsResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, sources.Wrap(Name, symbol, err)
	}
	if err := resp.QuoteSummary.Error.err(); err != nil {
		return nil, sources.Wrap(Name, symbol, err)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, sources.Wrap(Name, symbol, sources.ErrNoData)
	}

	r := resp.QuoteSummary.Result[0]
	details := &types.EarningsDetails{
		Symbol:         symbol,
		ReturnOnEquity: r.FinancialData.ReturnOnEquity.Raw,
	}

	// "0q" is the current quarter.
	for _, t := range r.EarningsTrend.Trend {
		if t.Period == "0q" {
			details.EPSEstimate = t.EarningsEstimate.Avg.Raw
			details.RevenueEstimate = t.RevenueEstimate.Avg.Raw
			break
		}
	}

	return details, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	err := c.http.GetJSON(ctx, Name, endpoint, nil, out)
	if err == nil {
		return nil
	}

	// Yahoo answers unknown symbols with 404 and a JSON error body.
	var statusErr *sources.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return sources.ErrNoData
	}

	return err
}
