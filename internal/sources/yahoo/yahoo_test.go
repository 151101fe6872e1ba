package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/mselser95/market-dashboard/internal/sources"
	"github.com/mselser95/market-dashboard/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	return New(&Config{
		BaseURL: server.URL,
		HTTP: sources.NewHTTPClient(&sources.HTTPConfig{
			MaxAttempts:    1,
			InitialBackoff: time.Millisecond,
			Logger:         zap.NewNop(),
		}),
		Location: ny,
		Logger:   zap.NewNop(),
	})
}

func TestFetchQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/quote", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbols"))
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{
			"symbol":"AAPL","regularMarketPrice":190.5,"regularMarketChange":2.5,
			"regularMarketChangePercent":1.33,"regularMarketVolume":51234567,
			"marketCap":2950000000000}],"error":null}}`))
	})

	q, err := client.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", q.Symbol)
	assert.Nil(t, q.CurrentPrice)
	require.NotNil(t, q.RegularMarketPrice)
	assert.InDelta(t, 190.5, *q.RegularMarketPrice, 1e-9)
	require.NotNil(t, q.Volume)
	assert.Equal(t, int64(51234567), *q.Volume)
	require.NotNil(t, q.MarketCap)
	assert.InDelta(t, 2.95e12, *q.MarketCap, 1)
}

func TestFetchQuote_EscapesIndexSymbols(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "^VIX", r.URL.Query().Get("symbols"))
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"^VIX","regularMarketPrice":14.2}],"error":null}}`))
	})

	q, err := client.FetchQuote(context.Background(), "^VIX")
	require.NoError(t, err)
	assert.InDelta(t, 14.2, *q.RegularMarketPrice, 1e-9)
}

func TestFetchQuote_EmptyResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[],"error":null}}`))
	})

	_, err := client.FetchQuote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, sources.ErrNoData)
}

func TestFetchQuote_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":null,"error":{"code":"Not Found","description":"No data"}}}`))
	})

	_, err := client.FetchQuote(context.Background(), "NOPE")
	assert.ErrorIs(t, err, sources.ErrNoData)
}

func TestFetchQuote_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.NotErrorIs(t, err, sources.ErrNoData)

	var fetchErr *sources.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, Name, fetchErr.Source)
	assert.Equal(t, "AAPL", fetchErr.Identifier)
}

func TestFetchDailyCloses(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/^VIX", r.URL.Path)
		assert.Equal(t, "1y", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1,2,3,4],
			"indicators":{"quote":[{"close":[10.0,null,11.0,12.5]}]}}],"error":null}}`))
	})

	closes, err := client.FetchDailyCloses(context.Background(), "^VIX")
	require.NoError(t, err)
	assert.Equal(t, []float64{10.0, 11.0, 12.5}, closes)
}

func TestFetchDailyCloses_AllNull(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"indicators":{"quote":[{"close":[null,null]}]}}],"error":null}}`))
	})

	_, err := client.FetchDailyCloses(context.Background(), "AAPL")
	assert.ErrorIs(t, err, sources.ErrNoData)
}

func TestFetchEarningsDates(t *testing.T) {
	// 2026-10-29 20:30 UTC is 16:30 in New York.
	raw := time.Date(2026, 10, 29, 20, 30, 0, 0, time.UTC).Unix()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/AAPL", r.URL.Path)
		assert.Equal(t, "calendarEvents", r.URL.Query().Get("modules"))
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{"calendarEvents":{"earnings":{"earningsDate":[
			{"raw":` + strconv.FormatInt(raw, 10) + `,"fmt":"2026-10-29"},
			{"fmt":"2026-11-02"}]}}}],"error":null}}`))
	})

	dates, err := client.FetchEarningsDates(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, sources.EarningsDate{Date: "2026-10-29", Timing: types.TimingUnknown}, dates[0])
	assert.Equal(t, "2026-11-02", dates[1].Date)
}

func TestFetchEarningsDetails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/NVDA", r.URL.Path)
		assert.Equal(t, "earningsTrend,financialData", r.URL.Query().Get("modules"))
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{
			"earningsTrend":{"trend":[
				{"period":"+1q","earningsEstimate":{"avg":{"raw":0.99}},"revenueEstimate":{"avg":{"raw":1}}},
				{"period":"0q","earningsEstimate":{"avg":{"raw":0.75}},"revenueEstimate":{"avg":{}}}]},
			"financialData":{"returnOnEquity":{"raw":1.23,"fmt":"123%"}}}],"error":null}}`))
	})

	details, err := client.FetchEarningsDetails(context.Background(), "NVDA")
	require.NoError(t, err)

	assert.Equal(t, "NVDA", details.Symbol)
	require.NotNil(t, details.EPSEstimate)
	assert.InDelta(t, 0.75, *details.EPSEstimate, 1e-9)
	assert.Nil(t, details.RevenueEstimate)
	require.NotNil(t, details.ReturnOnEquity)
	assert.InDelta(t, 1.23, *details.ReturnOnEquity, 1e-9)
}
