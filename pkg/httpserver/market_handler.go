package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/mselser95/market-dashboard/internal/refresh"
	"github.com/mselser95/market-dashboard/internal/session"
	"github.com/mselser95/market-dashboard/pkg/types"
	"go.uber.org/zap"
)

const (
	maxSymbols = 50
	maxLimit   = 100
)

// MarketData is the read side of the aggregator served over HTTP.
type MarketData interface {
	GetQuotesBatch(ctx context.Context, symbols []string) map[string]types.Quote
	GetTopMovers(ctx context.Context, direction types.Direction, limit int) []types.Quote
	GetIVDataBatch(ctx context.Context, symbols []string) map[string]types.VolatilityRecord
	GetNewsHeadlines(ctx context.Context, limit int) []types.Headline
	GetEconomicCalendar(ctx context.Context, date string) []types.EconomicEvent
	GetEarningsCalendar(ctx context.Context, date string) types.EarningsSchedule
	GetEarningsDetails(ctx context.Context, symbol string) (types.EarningsDetails, bool)
}

// Refresher exposes published snapshots and manual refresh.
type Refresher interface {
	Latest() *types.Snapshot
	Refresh(ctx context.Context) (*types.Snapshot, error)
}

// MarketHandler serves the dashboard panels as JSON.
type MarketHandler struct {
	data      MarketData
	refresher Refresher
	clock     *session.Clock
	topMovers int
	newsLimit int
	logger    *zap.Logger
}

// HandlerConfig holds MarketHandler configuration.
type HandlerConfig struct {
	MarketData MarketData
	Refresher  Refresher
	Clock      *session.Clock
	TopMovers  int
	NewsLimit  int
	Logger     *zap.Logger
}

// NewMarketHandler creates a new market handler.
func NewMarketHandler(cfg *HandlerConfig) *MarketHandler {
	h := &MarketHandler{
		data:      cfg.MarketData,
		refresher: cfg.Refresher,
		clock:     cfg.Clock,
		topMovers: cfg.TopMovers,
		newsLimit: cfg.NewsLimit,
		logger:    cfg.Logger,
	}
	if h.topMovers <= 0 {
		h.topMovers = 5
	}
	if h.newsLimit <= 0 {
		h.newsLimit = 10
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// Routes mounts the handler under a chi router.
func (h *MarketHandler) Routes(r chi.Router) {
	r.Get("/quotes", h.HandleQuotes)
	r.Get("/movers", h.HandleMovers)
	r.Get("/volatility", h.HandleVolatility)
	r.Get("/news", h.HandleNews)
	r.Get("/calendar/economic", h.HandleEconomicCalendar)
	r.Get("/calendar/earnings", h.HandleEarningsCalendar)
	r.Get("/earnings/details", h.HandleEarningsDetails)
	r.Get("/session", h.HandleSession)
	if h.refresher != nil {
		r.Get("/snapshot", h.HandleSnapshot)
		r.Post("/refresh", h.HandleRefresh)
	}
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionResponse describes the market session at request time.
type SessionResponse struct {
	State           session.State `json:"state"`
	Label           string        `json:"label"`
	DataType        string        `json:"data_type"`
	Now             time.Time     `json:"now"`
	Today           string        `json:"today"`
	NextOpen        time.Time     `json:"next_open"`
	RefreshInterval int           `json:"refresh_interval_seconds"`
}

// HandleQuotes handles GET /api/quotes?symbols=SPY,QQQ.
func (h *MarketHandler) HandleQuotes(w http.ResponseWriter, r *http.Request) {
	symbols, ok := h.symbols(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.data.GetQuotesBatch(r.Context(), symbols))
}

// HandleMovers handles GET /api/movers?direction=gainers&limit=5.
func (h *MarketHandler) HandleMovers(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("direction")
	if raw == "" {
		raw = string(types.Gainers)
	}
	direction, ok := types.ParseDirection(raw)
	if !ok {
		h.writeError(w, "direction must be gainers or losers", http.StatusBadRequest)
		return
	}

	limit, ok := h.limit(w, r, h.topMovers)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, h.data.GetTopMovers(r.Context(), direction, limit))
}

// HandleVolatility handles GET /api/volatility?symbols=SPY,QQQ.
func (h *MarketHandler) HandleVolatility(w http.ResponseWriter, r *http.Request) {
	symbols, ok := h.symbols(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.data.GetIVDataBatch(r.Context(), symbols))
}

// HandleNews handles GET /api/news?limit=10.
func (h *MarketHandler) HandleNews(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limit(w, r, h.newsLimit)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.data.GetNewsHeadlines(r.Context(), limit))
}

// HandleEconomicCalendar handles GET /api/calendar/economic?date=YYYY-MM-DD.
func (h *MarketHandler) HandleEconomicCalendar(w http.ResponseWriter, r *http.Request) {
	date, ok := h.date(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.data.GetEconomicCalendar(r.Context(), date))
}

// HandleEarningsCalendar handles GET /api/calendar/earnings?date=YYYY-MM-DD.
func (h *MarketHandler) HandleEarningsCalendar(w http.ResponseWriter, r *http.Request) {
	date, ok := h.date(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.data.GetEarningsCalendar(r.Context(), date))
}

// HandleEarningsDetails handles GET /api/earnings/details?symbol=AAPL.
func (h *MarketHandler) HandleEarningsDetails(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		h.writeError(w, "missing required query parameter: symbol", http.StatusBadRequest)
		return
	}

	details, found := h.data.GetEarningsDetails(r.Context(), symbol)
	if !found {
		h.writeError(w, "no earnings details for "+symbol, http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, details)
}

// HandleSession handles GET /api/session.
func (h *MarketHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now()
	state := h.clock.State(now)

	h.writeJSON(w, http.StatusOK, SessionResponse{
		State:           state,
		Label:           state.Label(),
		DataType:        state.DataType(),
		Now:             now,
		Today:           now.Format(time.DateOnly),
		NextOpen:        h.clock.NextOpen(now),
		RefreshInterval: int(h.clock.RefreshInterval(state) / time.Second),
	})
}

// HandleSnapshot handles GET /api/snapshot.
func (h *MarketHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.refresher.Latest()
	if snap == nil {
		h.writeError(w, "no snapshot published yet", http.StatusServiceUnavailable)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

// HandleRefresh handles POST /api/refresh.
func (h *MarketHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.refresher.Refresh(r.Context())
	if errors.Is(err, refresh.ErrCycleInFlight) {
		h.writeError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.Error("manual-refresh-failed", zap.Error(err))
		h.writeError(w, "refresh failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

func (h *MarketHandler) symbols(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	raw := r.URL.Query().Get("symbols")

	var symbols []string
	seen := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		symbols = append(symbols, s)
	}

	if len(symbols) == 0 {
		h.writeError(w, "missing required query parameter: symbols", http.StatusBadRequest)
		return nil, false
	}
	if len(symbols) > maxSymbols {
		h.writeError(w, "too many symbols, max "+strconv.Itoa(maxSymbols), http.StatusBadRequest)
		return nil, false
	}
	return symbols, true
}

func (h *MarketHandler) limit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxLimit {
		h.writeError(w, "limit must be between 1 and "+strconv.Itoa(maxLimit), http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func (h *MarketHandler) date(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return h.clock.Today(), true
	}

	_, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		h.writeError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return "", false
	}
	return raw, true
}

func (h *MarketHandler) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *MarketHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, statusCode, ErrorResponse{Error: message})
}
