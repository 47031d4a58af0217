package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/simaogato/dcaflow-backend/internal/adapter/presenter"
	"github.com/simaogato/dcaflow-backend/internal/adapter/scenario"
	"github.com/simaogato/dcaflow-backend/internal/domain"
	"github.com/simaogato/dcaflow-backend/internal/usecase/simulation"
	"github.com/simaogato/dcaflow-backend/internal/usecase/updater"
)

// maxBodyBytes bounds a scenario upload
const maxBodyBytes = 1 << 20

// Simulator runs simulations and quotes stored prices
type Simulator interface {
	Run(ctx context.Context, cfg domain.SimulationConfig, opts simulation.RunOptions) (*domain.SimulationResult, error)
	Quote(ctx context.Context, ticker string, asOf time.Time) (*simulation.Quote, error)
}

// Refresher refreshes stored prices from the provider
type Refresher interface {
	RefreshAll(ctx context.Context, tickers []string) ([]updater.Report, error)
}

// Analytics serves popularity and visit statistics
type Analytics interface {
	VisitRecorder
	TopTickers(ctx context.Context, limit int) ([]domain.TickerViews, error)
	DailyStats(ctx context.Context, from, to time.Time) ([]domain.DailyVisits, error)
}

// Handler handles simulation API requests
type Handler struct {
	simulator Simulator
	refresher Refresher
	analytics Analytics
	log       zerolog.Logger
}

// NewHandler creates a new API handler
func NewHandler(simulator Simulator, refresher Refresher, analytics Analytics, log zerolog.Logger) *Handler {
	return &Handler{
		simulator: simulator,
		refresher: refresher,
		analytics: analytics,
		log:       log.With().Str("handler", "api").Logger(),
	}
}

// RegisterRoutes registers the API routes on r
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/simulations", h.HandleRunSimulation)
	r.Get("/prices/{ticker}", h.HandleGetPrice)
	r.Post("/prices/{ticker}/refresh", h.HandleRefreshPrice)
	r.Get("/tickers/popular", h.HandlePopularTickers)
	r.Get("/stats/visits", h.HandleVisitStats)
}

type simulationResponse struct {
	Result *scenario.Response `json:"result"`
	Report presenter.Report   `json:"report"`
}

// HandleRunSimulation runs a scenario posted as JSON
func (h *Handler) HandleRunSimulation(w http.ResponseWriter, r *http.Request) {
	req, err := scenario.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	cfg, err := req.ToConfig()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	result, err := h.simulator.Run(r.Context(), cfg, simulation.RunOptions{RefreshPrices: req.RefreshPrices})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	lang := presenter.LanguageFromPath(r.URL.Path)
	h.writeJSON(w, http.StatusOK, simulationResponse{
		Result: scenario.NewResponse(result),
		Report: presenter.Present(result, presenter.NewConverter(cfg.Currency), lang),
	}, map[string]any{"run_id": result.RunID.String(), "language": lang})
}

// HandleGetPrice returns the stored close of a ticker at or before ?date= (default today)
func (h *Handler) HandleGetPrice(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))

	asOf := domain.Day(time.Now())
	if q := r.URL.Query().Get("date"); q != "" {
		d, err := domain.ParseDate(q)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		asOf = d
	}

	quote, err := h.simulator.Quote(r.Context(), ticker, asOf)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"ticker":        quote.Ticker,
		"as_of":         domain.FormatDate(quote.AsOf),
		"close_date":    domain.FormatDate(quote.CloseDate),
		"close":         quote.Close,
		"all_time_high": quote.AllTimeHigh,
		"drawdown":      quote.Drawdown.Round(2),
	}, nil)
}

// HandleRefreshPrice refreshes one ticker from the provider
func (h *Handler) HandleRefreshPrice(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		h.writeError(w, http.StatusNotImplemented, "price refresh is not configured")
		return
	}
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))

	reports, err := h.refresher.RefreshAll(r.Context(), []string{ticker})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if len(reports) == 0 {
		h.writeError(w, http.StatusInternalServerError, "no refresh report")
		return
	}

	report := reports[0]
	body := map[string]any{
		"ticker": report.Ticker,
		"mode":   report.Mode,
		"added":  report.Added,
	}
	if report.Err != nil {
		body["error"] = report.Err.Error()
		h.writeJSON(w, http.StatusBadGateway, body, nil)
		return
	}
	h.writeJSON(w, http.StatusOK, body, nil)
}

// HandlePopularTickers returns the most simulated tickers, ?limit= defaults to 10
func (h *Handler) HandlePopularTickers(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = n
	}

	top, err := h.analytics.TopTickers(r.Context(), limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	type entry struct {
		Ticker    string `json:"ticker"`
		ViewCount int64  `json:"view_count"`
	}
	entries := make([]entry, 0, len(top))
	for _, v := range top {
		entries = append(entries, entry{Ticker: v.Ticker, ViewCount: v.ViewCount})
	}
	h.writeJSON(w, http.StatusOK, entries, map[string]any{"count": len(entries)})
}

// HandleVisitStats returns daily visit counters for ?from=&to= (default last 30 days)
func (h *Handler) HandleVisitStats(w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	for name, dst := range map[string]*time.Time{"from": &from, "to": &to} {
		if q := r.URL.Query().Get(name); q != "" {
			d, err := domain.ParseDate(q)
			if err != nil {
				h.writeDomainError(w, err)
				return
			}
			*dst = d
		}
	}

	stats, err := h.analytics.DailyStats(r.Context(), from, to)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	type day struct {
		Date         string `json:"date"`
		PageViews    int64  `json:"page_views"`
		UniqueVisits int64  `json:"unique_visits"`
	}
	days := make([]day, 0, len(stats))
	var pageViews, unique int64
	for _, s := range stats {
		days = append(days, day{Date: domain.FormatDate(s.Date), PageViews: s.PageViews, UniqueVisits: s.UniqueVisits})
		pageViews += s.PageViews
		unique += s.UniqueVisits
	}
	h.writeJSON(w, http.StatusOK, days, map[string]any{
		"total_page_views":    pageViews,
		"total_unique_visits": unique,
	})
}

// Helper methods

type envelope struct {
	Data     any            `json:"data"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any, metadata map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Data: data, Metadata: metadata}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeDomainError maps domain errors to HTTP status codes
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrPriceNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error().Err(err).Msg("Request failed")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
