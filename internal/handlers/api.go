package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/services"
)

const (
	computeTimeout = 30 * time.Second
	cacheControl   = "public, max-age=300"

	defaultProducts   = 5
	defaultCities     = 10
	defaultCategories = 15
	defaultCustomers  = 5
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// views computes every view for the range in the request query. On failure
// the error response has already been written and nil is returned.
func (h *APIHandlers) views(w http.ResponseWriter, r *http.Request) *models.Views {
	requestID := observability.GetRequestID(r.Context())

	if !h.analytics.Loaded() {
		errors.WriteError(w, h.logger, errors.DataNotLoaded("Dataset has not been loaded yet"), requestID)
		return nil
	}

	q := r.URL.Query()
	dr, err := resolveRange(q.Get("start"), q.Get("end"), h.analytics.DefaultRange())
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return nil
	}

	ctx, cancel := context.WithTimeout(r.Context(), computeTimeout)
	defer cancel()

	views, err := h.analytics.Compute(ctx, dr)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return nil
	}
	return views
}

func (h *APIHandlers) limit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	n, err := parseLimit(r.URL.Query().Get("limit"), def)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return 0, false
	}
	return n, true
}

func (h *APIHandlers) write(w http.ResponseWriter, data any) {
	errors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	views := h.views(w, r)
	if views == nil {
		return
	}
	h.write(w, views.MonthlyRevenue)
}

func (h *APIHandlers) HandleProductPerformance(w http.ResponseWriter, r *http.Request) {
	n, ok := h.limit(w, r, defaultProducts)
	if !ok {
		return
	}
	views := h.views(w, r)
	if views == nil {
		return
	}

	h.write(w, services.Performance(views.ProductCounts, n))
}

func (h *APIHandlers) HandleCitySpending(w http.ResponseWriter, r *http.Request) {
	n, ok := h.limit(w, r, defaultCities)
	if !ok {
		return
	}
	views := h.views(w, r)
	if views == nil {
		return
	}
	h.write(w, services.TopCities(views.CitySpending, n))
}

func (h *APIHandlers) HandleCategoryRevenue(w http.ResponseWriter, r *http.Request) {
	n, ok := h.limit(w, r, defaultCategories)
	if !ok {
		return
	}
	views := h.views(w, r)
	if views == nil {
		return
	}
	h.write(w, services.TopCategories(views.CategoryRevenue, n))
}

func (h *APIHandlers) HandleRFM(w http.ResponseWriter, r *http.Request) {
	n, ok := h.limit(w, r, defaultCustomers)
	if !ok {
		return
	}
	views := h.views(w, r)
	if views == nil {
		return
	}

	h.write(w, services.Segments(views, n))
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	views := h.views(w, r)
	if views == nil {
		return
	}
	h.write(w, views.Summary)
}

// HandleViews returns the full, untruncated bundle.
func (h *APIHandlers) HandleViews(w http.ResponseWriter, r *http.Request) {
	views := h.views(w, r)
	if views == nil {
		return
	}
	h.write(w, views)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.analytics.Loaded() {
		status = "loading"
	}

	healthData := map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.analytics.Stats()

	errors.WriteSuccess(w, stats)
}
