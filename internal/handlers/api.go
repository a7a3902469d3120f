package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

const maxRecordsLimit = 1000

// Renderer produces a view model for a selection.
type Renderer interface {
	Render(ctx context.Context, sel models.Selection) (*models.ViewModel, error)
	Refresh(ctx context.Context, sel models.Selection) (*models.ViewModel, error)
	Records(ctx context.Context, sel models.Selection, limit int) (*models.ViewModel, error)
	Stats() map[string]any
}

type APIHandlers struct {
	dashboard Renderer
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard Renderer, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

var noStore = map[string]string{
	"Cache-Control": "no-store",
}

// render parses the selection and runs one render pass, writing the error
// response itself when either step fails.
func (h *APIHandlers) render(w http.ResponseWriter, r *http.Request) (*models.ViewModel, bool) {
	return h.renderWith(w, r, h.dashboard.Render)
}

func (h *APIHandlers) renderWith(w http.ResponseWriter, r *http.Request, render renderFunc) (*models.ViewModel, bool) {
	requestID := observability.GetRequestID(r.Context())

	sel, err := parseSelection(r.URL.Query())
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return nil, false
	}

	vm, err := render(r.Context(), sel)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return nil, false
	}
	return vm, true
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	vm, ok := h.render(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, vm, noStore)
}

func (h *APIHandlers) HandleSalesByProduct(w http.ResponseWriter, r *http.Request) {
	vm, ok := h.render(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, vm.ByProduct, noStore)
}

func (h *APIHandlers) HandleSalesByRegion(w http.ResponseWriter, r *http.Request) {
	vm, ok := h.render(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, vm.ByRegion, noStore)
}

func (h *APIHandlers) HandleSalesOverTime(w http.ResponseWriter, r *http.Request) {
	vm, ok := h.render(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, vm.OverTime, noStore)
}

func (h *APIHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	vm, ok := h.render(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, vm.Insights, noStore)
}

type recordsPage struct {
	Records []models.DetailRow `json:"records"`
	Total   int                `json:"total"`
}

// HandleRecords returns the detail table. ?limit=n returns up to n filtered
// records regardless of the page's detail row count.
func (h *APIHandlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRecordsLimit {
			errors.WriteError(w, h.logger,
				errors.Validation("limit must be between 1 and "+strconv.Itoa(maxRecordsLimit)),
				observability.GetRequestID(r.Context()))
			return
		}
		limit = n
	}

	render := h.dashboard.Render
	if limit > 0 {
		render = func(ctx context.Context, sel models.Selection) (*models.ViewModel, error) {
			return h.dashboard.Records(ctx, sel, limit)
		}
	}

	vm, ok := h.renderWith(w, r, render)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, recordsPage{Records: vm.Detail, Total: vm.DetailTotal}, noStore)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.dashboard.Stats()

	errors.WriteSuccess(w, stats)
}
