package handlers

import (
	"bytes"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/presentation"
)

type ChartHandlers struct {
	dashboard Renderer
	logger    *slog.Logger
}

func NewChartHandlers(dashboard Renderer, logger *slog.Logger) *ChartHandlers {
	return &ChartHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

// HandleChart renders one panel as SVG: product, region or time.
func (h *ChartHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	var (
		pick func(*models.ViewModel) models.Panel
		draw func(io.Writer, models.Panel) error
	)
	switch chi.URLParam(r, "name") {
	case "product":
		pick = func(vm *models.ViewModel) models.Panel { return vm.ByProduct }
		draw = presentation.RenderBarChart
	case "region":
		pick = func(vm *models.ViewModel) models.Panel { return vm.ByRegion }
		draw = presentation.RenderBarChart
	case "time":
		pick = func(vm *models.ViewModel) models.Panel { return vm.OverTime }
		draw = presentation.RenderLineChart
	default:
		errors.WriteError(w, h.logger, errors.NotFound("Unknown chart"), requestID)
		return
	}

	sel, err := parseSelection(r.URL.Query())
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	vm, err := h.dashboard.Render(r.Context(), sel)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	panel := pick(vm)
	var buf bytes.Buffer
	if err := draw(&buf, panel); err != nil {
		if stderrors.Is(err, presentation.ErrNoChartData) {
			msg := models.NoDataLabel
			if panel.Warning != "" {
				msg = panel.Warning
			}
			errors.WriteError(w, h.logger, errors.NotFound(msg), requestID)
			return
		}
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to render chart"), requestID)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write chart", "error", err, "request_id", requestID)
	}
}
