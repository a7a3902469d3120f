package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	dashboard Renderer
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard Renderer, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

type renderFunc func(ctx context.Context, sel models.Selection) (*models.ViewModel, error)

// dashboardSignals are pushed to the page after every render. The filter
// option lists stay on the full record set and are not patched; the
// options left under the current selection are served by /api/dashboard.
type dashboardSignals struct {
	Status      models.ViewStatus `json:"status"`
	Total       string            `json:"total"`
	LastUpdated string            `json:"lastUpdated"`
}

func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, h.dashboard.Render)
}

// HandleRefresh drops the cached record set before rendering.
func (h *SSEHandlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, h.dashboard.Refresh)
}

func (h *SSEHandlers) stream(w http.ResponseWriter, r *http.Request, render renderFunc) {
	sel, err := selectionFromSignals(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	vm, renderErr := render(r.Context(), sel)

	sse := datastar.NewSSE(w, r)

	if renderErr != nil {
		// No partial dashboard: only the status line changes.
		message := "An unexpected error occurred"
		if errors.IsDataSourceUnavailable(renderErr) {
			message = "Sales data is temporarily unavailable. Try refreshing in a moment."
		}
		h.logger.Error("dashboard render failed",
			"error", renderErr,
			"request_id", observability.GetRequestID(r.Context()),
		)
		h.patch(r.Context(), sse, templates.ErrorStatus(message))
		flush(w)
		return
	}

	signals, err := json.Marshal(dashboardSignals{
		Status:      vm.Status,
		Total:       vm.TotalSalesDisplay,
		LastUpdated: vm.LastUpdated.Format("02/01/2006 15:04:05"),
	})
	if err != nil {
		h.logger.Error("marshal dashboard signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	query := selectionQuery(sel)
	for _, c := range []templ.Component{
		templates.Status(vm),
		templates.Charts(vm, query),
		templates.Insights(vm),
		templates.DetailTable(vm),
	} {
		if !h.patch(r.Context(), sse, c) {
			return
		}
	}

	flush(w)
}

func (h *SSEHandlers) patch(ctx context.Context, sse *datastar.ServerSentEventGenerator, c templ.Component) bool {
	var buf strings.Builder
	if err := c.Render(ctx, &buf); err != nil {
		h.logger.Error("render fragment", "error", err)
		return false
	}
	if err := sse.PatchElements(buf.String()); err != nil {
		h.logger.Warn("patch elements", "error", err)
		return false
	}
	return true
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
