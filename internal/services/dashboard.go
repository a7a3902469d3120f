package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/presentation"
)

// RecordCache is the read side of the record set cache.
type RecordCache interface {
	Get(ctx context.Context) (*models.RecordSet, error)
	Invalidate()
	Stats() map[string]any
}

// Dashboard runs the render pipeline: cache, filter, aggregate, view model.
// It holds no state of its own beyond the cache it reads from.
type Dashboard struct {
	cache   RecordCache
	cfg     config.DashboardConfig
	metrics *observability.RenderMetrics
	logger  *slog.Logger
}

func NewDashboard(cache RecordCache, cfg config.DashboardConfig, metrics *observability.RenderMetrics, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		cache:   cache,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Render computes the view model for one selection. A data source failure
// is returned as is and no partial view is produced. A feed that loaded
// zero rows yields a no_data view rather than an error.
func (d *Dashboard) Render(ctx context.Context, sel models.Selection) (*models.ViewModel, error) {
	return d.render(ctx, sel, d.cfg.DetailRows)
}

// Records renders sel with the detail table capped at limit rather than
// the configured detail row count. A limit of 0 keeps every record.
func (d *Dashboard) Records(ctx context.Context, sel models.Selection, limit int) (*models.ViewModel, error) {
	return d.render(ctx, sel, limit)
}

func (d *Dashboard) render(ctx context.Context, sel models.Selection, detailRows int) (vm *models.ViewModel, err error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.render",
		attribute.Int("selection.regions", len(sel.Regions)),
		attribute.Int("selection.products", len(sel.Products)),
	)
	defer func() { observability.EndSpan(span, err) }()

	set, err := d.cache.Get(ctx)
	if err != nil {
		d.metrics.Renders.WithLabelValues("error").Inc()
		observability.LoggerFrom(ctx).Error("dashboard render failed", "error", err)
		return nil, err
	}

	start := time.Now()
	defer func() { d.metrics.Duration.Observe(time.Since(start).Seconds()) }()

	if set.Len() == 0 {
		d.metrics.Renders.WithLabelValues(string(models.StatusNoData)).Inc()
		return presentation.NoDataView(set, sel), nil
	}

	records := set.Records
	if d.cfg.DedupeOrderLines {
		records = DedupeOrderLines(records)
	}

	filtered := ApplyFilters(records, sel, set.Columns)
	summary := Aggregate(filtered.Records, set.Columns)
	span.SetAttributes(
		attribute.Int("records.loaded", set.Len()),
		attribute.Int("records.filtered", len(filtered.Records)),
	)

	vm = presentation.BuildViewModel(presentation.Input{
		Set:               set,
		Selection:         sel,
		Records:           filtered.Records,
		AvailableRegions:  filtered.AvailableRegions,
		AvailableProducts: filtered.AvailableProducts,
		Summary:           summary,
		Warnings:          filtered.Warnings,
		DetailRows:        detailRows,
	})
	d.metrics.Renders.WithLabelValues(string(vm.Status)).Inc()
	return vm, nil
}

// Refresh drops the cached record set and renders from a fresh load.
func (d *Dashboard) Refresh(ctx context.Context, sel models.Selection) (*models.ViewModel, error) {
	d.cache.Invalidate()
	d.logger.Info("record set invalidated by refresh")
	return d.Render(ctx, sel)
}

func (d *Dashboard) Stats() map[string]any {
	return map[string]any{
		"cache":              d.cache.Stats(),
		"dedupe_order_lines": d.cfg.DedupeOrderLines,
		"detail_rows":        d.cfg.DetailRows,
	}
}
