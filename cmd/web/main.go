package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sales-dashboard/internal/cache"
	"sales-dashboard/internal/config"
	"sales-dashboard/internal/datasource"
	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/presentation"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const (
	version         = "1.0.0"
	renderTimeout   = 10 * time.Second
	warmupTimeout   = 60 * time.Second
	pageCacheMaxAge = "no-cache"
)

// dashboardPage serves the page shell with the filter options of the
// loaded record set. The panels are filled in over SSE.
func dashboardPage(dashboard handlers.Renderer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		vm, err := dashboard.Render(ctx, models.Selection{})
		if err != nil {
			logger.Warn("dashboard page rendered without data", "error", err)
			vm = presentation.NoDataView(nil, models.Selection{})
			vm.Message = "Sales data is temporarily unavailable"
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", pageCacheMaxAge)
		if err := templates.Dashboard(vm, "").Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// openSource builds the configured order feed and the hook that releases it.
func openSource(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (datasource.Source, func(context.Context) error, error) {
	switch cfg.Source {
	case "sql":
		src, err := datasource.OpenSQL(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return src, func(context.Context) error { return src.Close() }, nil
	default:
		return datasource.NewCSVSource(cfg.CSVFile, logger), func(context.Context) error { return nil }, nil
	}
}

func newServer(cfg *config.Config, dashboard handlers.Renderer, reg *prometheus.Registry, logger *slog.Logger) *server.Server {
	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	return server.NewServer(dashboard, logger,
		&server.TemplateHandlers{Dashboard: dashboardPage(dashboard, logger)},
		server.Options{
			Gatherer: reg,
			Middlewares: []middleware.Middleware{
				middleware.Recovery(logger),
				middleware.RequestID(),
				middleware.Logger(logger),
				middleware.Tracing(),
				middleware.Metrics(observability.NewHTTPMetrics(reg)),
				middleware.SecurityHeaders(),
				middleware.CORS(cfg.Security),
				middleware.TrustedProxy(cfg.Security),
				middleware.RateLimit(rateLimiter, logger),
			},
		},
	)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"server", cfg.Server,
		"database", cfg.Database,
		"cache", cfg.Cache,
		"dashboard", cfg.Dashboard,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
	defer cancel()

	source, closeSource, err := openSource(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open data source", "error", err)
		os.Exit(1)
	}

	recordCache := cache.New(source, cfg.Cache, observability.NewCacheMetrics(reg), logger)
	dashboard := services.NewDashboard(recordCache, cfg.Dashboard, observability.NewRenderMetrics(reg), logger)

	// A failed warm-up is not fatal: the next request retries the load.
	start := time.Now()
	if set, err := recordCache.Get(ctx); err != nil {
		logger.Warn("initial data load failed", "error", err)
	} else {
		logger.Info("initial data loaded", "records", set.Len(), "duration", time.Since(start))
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newServer(cfg, dashboard, reg, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)
	gracefulServer.RegisterShutdownHook("datasource", closeSource)

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
