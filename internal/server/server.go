package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/middleware"
)

type Server struct {
	router        chi.Router
	logger        *slog.Logger
	apiHandlers   *handlers.APIHandlers
	sseHandlers   *handlers.SSEHandlers
	chartHandlers *handlers.ChartHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

// Options wires the parts of the server that main owns.
type Options struct {
	Middlewares []middleware.Middleware
	// Gatherer backs /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
}

func NewServer(dashboard handlers.Renderer, logger *slog.Logger, templateHandlers *TemplateHandlers, opts Options) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		logger:        logger,
		apiHandlers:   handlers.NewAPIHandlers(dashboard, logger),
		sseHandlers:   handlers.NewSSEHandlers(dashboard, logger),
		chartHandlers: handlers.NewChartHandlers(dashboard, logger),
	}
	for _, mw := range opts.Middlewares {
		s.router.Use(mw)
	}
	s.setupRoutes(templateHandlers, opts.Gatherer)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers, gatherer prometheus.Gatherer) {
	// Dashboard routes
	s.router.Get("/", templateHandlers.Dashboard)
	s.router.Get("/health", s.apiHandlers.HandleHealth)
	s.router.Get("/admin/stats", s.apiHandlers.HandleStats)
	if gatherer != nil {
		s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// REST API endpoints
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.apiHandlers.HandleDashboard)
		r.Get("/sales-by-product", s.apiHandlers.HandleSalesByProduct)
		r.Get("/sales-by-region", s.apiHandlers.HandleSalesByRegion)
		r.Get("/sales-over-time", s.apiHandlers.HandleSalesOverTime)
		r.Get("/insights", s.apiHandlers.HandleInsights)
		r.Get("/records", s.apiHandlers.HandleRecords)
	})

	// Datastar SSE endpoints
	s.router.Get("/sse/dashboard", s.sseHandlers.HandleDashboard)
	s.router.Get("/sse/refresh", s.sseHandlers.HandleRefresh)

	// Server-rendered charts
	s.router.Get("/charts/{name}.svg", s.chartHandlers.HandleChart)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
