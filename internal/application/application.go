package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eugenenazirov/supply-planner/internal/api"
	"github.com/eugenenazirov/supply-planner/internal/config"
	"github.com/eugenenazirov/supply-planner/internal/metrics"
	"github.com/eugenenazirov/supply-planner/internal/procurement"
	"github.com/eugenenazirov/supply-planner/internal/storage"
)

const metricsNamespace = "supply_planner"

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage  storage.Storage
	planner  procurement.Planner
	registry *prometheus.Registry
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	store := storage.NewMemoryStorage(cfg.MaxOffers)
	if err := store.SetOffers(cfg.InitialOffers); err != nil {
		return nil, fmt.Errorf("failed to apply initial offers: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	planner := metrics.Instrument(
		procurement.New(
			procurement.WithPriceCeiling(cfg.PriceCeiling),
			procurement.WithMaxCells(cfg.MaxSolverCells),
		),
		metrics.NewPlannerMetrics(metricsNamespace, registry),
		logger,
	)
	if cfg.PriceCeiling > 0 {
		logger.Warn("price ceiling pruning enabled; plans may not be cost-optimal",
			zap.Float64("factor", cfg.PriceCeiling))
	}

	handler := api.NewHandler(planner, store,
		api.WithMaxQuantity(cfg.MaxQuantity),
		api.WithMaxOffers(cfg.MaxOffers),
	)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	rootHandler := BuildRootHandler(apiRouter, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &App{
		storage:  store,
		planner:  planner,
		registry: registry,
		handler:  handler,
		router:   apiRouter,
		logger:   logger,
		server:   NewServer(cfg, rootHandler),
	}, nil
}

// BuildRootHandler mounts the API under /api/ and the metrics endpoint at /metrics.
// Any other path yields 404.
func BuildRootHandler(apiHandler, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("GET /metrics", metricsHandler)
	mux.Handle("/", http.NotFoundHandler())
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
