package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"olist-dashboard/internal/config"
	"olist-dashboard/internal/middleware"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/server"
	"olist-dashboard/internal/services"
	"olist-dashboard/internal/store"
	"olist-dashboard/internal/ui/templates"
)

const (
	renderTimeout     = 10 * time.Second
	limiterSweepEvery = time.Minute
	cacheMaxAge       = "public, max-age=300"
)

// dashboardHandler serves the page shell with the pickers preset to the
// loaded data span.
func dashboardHandler(analytics *services.Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(analytics.DefaultRange()).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func newAnalytics(cfg *config.Config, logger *slog.Logger) (*services.Analytics, error) {
	granularity, err := services.ParseGranularity(cfg.Analytics.FilterGranularity)
	if err != nil {
		return nil, err
	}
	return services.NewAnalytics(
		services.WithGranularity(granularity),
		services.WithRFMOptions(services.RFMOptions{CorrectMonetaryRank: cfg.Analytics.CorrectMonetaryRank}),
		services.WithLogger(logger),
	), nil
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
		"version", "1.0.0",
		"data_source", cfg.Data.Source,
		"data_dir", cfg.Data.Dir,
		"granularity", cfg.Analytics.FilterGranularity,
		"correct_monetary_rank", cfg.Analytics.CorrectMonetaryRank,
	)

	analytics, err := newAnalytics(cfg, logger)
	if err != nil {
		logger.Error("invalid analytics configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Data.LoadTimeout)
	defer cancel()

	loader, closeSource, err := store.Open(ctx, cfg.Data, logger)
	if err != nil {
		logger.Error("failed to open record source", "error", err)
		os.Exit(1)
	}

	if err := analytics.Load(ctx, loader); err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics),
	}

	srv := server.NewServer(analytics, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go rateLimiter.Run(sweepCtx, limiterSweepEvery)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("stopping rate limiter sweep")
		stopSweep()
		return nil
	})
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("closing record source")
		return closeSource()
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
