// Package main is the entry point for the recipient service API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/harvestlink/recipient-service/internal/config"
	"github.com/harvestlink/recipient-service/internal/handler"
	"github.com/harvestlink/recipient-service/internal/logging"
	"github.com/harvestlink/recipient-service/internal/metrics"
	"github.com/harvestlink/recipient-service/internal/middleware"
	"github.com/harvestlink/recipient-service/internal/repo"
	"github.com/harvestlink/recipient-service/internal/service"
	"github.com/harvestlink/recipient-service/internal/tracing"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// --- Logger -----------------------------------------------------------
	// One slog handler for the whole process. JSON by default so log
	// aggregators can parse it; LOG_FORMAT=text for local development.
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// SIGINT/SIGTERM cancel ctx, which starts the graceful shutdown below.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; Ping verifies reachability
	// before we accept traffic.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	logger.Info("database connection established")

	var directory repo.RecipientDirectory = repo.NewPostgresDirectory(pool, logger)

	// --- Directory cache (optional) ---------------------------------------
	// REDIS_URL puts a short-lived read-through cache in front of PostGIS.
	// Cached results are served for at most CACHE_TTL.
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		client := redis.NewClient(opts)
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			// The cache is bypassed on failure anyway; start without it.
			logger.Warn("redis unreachable, directory cache disabled", "error", err)
		} else {
			directory = repo.NewCachedDirectory(directory, client, cfg.CacheTTL, logger)
			logger.Info("directory cache enabled", "ttl", cfg.CacheTTL.String())
		}
	}

	// --- Metrics ----------------------------------------------------------
	// A private registry keeps /metrics limited to this service plus the Go
	// runtime and process collectors.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// --- Tracing ----------------------------------------------------------
	// The SDK provider is also installed globally. Shutdown flushes any
	// batched spans, so it runs after the HTTP server has drained.
	tp, err := tracing.NewProvider(cfg.TracesExporter, os.Stderr)
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tp)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(flushCtx); err != nil {
			logger.Warn("tracer provider shutdown", "error", err)
		}
	}()

	// --- Services ---------------------------------------------------------
	matches := service.NewMatchService(directory, cfg.DefaultRadiusKm, logger, m, service.WithTracerProvider(tp))
	recipients := service.NewRecipientService(repo.NewRecipientRepo(pool, logger))
	api := handler.NewServer(matches, recipients, pool, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → body limit.
	// RequestID generates a unique ID per request and echoes it in logs.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured line per request, keyed by route pattern.
	// Recoverer sits inside the logger so a panic is still logged as a 500.
	// CORS answers browser preflights before any handler runs.
	// The body limit rejects oversized recipient payloads with 413.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	// /metrics is served outside the API routes so it never appears in the
	// OpenAPI document.
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Mount("/", api.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// ReadHeaderTimeout bounds the header phase separately from the body.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown: when a signal arrives or the listener fails, give
	// in-flight requests up to SHUTDOWN_TIMEOUT to complete before closing.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
