// Copyright (c) 2026 Exvault. All rights reserved.

// Command api is the entry point for the Exvault HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire the image store, extraction pipeline and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
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

	"github.com/exvault/exvault/internal/api"
	"github.com/exvault/exvault/internal/core/course"
	"github.com/exvault/exvault/internal/core/exercise"
	"github.com/exvault/exvault/internal/core/setting"
	"github.com/exvault/exvault/internal/document"
	"github.com/exvault/exvault/internal/extract"
	"github.com/exvault/exvault/internal/imaging"
	"github.com/exvault/exvault/internal/platform/config"
	"github.com/exvault/exvault/internal/platform/constants"
	"github.com/exvault/exvault/internal/platform/migration"
	pgstore "github.com/exvault/exvault/internal/platform/postgres"
	redisstore "github.com/exvault/exvault/internal/platform/redis"
	"github.com/exvault/exvault/internal/storage/imagestore"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Exvault] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("gemini_model", cfg.GeminiModel),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Image Store ────────────────────────────────────────────────────
	images, err := imagestore.New(cfg.DataDir)
	must(log, err, "initialize image store")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	settingRepository := setting.NewPostgresRepository(pool)
	settingService := setting.NewService(settingRepository, log)
	settingHandler := setting.NewHandler(settingService)

	exerciseRepository := exercise.NewPostgresRepository(pool)
	exerciseService := exercise.NewService(exerciseRepository, images, log)
	exerciseHandler := exercise.NewHandler(exerciseService)

	courseRepository := course.NewPostgresRepository(pool)
	courseService := course.NewService(courseRepository, images, log)
	courseHandler := course.NewHandler(courseService)

	// The extractor resolves the API key through the settings service on
	// every call, so key changes take effect without a restart. Results are
	// cached in Redis keyed by a fingerprint of the page images.
	extractor := extract.NewCache(extract.NewGemini(settingService, cfg.GeminiModel), rdb)

	rasterizer := imaging.NewRasterizer(cfg.RenderScale)

	documentService := document.NewService(rasterizer, extractor, images, exerciseService, cfg.MinCropHeight, log)
	documentHandler := document.NewHandler(documentService)

	// Lifetime context for background work (session sweeper, rate limiter
	// cleanup). Cancelled when main returns.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// Sessions idle past their TTL are evicted so abandoned uploads do not
	// pin composites in memory.
	documentService.StartSweeper(appCtx)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Images:    api.NewImageHandler(images),
		Document:  documentHandler,
		Course:    courseHandler,
		Exercise:  exerciseHandler,
		Setting:   settingHandler,
	}

	server := api.NewServer(appCtx, cfg, log, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
