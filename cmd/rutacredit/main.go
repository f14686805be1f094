package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rutacredit/rutacredit/internal/access"
	"github.com/rutacredit/rutacredit/internal/actors"
	"github.com/rutacredit/rutacredit/internal/app"
	"github.com/rutacredit/rutacredit/internal/auth"
	"github.com/rutacredit/rutacredit/internal/catalog"
	"github.com/rutacredit/rutacredit/internal/observability"
	"github.com/rutacredit/rutacredit/internal/platform/cache"
	"github.com/rutacredit/rutacredit/internal/platform/db"
	"github.com/rutacredit/rutacredit/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "rutacredit_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)

	actorsRepo := actors.NewRepository(pool)
	actorsService := actors.NewService(actorsRepo, auditLogger, logger)
	actorsHandler := actors.NewHandler(logger, actorsService)

	counters := access.NewCounters(metrics.Registerer())
	resolver := access.NewResolver(catalogRepo, logger, counters)
	locations := access.NewLocations(resolver, actorsRepo, logger, counters)
	matrix := access.NewMatrix(pool)
	evaluator := access.NewEvaluator(matrix, counters)
	codes := access.NewCodes(actorsRepo, auditLogger, logger)
	accessHandler := access.NewHandler(logger, resolver, locations, evaluator, matrix, codes, catalogService, auditLogger)
	guard := access.Middleware{Actors: actorsService, Evaluator: evaluator, Logger: logger}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(actorsRepo, authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		ActorsHandler:  actorsHandler,
		AccessHandler:  accessHandler,
		AccessGuard:    guard,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
