package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/rutacredit/rutacredit/internal/access"
	"github.com/rutacredit/rutacredit/internal/actors"
	"github.com/rutacredit/rutacredit/internal/app"
	"github.com/rutacredit/rutacredit/internal/catalog"
	"github.com/rutacredit/rutacredit/internal/platform/db"
	"github.com/rutacredit/rutacredit/internal/shared"
	"github.com/rutacredit/rutacredit/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	auditLogger := shared.NewAuditLogger(pool)

	catalogRepo := catalog.NewRepository(pool)
	actorsRepo := actors.NewRepository(pool)
	actorsService := actors.NewService(actorsRepo, auditLogger, logger)

	resolver := access.NewResolver(catalogRepo, logger, nil)
	codes := access.NewCodes(actorsRepo, auditLogger, logger)

	integrityJob := jobs.NewIntegrityScanJob(actorsService, resolver, auditLogger, logger, nil)
	sweepJob := jobs.NewCodeSweepJob(codes, logger, nil, cfg.AccessCodeTTL)

	integrityTask, err := jobs.NewIntegrityScanTask(jobs.IntegrityScanPayload{})
	if err != nil {
		logger.Error("build integrity task", slog.Any("error", err))
		os.Exit(1)
	}
	sweepTask, err := jobs.NewCodeSweepTask(jobs.CodeSweepPayload{TTL: cfg.AccessCodeTTL})
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskScopeIntegrityScan, Handler: integrityJob.Handle},
			{Type: jobs.TaskAccessCodeSweep, Handler: sweepJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.IntegrityScanCron, Task: integrityTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.CodeSweepCron, Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
