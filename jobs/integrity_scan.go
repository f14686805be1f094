package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rutacredit/rutacredit/internal/access"
	"github.com/rutacredit/rutacredit/internal/actors"
	jobmetrics "github.com/rutacredit/rutacredit/internal/jobs"
	"github.com/rutacredit/rutacredit/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ActorLister enumerates all actors for the scan. Implemented by the actors
// service.
type ActorLister interface {
	List(ctx context.Context) ([]actors.Actor, error)
}

// IntegrityScanJob re-resolves every actor's scope and reports companies
// assigned outside their hierarchy nodes. Findings are logged and audited;
// the assignments themselves stay untouched so an admin can fix them.
type IntegrityScanJob struct {
	Actors   ActorLister
	Resolver *access.Resolver
	Audit    *shared.AuditLogger
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewIntegrityScanJob initialises the scan handler.
func NewIntegrityScanJob(lister ActorLister, resolver *access.Resolver, audit *shared.AuditLogger, logger *slog.Logger, metrics *jobmetrics.Metrics) *IntegrityScanJob {
	return &IntegrityScanJob{
		Actors:   lister,
		Resolver: resolver,
		Audit:    audit,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the integrity scan.
func (j *IntegrityScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Actors == nil || j.Resolver == nil {
		return errors.New("integrity scan: handler not configured")
	}
	var payload IntegrityScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := j.now()
	tracker := j.metrics().Track(TaskScopeIntegrityScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting scope integrity scan")

	all, err := j.Actors.List(ctx)
	if err != nil {
		resultErr = err
		logger.Error("list actors", slog.Any("error", err))
		return resultErr
	}

	scanned := 0
	flagged := 0
	for _, actor := range all {
		if actor.Role == actors.RoleSuperAdmin || actor.Role == actors.RoleCollector {
			continue
		}
		scanned++
		findings, err := j.Resolver.InconsistentCompanies(ctx, actor)
		if err != nil {
			logger.Error("resolve actor scope",
				slog.Int64("actor_id", actor.ID),
				slog.Any("error", err),
			)
			continue
		}
		if len(findings) == 0 {
			continue
		}
		flagged++
		j.metrics().AddFindings(actor.ID, len(findings))
		logger.Warn("inconsistent company assignments",
			slog.Int64("actor_id", actor.ID),
			slog.String("email", actor.Email),
			slog.Any("company_ids", findings),
		)
		if j.Audit != nil {
			if err := j.Audit.Record(ctx, shared.AuditLog{
				ActorID:  actor.ID,
				Action:   "access.integrity_finding",
				Entity:   "actor",
				EntityID: strconv.FormatInt(actor.ID, 10),
				Meta:     map[string]any{"company_ids": findings},
			}); err != nil {
				logger.Warn("record finding", slog.Any("error", err))
			}
		}
	}

	logger.Info("completed scope integrity scan",
		slog.Int("scanned", scanned),
		slog.Int("flagged", flagged),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *IntegrityScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *IntegrityScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskScopeIntegrityScan))
	}
	return slog.Default().With(slog.String("job", TaskScopeIntegrityScan))
}

func (j *IntegrityScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
