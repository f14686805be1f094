package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rutacredit/rutacredit/internal/access"
	jobmetrics "github.com/rutacredit/rutacredit/internal/jobs"
)

// CodeSweepJob clears unconfirmed access codes older than the configured TTL.
type CodeSweepJob struct {
	Codes      *access.Codes
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	DefaultTTL time.Duration
}

// NewCodeSweepJob initialises the sweep handler.
func NewCodeSweepJob(codes *access.Codes, logger *slog.Logger, metrics *jobmetrics.Metrics, defaultTTL time.Duration) *CodeSweepJob {
	return &CodeSweepJob{Codes: codes, Logger: logger, Metrics: metrics, DefaultTTL: defaultTTL}
}

// Handle executes the sweep.
func (j *CodeSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Codes == nil {
		return errors.New("code sweep: handler not configured")
	}
	var payload CodeSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	ttl := payload.TTL
	if ttl <= 0 {
		ttl = j.DefaultTTL
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	tracker := j.metrics().Track(TaskAccessCodeSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	cleared, err := j.Codes.SweepStale(ctx, ttl)
	if err != nil {
		resultErr = err
		j.logger().Error("sweep failed", slog.Any("error", err))
		return resultErr
	}
	j.logger().Info("stale access codes cleared",
		slog.Int64("cleared", cleared),
		slog.Duration("ttl", ttl),
	)
	return resultErr
}

func (j *CodeSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *CodeSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAccessCodeSweep))
	}
	return slog.Default().With(slog.String("job", TaskAccessCodeSweep))
}
