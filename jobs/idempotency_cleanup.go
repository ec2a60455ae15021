package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tillpoint/tillpoint/internal/jobs"
)

// DefaultIdempotencyRetention is how long checkout keys are kept.
const DefaultIdempotencyRetention = 7 * 24 * time.Hour

// IdempotencyPurger deletes keys older than a cutoff.
type IdempotencyPurger interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob drops stale idempotency keys.
type IdempotencyCleanupJob struct {
	Store   IdempotencyPurger
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewIdempotencyCleanupJob wires dependencies for the cleanup handler.
func NewIdempotencyCleanupJob(store IdempotencyPurger, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Retention <= 0 {
		payload.Retention = DefaultIdempotencyRetention
	}
	tracker := j.Metrics.Track(TaskIdempotencyCleanup)
	defer func() { resultErr = tracker.End(resultErr) }()

	removed, err := j.Store.Cleanup(ctx, payload.Retention)
	if err != nil {
		loggerOr(j.Logger).Error("cleanup idempotency keys", slog.Any("error", err))
		return err
	}
	loggerOr(j.Logger).Info("idempotency keys cleaned", slog.Int64("removed", removed), slog.Duration("retention", payload.Retention))
	return nil
}
