package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tillpoint/tillpoint/internal/jobs"
)

// ReportWarmer retires and re-primes a store's cached reports.
type ReportWarmer interface {
	Warmup(ctx context.Context, storeID string) error
}

// ReportsWarmupJob runs after checkouts change a store's figures.
type ReportsWarmupJob struct {
	Reports ReportWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReportsWarmupJob wires dependencies for the warmup handler.
func NewReportsWarmupJob(reports ReportWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportsWarmupJob {
	return &ReportsWarmupJob{Reports: reports, Logger: logger, Metrics: metrics}
}

// Handle processes TaskReportsWarmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.StoreID == "" {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track(TaskReportsWarmup)
	defer func() { resultErr = tracker.End(resultErr) }()

	if err := j.Reports.Warmup(ctx, payload.StoreID); err != nil {
		loggerOr(j.Logger).Error("warm reports", slog.String("store_id", payload.StoreID), slog.Any("error", err))
		return err
	}
	return nil
}
