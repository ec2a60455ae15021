package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/tillpoint/tillpoint/internal/jobs"
	"github.com/tillpoint/tillpoint/internal/reports"
	"github.com/tillpoint/tillpoint/internal/shared"
)

const lowStockSample = 20

// StoreLister lists the active stores to scan.
type StoreLister interface {
	ActiveStoreIDs(ctx context.Context) ([]string, error)
}

// LowStockReader finds low-stock products of a store.
type LowStockReader interface {
	LowStock(ctx context.Context, storeID string, limit int) ([]reports.LowStockItem, int, error)
}

// ActivityRecorder writes activity log entries.
type ActivityRecorder interface {
	Record(ctx context.Context, log shared.ActivityLog) error
}

// LowStockScanJob publishes per-store low-stock counts and records an
// activity entry for every store with a backlog.
type LowStockScanJob struct {
	Stores   StoreLister
	Stock    LowStockReader
	Activity ActivityRecorder
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(stores StoreLister, stock LowStockReader, activity ActivityRecorder, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{Stores: stores, Stock: stock, Activity: activity, Logger: logger, Metrics: metrics}
}

// Handle processes TaskLowStockScan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Stores == nil || j.Stock == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	tracker := j.Metrics.Track(TaskLowStockScan)
	defer func() { resultErr = tracker.End(resultErr) }()

	logger := loggerOr(j.Logger).With(slog.String("task", TaskLowStockScan))
	storeIDs := []string{payload.StoreID}
	if payload.StoreID == "" {
		ids, err := j.Stores.ActiveStoreIDs(ctx)
		if err != nil {
			logger.Error("list stores", slog.Any("error", err))
			return err
		}
		storeIDs = ids
	}

	flagged := 0
	for _, storeID := range storeIDs {
		items, total, err := j.Stock.LowStock(ctx, storeID, lowStockSample)
		if err != nil {
			logger.Error("scan store", slog.String("store_id", storeID), slog.Any("error", err))
			return err
		}
		j.Metrics.SetLowStock(storeID, total)
		if total == 0 {
			continue
		}
		flagged++
		skus := make([]string, 0, len(items))
		for _, item := range items {
			skus = append(skus, item.SKU)
		}
		logger.Warn("low stock", slog.String("store_id", storeID), slog.Int("products", total), slog.Any("skus", skus))
		if j.Activity != nil {
			entry := shared.ActivityLog{
				StoreID:  storeID,
				Action:   "LOW_STOCK_ALERT",
				Entity:   "store",
				EntityID: storeID,
				Meta:     map[string]any{"count": total, "skus": skus},
			}
			if err := j.Activity.Record(ctx, entry); err != nil {
				logger.Warn("record low stock alert", slog.String("store_id", storeID), slog.Any("error", err))
			}
		}
	}
	logger.Info("low stock scan finished", slog.Int("stores", len(storeIDs)), slog.Int("flagged", flagged))
	return nil
}

// PGStoreLister reads active store ids from PostgreSQL.
type PGStoreLister struct {
	Pool *pgxpool.Pool
}

// ActiveStoreIDs implements StoreLister.
func (l PGStoreLister) ActiveStoreIDs(ctx context.Context) ([]string, error) {
	rows, err := l.Pool.Query(ctx, `SELECT id::text FROM stores WHERE is_active ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func loggerOr(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
