package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskLowStockScan reports products at or below their minimum level.
	TaskLowStockScan = "inventory:low_stock_scan"
	// TaskReportsWarmup retires and re-primes a store's report cache.
	TaskReportsWarmup = "reports:warmup"
	// TaskIdempotencyCleanup drops old checkout idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// LowStockScanPayload limits a scan to one store when StoreID is set.
type LowStockScanPayload struct {
	StoreID string `json:"storeId,omitempty"`
}

// ReportsWarmupPayload names the store whose reports changed.
type ReportsWarmupPayload struct {
	StoreID string `json:"storeId"`
}

// IdempotencyCleanupPayload sets the retention window.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewLowStockScanTask constructs the scan task.
func NewLowStockScanTask(payload LowStockScanPayload) (*asynq.Task, error) {
	return newTask(TaskLowStockScan, payload)
}

// NewReportsWarmupTask constructs a warmup task for a store.
func NewReportsWarmupTask(storeID string) (*asynq.Task, error) {
	return newTask(TaskReportsWarmup, ReportsWarmupPayload{StoreID: storeID})
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	return newTask(TaskIdempotencyCleanup, IdempotencyCleanupPayload{Retention: retention})
}

func newTask(typ string, payload any) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typ, data), nil
}
