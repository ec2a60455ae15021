package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// RepositoryPort abstracts ledger access.
type RepositoryPort interface {
	WithLedger(ctx context.Context, fn func(context.Context, TxLedger) error) error
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, int, error)
}

// ActivityPort records activity log entries.
type ActivityPort interface {
	Record(ctx context.Context, log shared.ActivityLog) error
}

// MovementObserver is told about committed stock movements.
type MovementObserver interface {
	ObserveStockMovement(refType string, delta int)
}

// LowStockScheduler queues a low-stock scan of one store.
type LowStockScheduler interface {
	EnqueueLowStockScan(ctx context.Context, storeID string) error
}

// Service exposes the stock ledger to the bridge.
type Service struct {
	repo      RepositoryPort
	audit     ActivityPort
	movements MovementObserver
	scans     LowStockScheduler
	logger    *slog.Logger
}

// NewService builds Service. audit and movements may be nil.
func NewService(repo RepositoryPort, audit ActivityPort, movements MovementObserver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, movements: movements, logger: logger}
}

// WithLowStockScans makes stock-reducing corrections queue a low-stock scan
// of their store.
func (s *Service) WithLowStockScans(scans LowStockScheduler) *Service {
	s.scans = scans
	return s
}

// ListMovements pages the movements of a store, optionally for one product.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) (shared.Page[Movement], error) {
	if filter.StoreID == "" {
		return shared.Page[Movement]{}, fmt.Errorf("%w: storeId is required", shared.ErrValidation)
	}
	filter.Page, filter.PageSize = shared.NormalizePage(filter.Page, filter.PageSize, 50)
	items, total, err := s.repo.ListMovements(ctx, filter)
	if err != nil {
		return shared.Page[Movement]{}, err
	}
	return shared.NewPage(items, filter.Page, filter.PageSize, total), nil
}

// Adjust applies a manual correction. Corrections never take stock below zero.
func (s *Service) Adjust(ctx context.Context, in AdjustInput) (Movement, error) {
	if in.StoreID == "" || in.ProductID == "" {
		return Movement{}, fmt.Errorf("%w: storeId and productId are required", shared.ErrValidation)
	}
	if in.Delta == 0 {
		return Movement{}, fmt.Errorf("%w: delta must not be zero", shared.ErrValidation)
	}
	var mv Movement
	err := s.repo.WithLedger(ctx, func(ctx context.Context, ledger TxLedger) error {
		var err error
		mv, err = ledger.Adjust(ctx, Adjustment{
			StoreID:   in.StoreID,
			ProductID: in.ProductID,
			Delta:     in.Delta,
			RefType:   RefAdjustment,
			RefID:     uuid.NewString(),
			Note:      in.Note,
			CreatedBy: shared.ActorID(ctx),
		})
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	if s.movements != nil {
		s.movements.ObserveStockMovement(string(mv.RefType), mv.Delta)
	}
	if s.audit != nil {
		entry := shared.ActivityLog{StoreID: in.StoreID, Action: "STOCK_ADJUST", Entity: "product", EntityID: in.ProductID,
			Meta: map[string]any{"delta": in.Delta, "levelAfter": mv.LevelAfter, "note": in.Note}}
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Warn("record stock adjustment", slog.Any("error", err))
		}
	}
	if s.scans != nil && mv.Delta < 0 {
		if err := s.scans.EnqueueLowStockScan(ctx, in.StoreID); err != nil {
			s.logger.Warn("queue low stock scan", slog.String("store_id", in.StoreID), slog.Any("error", err))
		}
	}
	return mv, nil
}
