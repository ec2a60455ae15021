package procurement

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint/internal/bridge"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// StoreGuard checks store access for the actor in context.
type StoreGuard interface {
	EnsureStore(ctx context.Context, storeID string) error
}

// Handler exposes the purchase order workflow on the bridge.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   StoreGuard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard StoreGuard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// Register mounts the purchaseOrders.* operations.
func (h *Handler) Register(r *bridge.Registry) {
	r.Handle("purchaseOrders.list", shared.PermProcurementView, h.list)
	r.Handle("purchaseOrders.get", shared.PermProcurementView, h.get)
	r.Handle("purchaseOrders.create", shared.PermProcurementEdit, h.create)
	r.Handle("purchaseOrders.update", shared.PermProcurementEdit, h.update)
	r.Handle("purchaseOrders.delete", shared.PermProcurementEdit, h.delete)
	r.Handle("purchaseOrders.updateStatus", shared.PermProcurementEdit, h.updateStatus)
	r.Handle("purchaseOrders.recordPayment", shared.PermProcurementEdit, h.recordPayment)
}

type listRequest struct {
	bridge.ListParams
	StoreID       string    `json:"storeId" validate:"required"`
	Status        string    `json:"status" validate:"omitempty,oneof=DRAFT CONFIRMED RECEIVED CANCELLED"`
	SupplierID    string    `json:"supplierId"`
	PaymentStatus string    `json:"paymentStatus" validate:"omitempty,oneof=PAID PENDING PARTIAL"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
}

type statusRequest struct {
	StoreID string `json:"storeId" validate:"required"`
	ID      string `json:"id" validate:"required"`
	Status  Status `json:"status" validate:"required,oneof=DRAFT CONFIRMED RECEIVED CANCELLED"`
}

type paymentRequest struct {
	StoreID string          `json:"storeId" validate:"required"`
	ID      string          `json:"id" validate:"required"`
	Amount  decimal.Decimal `json:"amount"`
}

func (h *Handler) list(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[listRequest](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	base := in.ListParams.Filters(shared.DefaultPageSize)
	return h.service.List(ctx, ListFilters{
		StoreID:       in.StoreID,
		Status:        Status(in.Status),
		SupplierID:    in.SupplierID,
		PaymentStatus: shared.PaymentStatus(in.PaymentStatus),
		Search:        base.Search,
		From:          in.From,
		To:            in.To,
		Page:          base.Page,
		PageSize:      base.PageSize,
		SortBy:        base.SortBy,
		SortDir:       base.SortDir,
	})
}

func (h *Handler) get(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[bridge.StoreIDParams](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	return h.service.Get(ctx, in.StoreID, in.ID)
}

func (h *Handler) create(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[OrderInput](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	po, err := h.service.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	h.logger.Info("purchase order created", slog.String("store_id", po.StoreID), slog.String("po_number", po.PONumber), slog.Int("items", len(po.Items)))
	return po, nil
}

func (h *Handler) update(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.DecodeUpdate[OrderInput](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.Data.StoreID); err != nil {
		return nil, err
	}
	return h.service.Update(ctx, in.ID, in.Data)
}

func (h *Handler) delete(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[bridge.StoreIDParams](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	if err := h.service.Delete(ctx, in.StoreID, in.ID); err != nil {
		return nil, err
	}
	return map[string]string{"id": in.ID}, nil
}

func (h *Handler) updateStatus(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[statusRequest](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	return h.service.UpdateStatus(ctx, in.StoreID, in.ID, in.Status)
}

func (h *Handler) recordPayment(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[paymentRequest](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	return h.service.RecordPayment(ctx, in.StoreID, in.ID, in.Amount)
}
