package sales

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tillpoint/tillpoint/internal/bridge"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// StoreGuard checks store access for the actor in context.
type StoreGuard interface {
	EnsureStore(ctx context.Context, storeID string) error
}

// Handler exposes sales on the bridge.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   StoreGuard
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service, guard StoreGuard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// Register mounts the sales.* operations.
func (h *Handler) Register(r *bridge.Registry) {
	r.Handle("sales.list", shared.PermSalesView, h.list)
	r.Handle("sales.get", shared.PermSalesView, h.get)
	r.Handle("sales.create", shared.PermSalesCreate, h.create)
	r.Handle("sales.recordPayment", shared.PermSalesCreate, h.recordPayment)
	r.Handle("sales.delete", shared.PermSalesDelete, h.delete)
}

type listRequest struct {
	bridge.ListParams
	StoreID       string    `json:"storeId" validate:"required"`
	CashierID     string    `json:"cashierId"`
	PaymentStatus string    `json:"paymentStatus" validate:"omitempty,oneof=PAID PENDING PARTIAL"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
}

type paymentRequest struct {
	StoreID string `json:"storeId" validate:"required"`
	ID      string `json:"id" validate:"required"`
	PaymentInput
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
		CashierID:     in.CashierID,
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
	in, err := bridge.Decode[CheckoutInput](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	sale, err := h.service.Checkout(ctx, in)
	if err != nil {
		if IsShortfall(err) {
			h.logger.Info("checkout rejected", slog.String("store_id", in.StoreID), slog.Any("error", err))
		}
		return nil, err
	}
	h.logger.Info("sale completed", slog.String("store_id", sale.StoreID), slog.String("invoice", sale.InvoiceNumber), slog.String("total", sale.TotalAmount.StringFixed(2)))
	return sale, nil
}

func (h *Handler) recordPayment(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[paymentRequest](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	return h.service.RecordPayment(ctx, in.StoreID, in.ID, in.PaymentInput)
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
