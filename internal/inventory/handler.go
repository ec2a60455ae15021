package inventory

import (
	"context"
	"encoding/json"

	"github.com/tillpoint/tillpoint/internal/bridge"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// StoreGuard checks store access for the actor in context.
type StoreGuard interface {
	EnsureStore(ctx context.Context, storeID string) error
}

// Handler registers ledger operations on the bridge.
type Handler struct {
	service *Service
	guard   StoreGuard
}

// NewHandler constructs Handler.
func NewHandler(service *Service, guard StoreGuard) *Handler {
	return &Handler{service: service, guard: guard}
}

type movementsRequest struct {
	StoreID   string `json:"storeId" validate:"required"`
	ProductID string `json:"productId"`
	RefType   string `json:"refType" validate:"omitempty,oneof=PURCHASE_ORDER PURCHASE_ORDER_UPDATE PURCHASE_ORDER_DELETE SALE SALE_DELETE OPENING ADJUSTMENT"`
	Page      int    `json:"page" validate:"gte=0"`
	PageSize  int    `json:"pageSize" validate:"gte=0"`
}

// Register mounts the operations.
func (h *Handler) Register(r *bridge.Registry) {
	r.Handle("products.movements", shared.PermCatalogView, h.movements)
	r.Handle("products.adjustStock", shared.PermCatalogEdit, h.adjust)
}

func (h *Handler) adjust(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[AdjustInput](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	return h.service.Adjust(ctx, in)
}

func (h *Handler) movements(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[movementsRequest](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	return h.service.ListMovements(ctx, MovementFilter{
		StoreID:   in.StoreID,
		ProductID: in.ProductID,
		RefType:   RefType(in.RefType),
		Page:      in.Page,
		PageSize:  in.PageSize,
	})
}
