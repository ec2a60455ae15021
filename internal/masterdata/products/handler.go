package products

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

// Handler exposes products on the bridge.
type Handler struct {
	service *Service
	guard   StoreGuard
}

// NewHandler builds Handler.
func NewHandler(service *Service, guard StoreGuard) *Handler {
	return &Handler{service: service, guard: guard}
}

// Register mounts the products.* catalog operations.
func (h *Handler) Register(r *bridge.Registry) {
	r.Handle("products.list", shared.PermCatalogView, h.list)
	r.Handle("products.get", shared.PermCatalogView, h.get)
	r.Handle("products.findByBarcode", shared.PermCatalogView, h.findByBarcode)
	r.Handle("products.lowStock", shared.PermCatalogView, h.lowStock)
	r.Handle("products.create", shared.PermCatalogEdit, h.create)
	r.Handle("products.update", shared.PermCatalogEdit, h.update)
	r.Handle("products.delete", shared.PermCatalogEdit, h.delete)
}

type listRequest struct {
	bridge.ListParams
	StoreID    string `json:"storeId" validate:"required"`
	CategoryID string `json:"categoryId"`
	BrandID    string `json:"brandId"`
	LowStock   bool   `json:"lowStock"`
}

type barcodeRequest struct {
	StoreID string `json:"storeId" validate:"required"`
	Barcode string `json:"barcode" validate:"required"`
}

type lowStockRequest struct {
	StoreID string `json:"storeId" validate:"required"`
	Limit   int    `json:"limit" validate:"gte=0"`
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
		StoreID:    in.StoreID,
		Search:     base.Search,
		CategoryID: in.CategoryID,
		BrandID:    in.BrandID,
		IsActive:   base.IsActive,
		LowStock:   in.LowStock,
		Page:       base.Page,
		PageSize:   base.PageSize,
		SortBy:     base.SortBy,
		SortDir:    base.SortDir,
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

func (h *Handler) findByBarcode(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[barcodeRequest](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	return h.service.FindByBarcode(ctx, in.StoreID, in.Barcode)
}

func (h *Handler) lowStock(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[lowStockRequest](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	return h.service.LowStock(ctx, in.StoreID, in.Limit)
}

func (h *Handler) create(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[Input](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	return h.service.Create(ctx, in)
}

func (h *Handler) update(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.DecodeUpdate[Patch](payload)
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
