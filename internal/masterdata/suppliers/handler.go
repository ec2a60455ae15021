package suppliers

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

// Handler exposes suppliers on the bridge.
type Handler struct {
	service *Service
	guard   StoreGuard
}

// NewHandler builds Handler.
func NewHandler(service *Service, guard StoreGuard) *Handler {
	return &Handler{service: service, guard: guard}
}

// Register mounts the suppliers.* operations.
func (h *Handler) Register(r *bridge.Registry) {
	r.Handle("suppliers.list", shared.PermCatalogView, h.list)
	r.Handle("suppliers.get", shared.PermCatalogView, h.get)
	r.Handle("suppliers.create", shared.PermCatalogEdit, h.create)
	r.Handle("suppliers.update", shared.PermCatalogEdit, h.update)
	r.Handle("suppliers.delete", shared.PermCatalogEdit, h.delete)
}

type listRequest struct {
	bridge.ListParams
	StoreID string `json:"storeId" validate:"required"`
}

func (h *Handler) list(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[listRequest](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	filters := in.ListParams.Filters(shared.DefaultPageSize)
	filters.StoreID = in.StoreID
	return h.service.List(ctx, filters)
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
