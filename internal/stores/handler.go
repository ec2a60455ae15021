package stores

import (
	"context"
	"encoding/json"

	"github.com/tillpoint/tillpoint/internal/bridge"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Handler exposes stores on the bridge.
type Handler struct {
	service *Service
}

// NewHandler builds Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the stores.* operations.
func (h *Handler) Register(r *bridge.Registry) {
	r.Handle("stores.list", "", h.list)
	r.Handle("stores.get", "", h.get)
	r.Handle("stores.create", shared.PermStoresManage, h.create)
	r.Handle("stores.update", shared.PermStoresManage, h.update)
	r.Handle("stores.delete", shared.PermStoresManage, h.delete)
}

func (h *Handler) list(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[bridge.ListParams](payload)
	if err != nil {
		return nil, err
	}
	return h.service.List(ctx, in.Filters(50))
}

func (h *Handler) get(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[bridge.IDParams](payload)
	if err != nil {
		return nil, err
	}
	return h.service.Get(ctx, in.ID)
}

func (h *Handler) create(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[Input](payload)
	if err != nil {
		return nil, err
	}
	return h.service.Create(ctx, in)
}

func (h *Handler) update(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.DecodeUpdate[Input](payload)
	if err != nil {
		return nil, err
	}
	return h.service.Update(ctx, in.ID, in.Data)
}

func (h *Handler) delete(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[bridge.IDParams](payload)
	if err != nil {
		return nil, err
	}
	if err := h.service.Delete(ctx, in.ID); err != nil {
		return nil, err
	}
	return map[string]string{"id": in.ID}, nil
}
