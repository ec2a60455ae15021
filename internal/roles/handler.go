package roles

import (
	"context"
	"encoding/json"

	"github.com/tillpoint/tillpoint/internal/bridge"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Handler manages role operations on the bridge.
type Handler struct {
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the roles.* operations.
func (h *Handler) Register(r *bridge.Registry) {
	r.Handle("roles.list", shared.PermUsersManage, h.list)
	r.Handle("roles.get", shared.PermUsersManage, h.get)
	r.Handle("roles.create", shared.PermUsersManage, h.create)
	r.Handle("roles.update", shared.PermUsersManage, h.update)
	r.Handle("roles.delete", shared.PermUsersManage, h.delete)
	r.Handle("roles.permissions", shared.PermUsersManage, h.permissions)
}

func (h *Handler) list(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[bridge.ListParams](payload)
	if err != nil {
		return nil, err
	}
	return h.service.List(ctx, in.Search)
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

func (h *Handler) permissions(context.Context, json.RawMessage) (any, error) {
	return h.service.Permissions(), nil
}
