package users

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tillpoint/tillpoint/internal/bridge"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Handler manages user operations on the bridge.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// Register mounts the users.* operations.
func (h *Handler) Register(r *bridge.Registry) {
	r.Handle("users.list", shared.PermUsersManage, h.list)
	r.Handle("users.get", shared.PermUsersManage, h.get)
	r.Handle("users.create", shared.PermUsersManage, h.create)
	r.Handle("users.update", shared.PermUsersManage, h.update)
	r.Handle("users.delete", shared.PermUsersManage, h.delete)
	r.Handle("users.setStores", shared.PermUsersManage, h.setStores)
}

type listRequest struct {
	bridge.ListParams
	RoleID string `json:"roleId"`
}

type setStoresRequest struct {
	ID       string   `json:"id" validate:"required"`
	StoreIDs []string `json:"storeIds"`
}

func (h *Handler) list(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[listRequest](payload)
	if err != nil {
		return nil, err
	}
	base := in.Filters(shared.DefaultPageSize)
	return h.service.List(ctx, ListFilters{
		Search:   base.Search,
		RoleID:   in.RoleID,
		StoreID:  base.StoreID,
		IsActive: base.IsActive,
		Page:     base.Page,
		PageSize: base.PageSize,
	})
}

func (h *Handler) get(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[bridge.IDParams](payload)
	if err != nil {
		return nil, err
	}
	return h.service.Get(ctx, in.ID)
}

func (h *Handler) create(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[CreateInput](payload)
	if err != nil {
		return nil, err
	}
	user, err := h.service.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	h.logger.Info("user created", slog.String("user_id", user.ID), slog.String("username", user.Username))
	return user, nil
}

func (h *Handler) update(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.DecodeUpdate[UpdateInput](payload)
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

func (h *Handler) setStores(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[setStoresRequest](payload)
	if err != nil {
		return nil, err
	}
	return h.service.SetStores(ctx, in.ID, in.StoreIDs)
}
