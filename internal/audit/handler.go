package audit

import (
	"context"
	"encoding/json"

	"github.com/tillpoint/tillpoint/internal/bridge"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Handler exposes the activity timeline on the bridge.
type Handler struct {
	service *Service
}

// NewHandler builds Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts activityLogs.* operations.
func (h *Handler) Register(r *bridge.Registry) {
	r.Handle("activityLogs.list", shared.PermReportsView, h.list)
	r.Handle("activityLogs.export", shared.PermReportsView, h.export)
}

func (h *Handler) list(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[TimelineFilters](payload)
	if err != nil {
		return nil, err
	}
	return h.service.Timeline(ctx, in)
}

func (h *Handler) export(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[TimelineFilters](payload)
	if err != nil {
		return nil, err
	}
	return h.service.Export(ctx, in)
}
