package reports

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

// Handler exposes reports on the bridge.
type Handler struct {
	service *Service
	guard   StoreGuard
}

// NewHandler builds Handler.
func NewHandler(service *Service, guard StoreGuard) *Handler {
	return &Handler{service: service, guard: guard}
}

// Register mounts reports.* operations.
func (h *Handler) Register(r *bridge.Registry) {
	r.Handle("reports.salesSummary", shared.PermReportsView, h.salesSummary)
	r.Handle("reports.topProducts", shared.PermReportsView, h.topProducts)
	r.Handle("reports.dashboard", shared.PermReportsView, h.dashboard)
}

type dashboardRequest struct {
	StoreID string `json:"storeId" validate:"required"`
}

func (h *Handler) salesSummary(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[SummaryFilter](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	return h.service.SalesSummary(ctx, in)
}

func (h *Handler) topProducts(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[TopFilter](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	return h.service.TopProducts(ctx, in)
}

func (h *Handler) dashboard(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[dashboardRequest](payload)
	if err != nil {
		return nil, err
	}
	if err := h.guard.EnsureStore(ctx, in.StoreID); err != nil {
		return nil, err
	}
	return h.service.Dashboard(ctx, in.StoreID)
}
