package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/tillpoint/tillpoint/internal/bridge"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Handler wires bridge operations for authentication flows.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// Register mounts the auth.* operations.
func (h *Handler) Register(r *bridge.Registry) {
	r.Public("auth.login", h.login)
	r.Handle("auth.logout", "", h.logout)
	r.Handle("auth.me", "", h.me)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := bridge.Decode[loginRequest](payload)
	if err != nil {
		return nil, err
	}
	result, err := h.service.Login(ctx, in.Username, in.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Info("login rejected", slog.String("username", in.Username))
		}
		return nil, err
	}
	h.logger.Info("login", slog.String("user_id", result.User.ID), slog.Int("stores", len(result.Stores)))
	return result, nil
}

func (h *Handler) logout(ctx context.Context, _ json.RawMessage) (any, error) {
	if err := h.service.Logout(ctx); err != nil {
		return nil, err
	}
	return map[string]bool{"loggedOut": true}, nil
}

func (h *Handler) me(ctx context.Context, _ json.RawMessage) (any, error) {
	return h.service.Me(ctx)
}
