package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tillpoint/tillpoint/internal/platform/httpx"
	"github.com/tillpoint/tillpoint/internal/shared"
)

const maxPayloadBytes = 4 << 20

// SessionLoader resolves bearer tokens.
type SessionLoader interface {
	Load(ctx context.Context, token string) (*shared.Session, error)
}

// Observer receives per-operation results.
type Observer interface {
	ObserveOperation(operation, code string, elapsed time.Duration)
}

// Handler serves the registry over HTTP.
type Handler struct {
	registry *Registry
	sessions SessionLoader
	observer Observer
	logger   *slog.Logger
}

// NewHandler builds the HTTP bridge. observer may be nil.
func NewHandler(registry *Registry, sessions SessionLoader, observer Observer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{registry: registry, sessions: sessions, observer: observer, logger: logger}
}

// MountRoutes registers the bridge endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/bridge", h.listOperations)
	r.Post("/bridge/{operation}", h.invoke)
}

func (h *Handler) listOperations(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, OK(h.registry.Names()))
}

func (h *Handler) invoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "operation")
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		httpx.JSON(w, http.StatusOK, Fail(fmt.Errorf("%w: unreadable payload", shared.ErrValidation)))
		return
	}
	httpx.JSON(w, http.StatusOK, h.Invoke(r.Context(), name, bearerToken(r), payload))
}

// Invoke runs one operation and returns its envelope. Failures never escape
// as panics.
func (h *Handler) Invoke(ctx context.Context, name, token string, payload json.RawMessage) Envelope {
	start := time.Now()
	data, err := h.call(ctx, name, token, payload)
	code := shared.ErrorKind(err)
	if h.observer != nil {
		h.observer.ObserveOperation(name, code, time.Since(start))
	}
	if err != nil {
		if code == shared.KindInternal {
			h.logger.Error("bridge operation failed", slog.String("operation", name), slog.Any("error", err))
		} else {
			h.logger.Debug("bridge operation rejected", slog.String("operation", name), slog.String("code", code), slog.Any("error", err))
		}
		return Fail(err)
	}
	return OK(data)
}

func (h *Handler) call(ctx context.Context, name, token string, payload json.RawMessage) (data any, err error) {
	op, ok := h.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown operation %q", shared.ErrNotFound, name)
	}
	if !op.Public {
		if token == "" || h.sessions == nil {
			return nil, shared.ErrUnauthorized
		}
		sess, err := h.sessions.Load(ctx, token)
		if err != nil {
			return nil, err
		}
		if !sess.Actor.Can(op.Permission) {
			return nil, fmt.Errorf("%w: %s requires %s", shared.ErrForbidden, name, op.Permission)
		}
		ctx = shared.ContextWithSession(ctx, sess)
	}

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("bridge operation panicked", slog.String("operation", name), slog.Any("panic", rec), slog.String("stack", string(debug.Stack())))
			data, err = nil, fmt.Errorf("bridge: %s panicked: %v", name, rec)
		}
	}()
	return op.Handler(ctx, payload)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
