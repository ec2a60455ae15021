package accounting

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tillpoint/tillpoint/internal/bridge"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// StoreGuard checks store access for the actor in context.
type StoreGuard interface {
	EnsureStore(ctx context.Context, storeID string) error
}

// Handler exposes accounts, expenses and transactions on the bridge.
type Handler struct {
	service *Service
	guard   StoreGuard
}

// NewHandler builds a Handler instance.
func NewHandler(service *Service, guard StoreGuard) *Handler {
	return &Handler{service: service, guard: guard}
}

// Register mounts the accounting operations.
func (h *Handler) Register(r *bridge.Registry) {
	r.Handle("accounts.list", shared.PermAccountingView, h.listAccounts)
	r.Handle("accounts.get", shared.PermAccountingView, h.getAccount)
	r.Handle("accounts.trialBalance", shared.PermAccountingView, h.trialBalance)
	r.Handle("accounts.create", shared.PermAccountingEdit, h.createAccount)
	r.Handle("accounts.update", shared.PermAccountingEdit, h.updateAccount)
	r.Handle("accounts.delete", shared.PermAccountingEdit, h.deleteAccount)

	r.Handle("expenses.list", shared.PermAccountingView, h.listExpenses)
	r.Handle("expenses.get", shared.PermAccountingView, h.getExpense)
	r.Handle("expenses.create", shared.PermAccountingEdit, h.createExpense)
	r.Handle("expenses.update", shared.PermAccountingEdit, h.updateExpense)
	r.Handle("expenses.delete", shared.PermAccountingEdit, h.deleteExpense)

	r.Handle("transactions.list", shared.PermAccountingView, h.listTransactions)
	r.Handle("transactions.get", shared.PermAccountingView, h.getTransaction)
	r.Handle("transactions.create", shared.PermAccountingEdit, h.createTransaction)
	r.Handle("transactions.delete", shared.PermAccountingEdit, h.deleteTransaction)
}

type accountListRequest struct {
	bridge.ListParams
	StoreID     string      `json:"storeId" validate:"required"`
	AccountType AccountType `json:"accountType" validate:"omitempty,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
}

type entryListRequest struct {
	bridge.ListParams
	StoreID   string    `json:"storeId" validate:"required"`
	AccountID string    `json:"accountId"`
	Category  string    `json:"category"`
	Type      TxnType   `json:"type" validate:"omitempty,oneof=DEBIT CREDIT"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
}

func (r entryListRequest) filters() EntryFilters {
	base := r.ListParams.Filters(shared.DefaultPageSize)
	return EntryFilters{
		StoreID:   r.StoreID,
		AccountID: r.AccountID,
		Category:  r.Category,
		Type:      r.Type,
		Search:    base.Search,
		From:      r.From,
		To:        r.To,
		Page:      base.Page,
		PageSize:  base.PageSize,
		SortBy:    base.SortBy,
		SortDir:   base.SortDir,
	}
}

type storeRequest struct {
	StoreID string `json:"storeId" validate:"required"`
}

type accountUpdateRequest struct {
	ID string `json:"id" validate:"required"`
	AccountInput
}

type expenseUpdateRequest struct {
	ID string `json:"id" validate:"required"`
	ExpenseInput
}

// decodeScoped decodes a payload and checks the actor may use its store.
func decodeScoped[T any](ctx context.Context, h *Handler, payload json.RawMessage, storeOf func(T) string) (T, error) {
	in, err := bridge.Decode[T](payload)
	if err != nil {
		return in, err
	}
	return in, h.guard.EnsureStore(ctx, storeOf(in))
}

func (h *Handler) listAccounts(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decodeScoped(ctx, h, payload, func(r accountListRequest) string { return r.StoreID })
	if err != nil {
		return nil, err
	}
	base := in.ListParams.Filters(50)
	return h.service.ListAccounts(ctx, AccountFilters{
		StoreID:     in.StoreID,
		Search:      base.Search,
		AccountType: in.AccountType,
		IsActive:    base.IsActive,
		Page:        base.Page,
		PageSize:    base.PageSize,
		SortBy:      base.SortBy,
		SortDir:     base.SortDir,
	})
}

func (h *Handler) getAccount(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decodeScoped(ctx, h, payload, func(r bridge.StoreIDParams) string { return r.StoreID })
	if err != nil {
		return nil, err
	}
	return h.service.GetAccount(ctx, in.StoreID, in.ID)
}

func (h *Handler) trialBalance(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decodeScoped(ctx, h, payload, func(r storeRequest) string { return r.StoreID })
	if err != nil {
		return nil, err
	}
	return h.service.TrialBalance(ctx, in.StoreID)
}

func (h *Handler) createAccount(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decodeScoped(ctx, h, payload, func(r AccountInput) string { return r.StoreID })
	if err != nil {
		return nil, err
	}
	return h.service.CreateAccount(ctx, in)
}

func (h *Handler) updateAccount(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decodeScoped(ctx, h, payload, func(r accountUpdateRequest) string { return r.StoreID })
	if err != nil {
		return nil, err
	}
	return h.service.UpdateAccount(ctx, in.ID, in.AccountInput)
}

func (h *Handler) deleteAccount(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decodeScoped(ctx, h, payload, func(r bridge.StoreIDParams) string { return r.StoreID })
	if err != nil {
		return nil, err
	}
	if err := h.service.DeleteAccount(ctx, in.StoreID, in.ID); err != nil {
		return nil, err
	}
	return map[string]string{"id": in.ID}, nil
}

func (h *Handler) listExpenses(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decodeScoped(ctx, h, payload, func(r entryListRequest) string { return r.StoreID })
	if err != nil {
		return nil, err
	}
	return h.service.ListExpenses(ctx, in.filters())
}

func (h *Handler) getExpense(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decodeScoped(ctx, h, payload, func(r bridge.StoreIDParams) string { return r.StoreID })
	if err != nil {
		return nil, err
	}
	return h.service.GetExpense(ctx, in.StoreID, in.ID)
}

func (h *Handler) createExpense(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decodeScoped(ctx, h, payload, func(r ExpenseInput) string { return r.StoreID })
	if err != nil {
		return nil, err
	}
	return h.service.CreateExpense(ctx, in)
}

func (h *Handler) updateExpense(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decodeScoped(ctx, h, payload, func(r expenseUpdateRequest) string { return r.StoreID })
	if err != nil {
		return nil, err
	}
	return h.service.UpdateExpense(ctx, in.ID, in.ExpenseInput)
}

func (h *Handler) deleteExpense(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decodeScoped(ctx, h, payload, func(r bridge.StoreIDParams) string { return r.StoreID })
	if err != nil {
		return nil, err
	}
	if err := h.service.DeleteExpense(ctx, in.StoreID, in.ID); err != nil {
		return nil, err
	}
	return map[string]string{"id": in.ID}, nil
}

func (h *Handler) listTransactions(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decodeScoped(ctx, h, payload, func(r entryListRequest) string { return r.StoreID })
	if err != nil {
		return nil, err
	}
	return h.service.ListTransactions(ctx, in.filters())
}

func (h *Handler) getTransaction(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decodeScoped(ctx, h, payload, func(r bridge.StoreIDParams) string { return r.StoreID })
	if err != nil {
		return nil, err
	}
	return h.service.GetTransaction(ctx, in.StoreID, in.ID)
}

func (h *Handler) createTransaction(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decodeScoped(ctx, h, payload, func(r TransactionInput) string { return r.StoreID })
	if err != nil {
		return nil, err
	}
	return h.service.CreateTransaction(ctx, in)
}

func (h *Handler) deleteTransaction(ctx context.Context, payload json.RawMessage) (any, error) {
	in, err := decodeScoped(ctx, h, payload, func(r bridge.StoreIDParams) string { return r.StoreID })
	if err != nil {
		return nil, err
	}
	if err := h.service.DeleteTransaction(ctx, in.StoreID, in.ID); err != nil {
		return nil, err
	}
	return map[string]string{"id": in.ID}, nil
}
