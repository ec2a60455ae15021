package accounting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint/internal/accounting/reports"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListAccounts(ctx context.Context, filters AccountFilters) ([]Account, int, error)
	GetAccount(ctx context.Context, storeID, id string) (Account, error)
	InsertAccount(ctx context.Context, a Account) error
	UpdateAccount(ctx context.Context, a Account) error
	DeleteAccount(ctx context.Context, storeID, id string) error
	AccountUsage(ctx context.Context, storeID, id string) (AccountUsage, error)
	TrialBalanceRows(ctx context.Context, storeID string) ([]reports.AccountBalance, error)
	ListExpenses(ctx context.Context, filters EntryFilters) ([]Expense, int, error)
	GetExpense(ctx context.Context, storeID, id string) (Expense, error)
	ListTransactions(ctx context.Context, filters EntryFilters) ([]Transaction, int, error)
	GetTransaction(ctx context.Context, storeID, id string) (Transaction, error)
}

// ActivityPort records activity log entries.
type ActivityPort interface {
	Record(ctx context.Context, log shared.ActivityLog) error
}

// Service coordinates accounts, expenses and manual transactions.
type Service struct {
	repo   RepositoryPort
	audit  ActivityPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the accounting service.
func NewService(repo RepositoryPort, audit ActivityPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ListAccounts pages the accounts of a store.
func (s *Service) ListAccounts(ctx context.Context, filters AccountFilters) (shared.Page[Account], error) {
	if filters.StoreID == "" {
		return shared.Page[Account]{}, fmt.Errorf("%w: storeId is required", shared.ErrValidation)
	}
	filters.Page, filters.PageSize = shared.NormalizePage(filters.Page, filters.PageSize, 50)
	items, total, err := s.repo.ListAccounts(ctx, filters)
	if err != nil {
		return shared.Page[Account]{}, err
	}
	return shared.NewPage(items, filters.Page, filters.PageSize, total), nil
}

// GetAccount loads one account.
func (s *Service) GetAccount(ctx context.Context, storeID, id string) (Account, error) {
	return s.repo.GetAccount(ctx, storeID, id)
}

// CreateAccount inserts an account with its opening balance.
func (s *Service) CreateAccount(ctx context.Context, in AccountInput) (Account, error) {
	in, err := normalizeAccount(in)
	if err != nil {
		return Account{}, err
	}
	now := s.now()
	a := Account{
		ID:             uuid.NewString(),
		StoreID:        in.StoreID,
		CurrentBalance: in.OpeningBalance,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	applyAccount(&a, in)
	if err := s.repo.InsertAccount(ctx, a); err != nil {
		return Account{}, err
	}
	s.record(ctx, "ACCOUNT_CREATE", a.StoreID, "account", a.ID, map[string]any{"code": a.Code})
	return a, nil
}

// UpdateAccount rewrites an account's descriptive fields.
func (s *Service) UpdateAccount(ctx context.Context, id string, in AccountInput) (Account, error) {
	in, err := normalizeAccount(in)
	if err != nil {
		return Account{}, err
	}
	a, err := s.repo.GetAccount(ctx, in.StoreID, id)
	if err != nil {
		return Account{}, err
	}
	applyAccount(&a, in)
	a.UpdatedAt = s.now()
	if err := s.repo.UpdateAccount(ctx, a); err != nil {
		return Account{}, err
	}
	s.record(ctx, "ACCOUNT_UPDATE", a.StoreID, "account", a.ID, map[string]any{"code": a.Code})
	return a, nil
}

// DeleteAccount removes an account nothing has been posted to.
func (s *Service) DeleteAccount(ctx context.Context, storeID, id string) error {
	a, err := s.repo.GetAccount(ctx, storeID, id)
	if err != nil {
		return err
	}
	usage, err := s.repo.AccountUsage(ctx, storeID, id)
	if err != nil {
		return err
	}
	if usage.Expenses > 0 || usage.Transactions > 0 {
		return fmt.Errorf("%w: account %s has %d expenses and %d transactions",
			shared.ErrReferenced, a.Code, usage.Expenses, usage.Transactions)
	}
	if err := s.repo.DeleteAccount(ctx, storeID, id); err != nil {
		return err
	}
	s.record(ctx, "ACCOUNT_DELETE", storeID, "account", id, map[string]any{"code": a.Code})
	return nil
}

// TrialBalance summarises the store's accounts by type.
func (s *Service) TrialBalance(ctx context.Context, storeID string) (reports.TrialBalance, error) {
	rows, err := s.repo.TrialBalanceRows(ctx, storeID)
	if err != nil {
		return reports.TrialBalance{}, err
	}
	return reports.BuildTrialBalance(rows), nil
}

// ListExpenses pages expenses of a store.
func (s *Service) ListExpenses(ctx context.Context, filters EntryFilters) (shared.Page[Expense], error) {
	if err := checkEntryFilters(&filters); err != nil {
		return shared.Page[Expense]{}, err
	}
	items, total, err := s.repo.ListExpenses(ctx, filters)
	if err != nil {
		return shared.Page[Expense]{}, err
	}
	return shared.NewPage(items, filters.Page, filters.PageSize, total), nil
}

// GetExpense loads one expense.
func (s *Service) GetExpense(ctx context.Context, storeID, id string) (Expense, error) {
	return s.repo.GetExpense(ctx, storeID, id)
}

// CreateExpense pays an expense out of an account: the balance drops by the
// amount and a DEBIT transaction is written in the same transaction.
func (s *Service) CreateExpense(ctx context.Context, in ExpenseInput) (Expense, error) {
	in, err := normalizeExpense(in, s.now())
	if err != nil {
		return Expense{}, err
	}
	now := s.now()
	e := Expense{ID: uuid.NewString(), StoreID: in.StoreID, CreatedBy: shared.ActorID(ctx), CreatedAt: now}
	applyExpense(&e, in)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetAccountForUpdate(ctx, e.StoreID, e.AccountID)
		if err != nil {
			return err
		}
		if !account.IsActive {
			return fmt.Errorf("%w: account %s is inactive", shared.ErrValidation, account.Code)
		}
		e.AccountName = account.Name
		if err := tx.InsertExpense(ctx, e); err != nil {
			return err
		}
		if err := tx.AdjustBalance(ctx, e.AccountID, e.Amount.Neg()); err != nil {
			return err
		}
		return tx.InsertTransaction(ctx, expenseTransaction(e))
	})
	if err != nil {
		return Expense{}, err
	}
	s.record(ctx, "EXPENSE_CREATE", e.StoreID, "expense", e.ID, map[string]any{"amount": e.Amount.String(), "accountId": e.AccountID})
	return e, nil
}

// UpdateExpense rebooks an expense: the old amount goes back to the old
// account and the new amount comes out of the new one.
func (s *Service) UpdateExpense(ctx context.Context, id string, in ExpenseInput) (Expense, error) {
	in, err := normalizeExpense(in, s.now())
	if err != nil {
		return Expense{}, err
	}
	var e Expense
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetExpenseForUpdate(ctx, in.StoreID, id)
		if err != nil {
			return err
		}
		account, err := tx.GetAccountForUpdate(ctx, in.StoreID, in.AccountID)
		if err != nil {
			return err
		}
		if !account.IsActive && account.ID != current.AccountID {
			return fmt.Errorf("%w: account %s is inactive", shared.ErrValidation, account.Code)
		}
		if err := tx.AdjustBalance(ctx, current.AccountID, current.Amount); err != nil {
			return err
		}
		e = current
		applyExpense(&e, in)
		e.AccountName = account.Name
		if err := tx.UpdateExpense(ctx, e); err != nil {
			return err
		}
		if err := tx.AdjustBalance(ctx, e.AccountID, e.Amount.Neg()); err != nil {
			return err
		}
		return tx.UpdateExpenseTransaction(ctx, e)
	})
	if err != nil {
		return Expense{}, err
	}
	s.record(ctx, "EXPENSE_UPDATE", e.StoreID, "expense", e.ID, map[string]any{"amount": e.Amount.String(), "accountId": e.AccountID})
	return e, nil
}

// DeleteExpense removes an expense, refunding the account and dropping its
// transaction.
func (s *Service) DeleteExpense(ctx context.Context, storeID, id string) error {
	var removed Expense
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		e, err := tx.GetExpenseForUpdate(ctx, storeID, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteExpense(ctx, storeID, id); err != nil {
			return err
		}
		removed = e
		return tx.AdjustBalance(ctx, e.AccountID, e.Amount)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "EXPENSE_DELETE", storeID, "expense", id, map[string]any{"amount": removed.Amount.String()})
	return nil
}

// ListTransactions pages transactions of a store.
func (s *Service) ListTransactions(ctx context.Context, filters EntryFilters) (shared.Page[Transaction], error) {
	if err := checkEntryFilters(&filters); err != nil {
		return shared.Page[Transaction]{}, err
	}
	items, total, err := s.repo.ListTransactions(ctx, filters)
	if err != nil {
		return shared.Page[Transaction]{}, err
	}
	return shared.NewPage(items, filters.Page, filters.PageSize, total), nil
}

// GetTransaction loads one transaction.
func (s *Service) GetTransaction(ctx context.Context, storeID, id string) (Transaction, error) {
	return s.repo.GetTransaction(ctx, storeID, id)
}

// CreateTransaction posts a manual transaction and moves the balance per
// BalanceEffect.
func (s *Service) CreateTransaction(ctx context.Context, in TransactionInput) (Transaction, error) {
	if err := validateTransaction(&in, s.now()); err != nil {
		return Transaction{}, err
	}
	t := Transaction{
		ID:          uuid.NewString(),
		StoreID:     in.StoreID,
		AccountID:   in.AccountID,
		Type:        in.Type,
		Amount:      in.Amount,
		Description: in.Description,
		Reference:   in.Reference,
		Date:        in.Date,
		CreatedBy:   shared.ActorID(ctx),
		CreatedAt:   s.now(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetAccountForUpdate(ctx, t.StoreID, t.AccountID)
		if err != nil {
			return err
		}
		if !account.IsActive {
			return fmt.Errorf("%w: account %s is inactive", shared.ErrValidation, account.Code)
		}
		t.AccountName = account.Name
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		return tx.AdjustBalance(ctx, t.AccountID, BalanceEffect(account.AccountType, t.Type, t.Amount))
	})
	if err != nil {
		return Transaction{}, err
	}
	s.record(ctx, "TRANSACTION_CREATE", t.StoreID, "transaction", t.ID, map[string]any{"type": string(t.Type), "amount": t.Amount.String()})
	return t, nil
}

// DeleteTransaction removes a manual transaction and reverses its effect.
// Transactions owned by an expense go away with the expense.
func (s *Service) DeleteTransaction(ctx context.Context, storeID, id string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		t, err := tx.GetTransactionForUpdate(ctx, storeID, id)
		if err != nil {
			return err
		}
		if expenseID, ok := t.ExpenseID(); ok {
			return fmt.Errorf("%w: transaction belongs to expense %s; delete the expense instead", shared.ErrValidation, expenseID)
		}
		account, err := tx.GetAccountForUpdate(ctx, storeID, t.AccountID)
		if err != nil {
			return err
		}
		if err := tx.DeleteTransaction(ctx, storeID, id); err != nil {
			return err
		}
		return tx.AdjustBalance(ctx, t.AccountID, BalanceEffect(account.AccountType, t.Type, t.Amount).Neg())
	})
	if err != nil {
		return err
	}
	s.record(ctx, "TRANSACTION_DELETE", storeID, "transaction", id, nil)
	return nil
}

func expenseTransaction(e Expense) Transaction {
	description := e.Description
	if description == "" {
		description = "Expense: " + e.Category
	}
	return Transaction{
		ID:          uuid.NewString(),
		StoreID:     e.StoreID,
		AccountID:   e.AccountID,
		AccountName: e.AccountName,
		Type:        TxnDebit,
		Amount:      e.Amount,
		Description: description,
		Reference:   expenseRefPrefix + e.ID,
		Date:        e.Date,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
	}
}

func normalizeAccount(in AccountInput) (AccountInput, error) {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	in.AccountType = AccountType(strings.ToUpper(string(in.AccountType)))
	switch {
	case in.StoreID == "":
		return in, fmt.Errorf("%w: storeId is required", shared.ErrValidation)
	case in.Code == "" || in.Name == "":
		return in, fmt.Errorf("%w: account code and name are required", shared.ErrValidation)
	case !in.AccountType.valid():
		return in, fmt.Errorf("%w: unknown account type %q", shared.ErrValidation, in.AccountType)
	}
	return in, nil
}

func applyAccount(a *Account, in AccountInput) {
	a.Code = in.Code
	a.Name = in.Name
	a.AccountType = in.AccountType
	a.Description = in.Description
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
}

func normalizeExpense(in ExpenseInput, now time.Time) (ExpenseInput, error) {
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	in.PaymentMethod = strings.ToUpper(strings.TrimSpace(in.PaymentMethod))
	if in.PaymentMethod == "" {
		in.PaymentMethod = "CASH"
	}
	if in.Date.IsZero() {
		in.Date = now
	}
	switch {
	case in.StoreID == "" || in.AccountID == "":
		return in, fmt.Errorf("%w: storeId and accountId are required", shared.ErrValidation)
	case !in.Amount.IsPositive():
		return in, fmt.Errorf("%w: expense amount must be positive", shared.ErrValidation)
	}
	return in, nil
}

func applyExpense(e *Expense, in ExpenseInput) {
	e.AccountID = in.AccountID
	e.Category = in.Category
	e.Amount = in.Amount
	e.Date = in.Date
	e.Description = in.Description
	e.PaymentMethod = in.PaymentMethod
}

func validateTransaction(in *TransactionInput, now time.Time) error {
	in.Type = TxnType(strings.ToUpper(string(in.Type)))
	in.Description = strings.TrimSpace(in.Description)
	in.Reference = strings.TrimSpace(in.Reference)
	if in.Date.IsZero() {
		in.Date = now
	}
	switch {
	case in.StoreID == "" || in.AccountID == "":
		return fmt.Errorf("%w: storeId and accountId are required", shared.ErrValidation)
	case in.Type != TxnDebit && in.Type != TxnCredit:
		return fmt.Errorf("%w: transaction type must be DEBIT or CREDIT", shared.ErrValidation)
	case !in.Amount.IsPositive():
		return fmt.Errorf("%w: transaction amount must be positive", shared.ErrValidation)
	case strings.HasPrefix(in.Reference, expenseRefPrefix):
		return fmt.Errorf("%w: reference prefix %s is reserved", shared.ErrValidation, expenseRefPrefix)
	}
	return nil
}

func checkEntryFilters(f *EntryFilters) error {
	if f.StoreID == "" {
		return fmt.Errorf("%w: storeId is required", shared.ErrValidation)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return fmt.Errorf("%w: date range end precedes start", shared.ErrValidation)
	}
	f.Search = strings.TrimSpace(f.Search)
	f.Page, f.PageSize = shared.NormalizePage(f.Page, f.PageSize, shared.DefaultPageSize)
	return nil
}

func (s *Service) record(ctx context.Context, action, storeID, entity, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := shared.ActivityLog{StoreID: storeID, Action: action, Entity: entity, EntityID: entityID, Meta: meta}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("record accounting activity", slog.String("action", action), slog.Any("error", err))
	}
}

