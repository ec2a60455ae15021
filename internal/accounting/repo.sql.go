package accounting

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint/internal/accounting/reports"
	"github.com/tillpoint/tillpoint/internal/platform/db"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Repository persists accounts, expenses and transactions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the writes that move account balances.
type TxRepository interface {
	GetAccountForUpdate(ctx context.Context, storeID, id string) (Account, error)
	AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error
	InsertTransaction(ctx context.Context, t Transaction) error
	UpdateExpenseTransaction(ctx context.Context, e Expense) error
	GetTransactionForUpdate(ctx context.Context, storeID, id string) (Transaction, error)
	DeleteTransaction(ctx context.Context, storeID, id string) error
	InsertExpense(ctx context.Context, e Expense) error
	UpdateExpense(ctx context.Context, e Expense) error
	GetExpenseForUpdate(ctx context.Context, storeID, id string) (Expense, error)
	DeleteExpense(ctx context.Context, storeID, id string) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn inside a read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const selectAccount = `SELECT id::text, store_id::text, code, name, account_type, description, current_balance,
	is_active, created_at, updated_at FROM accounts`

func scanAccount(row pgx.Row) (Account, error) {
	var (
		a   Account
		typ string
	)
	err := row.Scan(&a.ID, &a.StoreID, &a.Code, &a.Name, &typ, &a.Description, &a.CurrentBalance,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	a.AccountType = AccountType(typ)
	return a, db.MapError(err)
}

// ListAccounts returns accounts of a store.
func (r *Repository) ListAccounts(ctx context.Context, filters AccountFilters) ([]Account, int, error) {
	var f db.Filter
	f.Add("store_id::text = %s", filters.StoreID)
	if filters.Search != "" {
		f.Add("(code ILIKE %s OR name ILIKE %s)", db.Contains(filters.Search))
	}
	if filters.AccountType != "" {
		f.Add("account_type = %s", string(filters.AccountType))
	}
	if filters.IsActive != nil {
		f.Add("is_active = %s", *filters.IsActive)
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	order := "code ASC"
	switch filters.SortBy {
	case "name":
		order = "name " + db.Direction(filters.SortDir)
	case "balance":
		order = "current_balance " + db.Direction(filters.SortDir)
	case "code":
		order = "code " + db.Direction(filters.SortDir)
	}
	limit, args := f.Page(filters.PageSize, shared.Offset(filters.Page, filters.PageSize))
	rows, err := r.pool.Query(ctx, selectAccount+f.Where()+" ORDER BY "+order+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, a)
	}
	return accounts, total, rows.Err()
}

// GetAccount loads one account.
func (r *Repository) GetAccount(ctx context.Context, storeID, id string) (Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, selectAccount+` WHERE id::text = $1 AND store_id::text = $2`, id, storeID))
}

// InsertAccount stores a new account.
func (r *Repository) InsertAccount(ctx context.Context, a Account) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO accounts
		(id, store_id, code, name, account_type, description, current_balance, is_active, created_at, updated_at)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.StoreID, a.Code, a.Name, string(a.AccountType), a.Description, a.CurrentBalance, a.IsActive, a.CreatedAt, a.UpdatedAt)
	return db.MapError(err)
}

// UpdateAccount rewrites descriptive fields; the balance is untouched.
func (r *Repository) UpdateAccount(ctx context.Context, a Account) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET code = $3, name = $4, account_type = $5, description = $6,
		is_active = $7, updated_at = $8 WHERE id::text = $1 AND store_id::text = $2`,
		a.ID, a.StoreID, a.Code, a.Name, string(a.AccountType), a.Description, a.IsActive, a.UpdatedAt)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteAccount removes an account.
func (r *Repository) DeleteAccount(ctx context.Context, storeID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id::text = $1 AND store_id::text = $2`, id, storeID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AccountUsage counts expenses and transactions posted to an account.
func (r *Repository) AccountUsage(ctx context.Context, storeID, id string) (AccountUsage, error) {
	var u AccountUsage
	err := r.pool.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM expenses WHERE account_id::text = $1 AND store_id::text = $2),
		(SELECT COUNT(*) FROM transactions WHERE account_id::text = $1 AND store_id::text = $2)`,
		id, storeID).Scan(&u.Expenses, &u.Transactions)
	return u, err
}

// TrialBalanceRows sums debits and credits per account of a store.
func (r *Repository) TrialBalanceRows(ctx context.Context, storeID string) ([]reports.AccountBalance, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.code, a.name, a.account_type, a.current_balance,
		COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'DEBIT'), 0),
		COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'CREDIT'), 0)
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id
		WHERE a.store_id::text = $1
		GROUP BY a.id
		ORDER BY a.code`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []reports.AccountBalance
	for rows.Next() {
		var b reports.AccountBalance
		if err := rows.Scan(&b.Code, &b.Name, &b.Type, &b.Balance, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

const selectExpense = `SELECT e.id::text, e.store_id::text, e.account_id::text, COALESCE(a.name, ''), e.category,
	e.amount, e.expense_date, e.description, e.payment_method, COALESCE(e.created_by::text, ''), e.created_at
	FROM expenses e LEFT JOIN accounts a ON a.id = e.account_id`

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.StoreID, &e.AccountID, &e.AccountName, &e.Category, &e.Amount, &e.Date,
		&e.Description, &e.PaymentMethod, &e.CreatedBy, &e.CreatedAt)
	return e, db.MapError(err)
}

// ListExpenses pages expenses of a store.
func (r *Repository) ListExpenses(ctx context.Context, filters EntryFilters) ([]Expense, int, error) {
	var f db.Filter
	f.Add("e.store_id::text = %s", filters.StoreID)
	if filters.AccountID != "" {
		f.Add("e.account_id::text = %s", filters.AccountID)
	}
	if filters.Category != "" {
		f.Add("e.category = %s", filters.Category)
	}
	if filters.Search != "" {
		f.Add("(e.description ILIKE %s OR e.category ILIKE %s)", db.Contains(filters.Search))
	}
	if !filters.From.IsZero() {
		f.Add("e.expense_date >= %s", filters.From)
	}
	if !filters.To.IsZero() {
		f.Add("e.expense_date < %s", filters.To)
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expenses e`+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	order := "e.expense_date DESC"
	switch filters.SortBy {
	case "amount":
		order = "e.amount " + db.Direction(filters.SortDir)
	case "date":
		order = "e.expense_date " + db.Direction(filters.SortDir)
	case "category":
		order = "e.category " + db.Direction(filters.SortDir)
	}
	limit, args := f.Page(filters.PageSize, shared.Offset(filters.Page, filters.PageSize))
	rows, err := r.pool.Query(ctx, selectExpense+f.Where()+" ORDER BY "+order+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var expenses []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, err
		}
		expenses = append(expenses, e)
	}
	return expenses, total, rows.Err()
}

// GetExpense loads one expense.
func (r *Repository) GetExpense(ctx context.Context, storeID, id string) (Expense, error) {
	return scanExpense(r.pool.QueryRow(ctx, selectExpense+` WHERE e.id::text = $1 AND e.store_id::text = $2`, id, storeID))
}

const selectTransaction = `SELECT t.id::text, t.store_id::text, t.account_id::text, COALESCE(a.name, ''), t.type,
	t.amount, t.description, t.reference, t.txn_date, COALESCE(t.created_by::text, ''), t.created_at
	FROM transactions t LEFT JOIN accounts a ON a.id = t.account_id`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		t   Transaction
		typ string
	)
	err := row.Scan(&t.ID, &t.StoreID, &t.AccountID, &t.AccountName, &typ, &t.Amount, &t.Description,
		&t.Reference, &t.Date, &t.CreatedBy, &t.CreatedAt)
	t.Type = TxnType(typ)
	return t, db.MapError(err)
}

// ListTransactions pages transactions of a store.
func (r *Repository) ListTransactions(ctx context.Context, filters EntryFilters) ([]Transaction, int, error) {
	var f db.Filter
	f.Add("t.store_id::text = %s", filters.StoreID)
	if filters.AccountID != "" {
		f.Add("t.account_id::text = %s", filters.AccountID)
	}
	if filters.Type != "" {
		f.Add("t.type = %s", string(filters.Type))
	}
	if filters.Search != "" {
		f.Add("(t.description ILIKE %s OR t.reference ILIKE %s)", db.Contains(filters.Search))
	}
	if !filters.From.IsZero() {
		f.Add("t.txn_date >= %s", filters.From)
	}
	if !filters.To.IsZero() {
		f.Add("t.txn_date < %s", filters.To)
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions t`+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	order := "t.txn_date DESC"
	switch filters.SortBy {
	case "amount":
		order = "t.amount " + db.Direction(filters.SortDir)
	case "date":
		order = "t.txn_date " + db.Direction(filters.SortDir)
	}
	limit, args := f.Page(filters.PageSize, shared.Offset(filters.Page, filters.PageSize))
	rows, err := r.pool.Query(ctx, selectTransaction+f.Where()+" ORDER BY "+order+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var txns []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txns = append(txns, t)
	}
	return txns, total, rows.Err()
}

// GetTransaction loads one transaction.
func (r *Repository) GetTransaction(ctx context.Context, storeID, id string) (Transaction, error) {
	return scanTransaction(r.pool.QueryRow(ctx, selectTransaction+` WHERE t.id::text = $1 AND t.store_id::text = $2`, id, storeID))
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, storeID, id string) (Account, error) {
	return scanAccount(r.tx.QueryRow(ctx, selectAccount+` WHERE id::text = $1 AND store_id::text = $2 FOR UPDATE`, id, storeID))
}

func (r *txRepository) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	tag, err := r.tx.Exec(ctx, `UPDATE accounts SET current_balance = current_balance + $2, updated_at = NOW()
		WHERE id::text = $1`, accountID, delta)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertTransaction(ctx context.Context, t Transaction) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO transactions
		(id, store_id, account_id, type, amount, description, reference, txn_date, created_by, created_at)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7, $8, NULLIF($9, '')::uuid, $10)`,
		t.ID, t.StoreID, t.AccountID, string(t.Type), t.Amount, t.Description, t.Reference, t.Date, t.CreatedBy, t.CreatedAt)
	return db.MapError(err)
}

func (r *txRepository) UpdateExpenseTransaction(ctx context.Context, e Expense) error {
	_, err := r.tx.Exec(ctx, `UPDATE transactions SET account_id = $3::uuid, amount = $4, description = $5, txn_date = $6
		WHERE store_id::text = $1 AND reference = $2`,
		e.StoreID, expenseRefPrefix+e.ID, e.AccountID, e.Amount, e.Description, e.Date)
	return db.MapError(err)
}

func (r *txRepository) GetTransactionForUpdate(ctx context.Context, storeID, id string) (Transaction, error) {
	return scanTransaction(r.tx.QueryRow(ctx, selectTransaction+` WHERE t.id::text = $1 AND t.store_id::text = $2 FOR UPDATE OF t`, id, storeID))
}

func (r *txRepository) DeleteTransaction(ctx context.Context, storeID, id string) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM transactions WHERE id::text = $1 AND store_id::text = $2`, id, storeID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertExpense(ctx context.Context, e Expense) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO expenses
		(id, store_id, account_id, category, amount, expense_date, description, payment_method, created_by, created_at)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7, $8, NULLIF($9, '')::uuid, $10)`,
		e.ID, e.StoreID, e.AccountID, e.Category, e.Amount, e.Date, e.Description, e.PaymentMethod, e.CreatedBy, e.CreatedAt)
	return db.MapError(err)
}

func (r *txRepository) UpdateExpense(ctx context.Context, e Expense) error {
	tag, err := r.tx.Exec(ctx, `UPDATE expenses SET account_id = $3::uuid, category = $4, amount = $5, expense_date = $6,
		description = $7, payment_method = $8 WHERE id::text = $1 AND store_id::text = $2`,
		e.ID, e.StoreID, e.AccountID, e.Category, e.Amount, e.Date, e.Description, e.PaymentMethod)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) GetExpenseForUpdate(ctx context.Context, storeID, id string) (Expense, error) {
	return scanExpense(r.tx.QueryRow(ctx, selectExpense+` WHERE e.id::text = $1 AND e.store_id::text = $2 FOR UPDATE OF e`, id, storeID))
}

func (r *txRepository) DeleteExpense(ctx context.Context, storeID, id string) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM transactions WHERE store_id::text = $1 AND reference = $2`,
		storeID, expenseRefPrefix+id); err != nil {
		return db.MapError(err)
	}
	tag, err := r.tx.Exec(ctx, `DELETE FROM expenses WHERE id::text = $1 AND store_id::text = $2`, id, storeID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
