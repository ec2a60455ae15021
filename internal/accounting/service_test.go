package accounting

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/accounting/reports"
	"github.com/tillpoint/tillpoint/internal/shared"
)

type memoryRepo struct {
	accounts     map[string]Account
	expenses     map[string]Expense
	transactions map[string]Transaction
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		accounts: map[string]Account{
			"cash": {ID: "cash", StoreID: "s1", Code: "1000", Name: "Cash", AccountType: AccountTypeAsset, CurrentBalance: decimal.NewFromInt(1000), IsActive: true},
			"loan": {ID: "loan", StoreID: "s1", Code: "2000", Name: "Loan", AccountType: AccountTypeLiability, CurrentBalance: decimal.NewFromInt(500), IsActive: true},
			"old":  {ID: "old", StoreID: "s1", Code: "1999", Name: "Closed till", AccountType: AccountTypeAsset, IsActive: false},
		},
		expenses:     map[string]Expense{},
		transactions: map[string]Transaction{},
	}
}

func (m *memoryRepo) snapshot() *memoryRepo {
	c := &memoryRepo{accounts: map[string]Account{}, expenses: map[string]Expense{}, transactions: map[string]Transaction{}}
	for k, v := range m.accounts {
		c.accounts[k] = v
	}
	for k, v := range m.expenses {
		c.expenses[k] = v
	}
	for k, v := range m.transactions {
		c.transactions[k] = v
	}
	return c
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	saved := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.accounts, m.expenses, m.transactions = saved.accounts, saved.expenses, saved.transactions
		return err
	}
	return nil
}

func (m *memoryRepo) ListAccounts(_ context.Context, filters AccountFilters) ([]Account, int, error) {
	var out []Account
	for _, a := range m.accounts {
		if a.StoreID == filters.StoreID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) GetAccount(_ context.Context, storeID, id string) (Account, error) {
	a, ok := m.accounts[id]
	if !ok || a.StoreID != storeID {
		return Account{}, shared.ErrNotFound
	}
	return a, nil
}

func (m *memoryRepo) InsertAccount(_ context.Context, a Account) error {
	for _, existing := range m.accounts {
		if existing.StoreID == a.StoreID && existing.Code == a.Code {
			return shared.ErrDuplicate
		}
	}
	m.accounts[a.ID] = a
	return nil
}

func (m *memoryRepo) UpdateAccount(_ context.Context, a Account) error {
	a.CurrentBalance = m.accounts[a.ID].CurrentBalance
	m.accounts[a.ID] = a
	return nil
}

func (m *memoryRepo) DeleteAccount(_ context.Context, _ string, id string) error {
	delete(m.accounts, id)
	return nil
}

func (m *memoryRepo) AccountUsage(_ context.Context, _ string, id string) (AccountUsage, error) {
	var u AccountUsage
	for _, e := range m.expenses {
		if e.AccountID == id {
			u.Expenses++
		}
	}
	for _, t := range m.transactions {
		if t.AccountID == id {
			u.Transactions++
		}
	}
	return u, nil
}

func (m *memoryRepo) TrialBalanceRows(_ context.Context, storeID string) ([]reports.AccountBalance, error) {
	var out []reports.AccountBalance
	for _, a := range m.accounts {
		if a.StoreID != storeID {
			continue
		}
		row := reports.AccountBalance{Code: a.Code, Name: a.Name, Type: string(a.AccountType), Balance: a.CurrentBalance}
		for _, t := range m.transactions {
			if t.AccountID != a.ID {
				continue
			}
			if t.Type == TxnDebit {
				row.Debit = row.Debit.Add(t.Amount)
			} else {
				row.Credit = row.Credit.Add(t.Amount)
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *memoryRepo) ListExpenses(_ context.Context, filters EntryFilters) ([]Expense, int, error) {
	var out []Expense
	for _, e := range m.expenses {
		if e.StoreID == filters.StoreID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) GetExpense(_ context.Context, storeID, id string) (Expense, error) {
	e, ok := m.expenses[id]
	if !ok || e.StoreID != storeID {
		return Expense{}, shared.ErrNotFound
	}
	return e, nil
}

func (m *memoryRepo) ListTransactions(_ context.Context, filters EntryFilters) ([]Transaction, int, error) {
	var out []Transaction
	for _, t := range m.transactions {
		if t.StoreID == filters.StoreID {
			out = append(out, t)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) GetTransaction(_ context.Context, storeID, id string) (Transaction, error) {
	t, ok := m.transactions[id]
	if !ok || t.StoreID != storeID {
		return Transaction{}, shared.ErrNotFound
	}
	return t, nil
}

func (m *memoryRepo) GetAccountForUpdate(ctx context.Context, storeID, id string) (Account, error) {
	return m.GetAccount(ctx, storeID, id)
}

func (m *memoryRepo) AdjustBalance(_ context.Context, accountID string, delta decimal.Decimal) error {
	a, ok := m.accounts[accountID]
	if !ok {
		return shared.ErrNotFound
	}
	a.CurrentBalance = a.CurrentBalance.Add(delta)
	m.accounts[accountID] = a
	return nil
}

func (m *memoryRepo) InsertTransaction(_ context.Context, t Transaction) error {
	m.transactions[t.ID] = t
	return nil
}

func (m *memoryRepo) UpdateExpenseTransaction(_ context.Context, e Expense) error {
	for id, t := range m.transactions {
		if t.Reference == expenseRefPrefix+e.ID {
			t.AccountID, t.Amount, t.Description, t.Date = e.AccountID, e.Amount, e.Description, e.Date
			m.transactions[id] = t
		}
	}
	return nil
}

func (m *memoryRepo) GetTransactionForUpdate(ctx context.Context, storeID, id string) (Transaction, error) {
	return m.GetTransaction(ctx, storeID, id)
}

func (m *memoryRepo) DeleteTransaction(_ context.Context, _ string, id string) error {
	delete(m.transactions, id)
	return nil
}

func (m *memoryRepo) InsertExpense(_ context.Context, e Expense) error {
	m.expenses[e.ID] = e
	return nil
}

func (m *memoryRepo) UpdateExpense(_ context.Context, e Expense) error {
	m.expenses[e.ID] = e
	return nil
}

func (m *memoryRepo) GetExpenseForUpdate(ctx context.Context, storeID, id string) (Expense, error) {
	return m.GetExpense(ctx, storeID, id)
}

func (m *memoryRepo) DeleteExpense(_ context.Context, _ string, id string) error {
	for tid, t := range m.transactions {
		if t.Reference == expenseRefPrefix+id {
			delete(m.transactions, tid)
		}
	}
	delete(m.expenses, id)
	return nil
}

func fixedDay(day int) time.Time {
	return time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC)
}

func balance(t *testing.T, repo *memoryRepo, id string) string {
	t.Helper()
	return repo.accounts[id].CurrentBalance.StringFixed(2)
}

func TestExpenseDebitsAccountAndRecordsTransaction(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := shared.ContextWithActor(context.Background(), shared.Actor{UserID: "u1"})

	e, err := svc.CreateExpense(ctx, ExpenseInput{StoreID: "s1", AccountID: "cash", Category: "Rent", Amount: decimal.NewFromInt(300)})
	require.NoError(t, err)
	require.Equal(t, "CASH", e.PaymentMethod)
	require.Equal(t, "u1", e.CreatedBy)
	require.False(t, e.Date.IsZero())
	require.Equal(t, "700.00", balance(t, repo, "cash"))

	require.Len(t, repo.transactions, 1)
	for _, txn := range repo.transactions {
		require.Equal(t, TxnDebit, txn.Type)
		require.True(t, txn.Amount.Equal(decimal.NewFromInt(300)))
		id, ok := txn.ExpenseID()
		require.True(t, ok)
		require.Equal(t, e.ID, id)
	}

	require.NoError(t, svc.DeleteExpense(ctx, "s1", e.ID))
	require.Equal(t, "1000.00", balance(t, repo, "cash"))
	require.Empty(t, repo.transactions)
	require.Empty(t, repo.expenses)
}

func TestUpdateExpenseMovesBetweenAccounts(t *testing.T) {
	repo := newMemoryRepo()
	repo.accounts["bank"] = Account{ID: "bank", StoreID: "s1", Code: "1100", Name: "Bank", AccountType: AccountTypeAsset, CurrentBalance: decimal.NewFromInt(200), IsActive: true}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	e, err := svc.CreateExpense(ctx, ExpenseInput{StoreID: "s1", AccountID: "cash", Category: "Utilities", Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)

	_, err = svc.UpdateExpense(ctx, e.ID, ExpenseInput{StoreID: "s1", AccountID: "bank", Category: "Utilities", Amount: decimal.NewFromInt(150)})
	require.NoError(t, err)
	require.Equal(t, "1000.00", balance(t, repo, "cash"))
	require.Equal(t, "50.00", balance(t, repo, "bank"))
	for _, txn := range repo.transactions {
		require.Equal(t, "bank", txn.AccountID)
		require.True(t, txn.Amount.Equal(decimal.NewFromInt(150)))
	}
}

func TestExpenseRejectsInvalidInput(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.CreateExpense(ctx, ExpenseInput{StoreID: "s1", AccountID: "cash", Amount: decimal.Zero})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.CreateExpense(ctx, ExpenseInput{StoreID: "s1", AccountID: "old", Amount: decimal.NewFromInt(5)})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.CreateExpense(ctx, ExpenseInput{StoreID: "s1", AccountID: "missing", Amount: decimal.NewFromInt(5)})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, repo.expenses)
	require.Equal(t, "1000.00", balance(t, repo, "cash"))
}

func TestManualTransactionBalanceRules(t *testing.T) {
	cases := []struct {
		name    string
		account string
		typ     TxnType
		want    string
	}{
		{"debit raises asset", "cash", TxnDebit, "1100.00"},
		{"credit lowers asset", "cash", TxnCredit, "900.00"},
		{"debit lowers liability", "loan", TxnDebit, "400.00"},
		{"credit raises liability", "loan", TxnCredit, "600.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemoryRepo()
			svc := NewService(repo, nil, nil)
			txn, err := svc.CreateTransaction(context.Background(), TransactionInput{
				StoreID: "s1", AccountID: tc.account, Type: TxnType(strings.ToLower(string(tc.typ))), Amount: decimal.NewFromInt(100),
			})
			require.NoError(t, err)
			require.Equal(t, tc.typ, txn.Type)
			require.Equal(t, tc.want, balance(t, repo, tc.account))

			require.NoError(t, svc.DeleteTransaction(context.Background(), "s1", txn.ID))
			require.Equal(t, newMemoryRepo().accounts[tc.account].CurrentBalance.StringFixed(2), balance(t, repo, tc.account))
			require.Empty(t, repo.transactions)
		})
	}
}

func TestBalanceEffect(t *testing.T) {
	amount := decimal.NewFromInt(10)
	require.True(t, BalanceEffect(AccountTypeExpense, TxnDebit, amount).Equal(amount))
	require.True(t, BalanceEffect(AccountTypeRevenue, TxnDebit, amount).Equal(amount.Neg()))
	require.True(t, BalanceEffect(AccountTypeEquity, TxnCredit, amount).Equal(amount))
	require.True(t, BalanceEffect(AccountTypeAsset, TxnCredit, amount).Equal(amount.Neg()))
}

func TestExpenseTransactionCannotBeDeletedDirectly(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	_, err := svc.CreateExpense(ctx, ExpenseInput{StoreID: "s1", AccountID: "cash", Amount: decimal.NewFromInt(40)})
	require.NoError(t, err)

	for id := range repo.transactions {
		err := svc.DeleteTransaction(ctx, "s1", id)
		require.ErrorIs(t, err, shared.ErrValidation)
	}
	require.Len(t, repo.transactions, 1)

	_, err = svc.CreateTransaction(ctx, TransactionInput{StoreID: "s1", AccountID: "cash", Type: TxnDebit, Amount: decimal.NewFromInt(1), Reference: "EXPENSE:forged"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestAccountLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	a, err := svc.CreateAccount(ctx, AccountInput{StoreID: "s1", Code: " 6000 ", Name: "Rent", AccountType: "expense", OpeningBalance: decimal.NewFromInt(25)})
	require.NoError(t, err)
	require.Equal(t, "6000", a.Code)
	require.Equal(t, AccountTypeExpense, a.AccountType)
	require.Equal(t, "25.00", balance(t, repo, a.ID))

	_, err = svc.CreateAccount(ctx, AccountInput{StoreID: "s1", Code: "6000", Name: "Dup", AccountType: AccountTypeExpense})
	require.ErrorIs(t, err, shared.ErrDuplicate)
	_, err = svc.CreateAccount(ctx, AccountInput{StoreID: "s1", Code: "7000", Name: "Odd", AccountType: "INCOME"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateTransaction(ctx, TransactionInput{StoreID: "s1", AccountID: a.ID, Type: TxnDebit, Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)
	err = svc.DeleteAccount(ctx, "s1", a.ID)
	require.ErrorIs(t, err, shared.ErrReferenced)

	require.NoError(t, svc.DeleteAccount(ctx, "s1", "old"))
	require.NotContains(t, repo.accounts, "old")
}

func TestTrialBalance(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	_, err := svc.CreateExpense(ctx, ExpenseInput{StoreID: "s1", AccountID: "cash", Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	_, err = svc.CreateTransaction(ctx, TransactionInput{StoreID: "s1", AccountID: "loan", Type: TxnCredit, Amount: decimal.NewFromInt(50)})
	require.NoError(t, err)

	tb, err := svc.TrialBalance(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, tb.Groups, 2)
	require.Equal(t, "ASSET", tb.Groups[0].Type)
	require.Equal(t, "100.00", tb.TotalDebit.StringFixed(2))
	require.Equal(t, "50.00", tb.TotalCredit.StringFixed(2))
	require.Equal(t, "1450.00", tb.TotalBalance.StringFixed(2))
}

func TestListRejectsInvertedRange(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	_, err := svc.ListExpenses(context.Background(), EntryFilters{StoreID: "s1", From: fixedDay(2), To: fixedDay(1)})
	require.ErrorIs(t, err, shared.ErrValidation)

	page, err := svc.ListTransactions(context.Background(), EntryFilters{StoreID: "s1"})
	require.NoError(t, err)
	require.NotNil(t, page.Data)
}
