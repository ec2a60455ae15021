package accounting

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates chart of accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

func (t AccountType) valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// TxnType is the side of a manual transaction.
type TxnType string

const (
	TxnDebit  TxnType = "DEBIT"
	TxnCredit TxnType = "CREDIT"
)

// expenseRefPrefix marks transactions owned by an expense.
const expenseRefPrefix = "EXPENSE:"

// Account is a store ledger account with a running balance.
type Account struct {
	ID             string          `json:"id"`
	StoreID        string          `json:"storeId"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	AccountType    AccountType     `json:"accountType"`
	Description    string          `json:"description"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// AccountInput creates or updates an account. OpeningBalance is read on
// create only; afterwards the balance moves through expenses and transactions.
type AccountInput struct {
	StoreID        string          `json:"storeId" validate:"required"`
	Code           string          `json:"code" validate:"required,max=32"`
	Name           string          `json:"name" validate:"required,max=200"`
	AccountType    AccountType     `json:"accountType" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Description    string          `json:"description"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	IsActive       *bool           `json:"isActive"`
}

// Expense is money paid out of an account.
type Expense struct {
	ID            string          `json:"id"`
	StoreID       string          `json:"storeId"`
	AccountID     string          `json:"accountId"`
	AccountName   string          `json:"accountName,omitempty"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	PaymentMethod string          `json:"paymentMethod"`
	CreatedBy     string          `json:"createdBy,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ExpenseInput creates or updates an expense.
type ExpenseInput struct {
	StoreID       string          `json:"storeId" validate:"required"`
	AccountID     string          `json:"accountId" validate:"required"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	PaymentMethod string          `json:"paymentMethod"`
}

// Transaction is one movement on an account.
type Transaction struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"storeId"`
	AccountID   string          `json:"accountId"`
	AccountName string          `json:"accountName,omitempty"`
	Type        TxnType         `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	Date        time.Time       `json:"date"`
	CreatedBy   string          `json:"createdBy,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ExpenseID returns the owning expense, if any.
func (t Transaction) ExpenseID() (string, bool) {
	return strings.CutPrefix(t.Reference, expenseRefPrefix)
}

// TransactionInput records a manual transaction.
type TransactionInput struct {
	StoreID     string          `json:"storeId" validate:"required"`
	AccountID   string          `json:"accountId" validate:"required"`
	Type        TxnType         `json:"type" validate:"required,oneof=DEBIT CREDIT"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	Date        time.Time       `json:"date"`
}

// AccountFilters narrows account listings.
type AccountFilters struct {
	StoreID     string
	Search      string
	AccountType AccountType
	IsActive    *bool
	Page        int
	PageSize    int
	SortBy      string
	SortDir     string
}

// EntryFilters narrows expense and transaction listings.
type EntryFilters struct {
	StoreID   string
	AccountID string
	Category  string
	Type      TxnType
	Search    string
	From      time.Time
	To        time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortDir   string
}

// AccountUsage counts rows that keep an account from being deleted.
type AccountUsage struct {
	Expenses     int
	Transactions int
}

// BalanceEffect is the signed change a transaction makes to an account of
// the given type: debits raise assets and expenses and lower the rest,
// credits do the opposite.
func BalanceEffect(accountType AccountType, txnType TxnType, amount decimal.Decimal) decimal.Decimal {
	debitNormal := accountType == AccountTypeAsset || accountType == AccountTypeExpense
	if (txnType == TxnDebit) == debitNormal {
		return amount
	}
	return amount.Neg()
}
