package reports

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestBuildTrialBalance(t *testing.T) {
	accounts := []AccountBalance{
		{Code: "6000", Name: "Rent", Type: "EXPENSE", Balance: d(300), Debit: d(300)},
		{Code: "1001", Name: "Bank", Type: "ASSET", Balance: d(450), Debit: d(100), Credit: d(50)},
		{Code: "1000", Name: "Cash", Type: "ASSET", Balance: d(1050), Debit: d(200), Credit: d(150)},
		{Code: "2000", Name: "Accounts Payable", Type: "LIABILITY", Balance: d(390), Debit: d(10), Credit: d(400)},
	}

	tb := BuildTrialBalance(accounts)
	if len(tb.Groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(tb.Groups))
	}
	if tb.Groups[0].Type != "ASSET" || tb.Groups[1].Type != "LIABILITY" || tb.Groups[2].Type != "EXPENSE" {
		t.Fatalf("unexpected group order: %s %s %s", tb.Groups[0].Type, tb.Groups[1].Type, tb.Groups[2].Type)
	}
	if tb.Groups[0].Accounts[0].Code != "1000" {
		t.Fatalf("expected accounts sorted by code, got %s first", tb.Groups[0].Accounts[0].Code)
	}
	if !tb.TotalDebit.Equal(d(610)) {
		t.Fatalf("unexpected total debit: %s", tb.TotalDebit)
	}
	if !tb.TotalCredit.Equal(d(600)) {
		t.Fatalf("unexpected total credit: %s", tb.TotalCredit)
	}
	if !tb.Groups[0].Balance.Equal(d(1500)) {
		t.Fatalf("unexpected asset balance: %s", tb.Groups[0].Balance)
	}
}

func TestBuildTrialBalanceEmpty(t *testing.T) {
	tb := BuildTrialBalance(nil)
	if tb.Groups == nil || len(tb.Groups) != 0 {
		t.Fatalf("expected empty non-nil groups, got %#v", tb.Groups)
	}
	if !tb.TotalBalance.IsZero() {
		t.Fatalf("expected zero balance, got %s", tb.TotalBalance)
	}
}
