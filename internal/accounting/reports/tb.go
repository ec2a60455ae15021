// Package reports summarises store accounts.
package reports

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AccountBalance is an account with its posted transaction totals.
type AccountBalance struct {
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Type    string          `json:"accountType"`
	Balance decimal.Decimal `json:"balance"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
}

// TrialBalanceGroup aggregates the accounts of one type.
type TrialBalanceGroup struct {
	Type     string           `json:"accountType"`
	Accounts []AccountBalance `json:"accounts"`
	Debit    decimal.Decimal  `json:"debit"`
	Credit   decimal.Decimal  `json:"credit"`
	Balance  decimal.Decimal  `json:"balance"`
}

// TrialBalance lists account groups with grand totals.
type TrialBalance struct {
	Groups       []TrialBalanceGroup `json:"groups"`
	TotalDebit   decimal.Decimal     `json:"totalDebit"`
	TotalCredit  decimal.Decimal     `json:"totalCredit"`
	TotalBalance decimal.Decimal     `json:"totalBalance"`
}

var typeOrder = map[string]int{"ASSET": 0, "LIABILITY": 1, "EQUITY": 2, "REVENUE": 3, "EXPENSE": 4}

// BuildTrialBalance groups accounts by type, in chart order, with accounts
// sorted by code inside each group.
func BuildTrialBalance(accounts []AccountBalance) TrialBalance {
	groups := make(map[string]*TrialBalanceGroup)
	keys := make([]string, 0)
	for _, acc := range accounts {
		grp, ok := groups[acc.Type]
		if !ok {
			grp = &TrialBalanceGroup{Type: acc.Type}
			groups[acc.Type] = grp
			keys = append(keys, acc.Type)
		}
		grp.Accounts = append(grp.Accounts, acc)
		grp.Debit = grp.Debit.Add(acc.Debit)
		grp.Credit = grp.Credit.Add(acc.Credit)
		grp.Balance = grp.Balance.Add(acc.Balance)
	}

	sort.Slice(keys, func(i, j int) bool {
		oi, iok := typeOrder[keys[i]]
		oj, jok := typeOrder[keys[j]]
		if iok != jok {
			return iok
		}
		if oi != oj {
			return oi < oj
		}
		return keys[i] < keys[j]
	})
	result := TrialBalance{Groups: []TrialBalanceGroup{}}
	for _, key := range keys {
		grp := groups[key]
		sort.Slice(grp.Accounts, func(i, j int) bool {
			return grp.Accounts[i].Code < grp.Accounts[j].Code
		})
		result.Groups = append(result.Groups, *grp)
		result.TotalDebit = result.TotalDebit.Add(grp.Debit)
		result.TotalCredit = result.TotalCredit.Add(grp.Credit)
		result.TotalBalance = result.TotalBalance.Add(grp.Balance)
	}
	return result
}
