// Package analytics derives reporting aggregates from transaction history.
// Everything operates on already-loaded slices; the store stays the single
// owner of SQL.
package analytics

import (
	"sort"

	"github.com/lonmstalker/local-budget-app/internal/core"
)

// CategoryTotal is one category's spend or income inside a reporting window.
type CategoryTotal struct {
	CategoryID string     `json:"categoryId"`
	Name       string     `json:"name"`
	Total      core.Money `json:"total"`
	Count      int        `json:"count"`
	// BudgetPct is spend as a percentage of the category budget, 0 when the
	// category has no budget.
	BudgetPct int `json:"budgetPct"`
}

// TotalsByCategory sums transactions of the given type per category, largest
// first. Category metadata fills in names and budget percentages; transactions
// referencing an unknown category still count under their raw id.
func TotalsByCategory(transactions []core.Transaction, categories []core.Category, typ core.TransactionType) []CategoryTotal {
	byID := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	acc := make(map[string]*CategoryTotal)
	for _, tx := range transactions {
		if tx.Type != typ {
			continue
		}
		ct, ok := acc[tx.Category]
		if !ok {
			ct = &CategoryTotal{CategoryID: tx.Category, Name: tx.Category}
			if c, ok := byID[tx.Category]; ok {
				ct.Name = c.Name
			}
			acc[tx.Category] = ct
		}
		ct.Total.Cents += tx.Amount.Cents
		ct.Count++
	}

	out := make([]CategoryTotal, 0, len(acc))
	for _, ct := range acc {
		if c, ok := byID[ct.CategoryID]; ok && c.Budget != nil && c.Budget.Cents > 0 {
			ct.BudgetPct = int(ct.Total.Cents * 100 / c.Budget.Cents)
		}
		out = append(out, *ct)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopCategories returns at most n of the largest category totals.
func TopCategories(totals []CategoryTotal, n int) []CategoryTotal {
	if n < 0 {
		n = 0
	}
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals
}

// BalancePoint is the running balance at the end of one day.
type BalancePoint struct {
	Date    core.Date  `json:"date"`
	Balance core.Money `json:"balance"`
}

// BalanceSeries buckets transactions by day and accumulates the running
// balance from opening across [from, to], one point per day that has activity
// plus the endpoints. Transfers contribute nothing.
func BalanceSeries(transactions []core.Transaction, opening core.Money, from, to core.Date) []BalancePoint {
	deltas := make(map[string]int64)
	for _, tx := range transactions {
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		deltas[tx.Date.String()] += tx.SignedCents()
	}

	days := make([]string, 0, len(deltas)+2)
	for d := range deltas {
		days = append(days, d)
	}
	if _, ok := deltas[from.String()]; !ok {
		days = append(days, from.String())
	}
	if _, ok := deltas[to.String()]; !ok {
		days = append(days, to.String())
	}
	sort.Strings(days)

	out := make([]BalancePoint, 0, len(days))
	running := opening.Cents
	for _, day := range days {
		running += deltas[day]
		d, err := core.ParseDate(day)
		if err != nil {
			continue
		}
		out = append(out, BalancePoint{Date: d, Balance: core.Money{Cents: running}})
	}
	return out
}

// MonthSummary is the income/expense rollup for one calendar month.
type MonthSummary struct {
	Year     int             `json:"year"`
	Month    int             `json:"month"`
	Income   core.Money      `json:"income"`
	Expenses core.Money      `json:"expenses"`
	Net      core.Money      `json:"net"`
	Count    int             `json:"count"`
	ByCat    []CategoryTotal `json:"byCategory"`
}

// SummarizeMonth rolls up the given month from transaction history.
func SummarizeMonth(transactions []core.Transaction, categories []core.Category, year, month int) MonthSummary {
	first := core.NewDate(year, month, 1)
	last := first.WithDay(core.DaysIn(year, month))

	var inMonth []core.Transaction
	s := MonthSummary{Year: year, Month: month}
	for _, tx := range transactions {
		if tx.Date.Before(first) || tx.Date.After(last) {
			continue
		}
		inMonth = append(inMonth, tx)
		s.Count++
		switch tx.Type {
		case core.Income:
			s.Income.Cents += tx.Amount.Cents
		case core.Expense:
			s.Expenses.Cents += tx.Amount.Cents
		}
	}
	s.Net.Cents = s.Income.Cents - s.Expenses.Cents
	s.ByCat = TotalsByCategory(inMonth, categories, core.Expense)
	return s
}
