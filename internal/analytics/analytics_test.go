package analytics

import (
	"testing"

	"github.com/lonmstalker/local-budget-app/internal/core"
)

func date(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func expense(t *testing.T, category string, cents int64, day string) core.Transaction {
	t.Helper()
	return core.Transaction{
		Amount:   core.Money{Cents: cents},
		Type:     core.Expense,
		Category: category,
		Date:     date(t, day),
	}
}

func TestTotalsByCategory(t *testing.T) {
	budget := core.Money{Cents: 50000}
	categories := []core.Category{
		{ID: "cat-groceries", Name: "Groceries", Type: core.Expense, Budget: &budget},
		{ID: "cat-transport", Name: "Transport", Type: core.Expense},
	}
	transactions := []core.Transaction{
		expense(t, "cat-groceries", 20000, "2025-06-01"),
		expense(t, "cat-groceries", 5000, "2025-06-10"),
		expense(t, "cat-transport", 30000, "2025-06-05"),
		expense(t, "cat-unknown", 100, "2025-06-06"),
		{Amount: core.Money{Cents: 999999}, Type: core.Income, Category: "cat-salary", Date: date(t, "2025-06-07")},
	}

	totals := TotalsByCategory(transactions, categories, core.Expense)
	if len(totals) != 3 {
		t.Fatalf("got %d totals, want 3", len(totals))
	}
	if totals[0].Name != "Transport" || totals[0].Total.Cents != 30000 {
		t.Errorf("largest first: %+v", totals[0])
	}
	if totals[1].CategoryID != "cat-groceries" || totals[1].Count != 2 {
		t.Errorf("groceries rollup: %+v", totals[1])
	}
	if totals[1].BudgetPct != 50 {
		t.Errorf("budget pct = %d, want 50", totals[1].BudgetPct)
	}
	if totals[0].BudgetPct != 0 {
		t.Errorf("no budget means pct 0, got %d", totals[0].BudgetPct)
	}
	if totals[2].Name != "cat-unknown" {
		t.Errorf("unknown category keeps raw id: %+v", totals[2])
	}

	if top := TopCategories(totals, 2); len(top) != 2 || top[0].Name != "Transport" {
		t.Errorf("TopCategories = %+v", top)
	}
}

func TestBalanceSeries(t *testing.T) {
	from := date(t, "2025-06-01")
	to := date(t, "2025-06-30")
	transactions := []core.Transaction{
		{Amount: core.Money{Cents: 100000}, Type: core.Income, Category: "c", Date: date(t, "2025-06-05")},
		expense(t, "c", 30000, "2025-06-05"),
		expense(t, "c", 20000, "2025-06-10"),
		{Amount: core.Money{Cents: 777}, Type: core.Transfer, Category: "c", Date: date(t, "2025-06-12")},
		expense(t, "c", 999, "2025-07-01"), // outside window
	}

	series := BalanceSeries(transactions, core.Money{Cents: 5000}, from, to)
	if len(series) != 5 {
		t.Fatalf("got %d points: %+v", len(series), series)
	}
	if series[0].Date.String() != "2025-06-01" || series[0].Balance.Cents != 5000 {
		t.Errorf("opening point: %+v", series[0])
	}
	if series[1].Date.String() != "2025-06-05" || series[1].Balance.Cents != 75000 {
		t.Errorf("same-day bucketing: %+v", series[1])
	}
	if series[2].Balance.Cents != 55000 {
		t.Errorf("running balance: %+v", series[2])
	}
	// Transfer day appears but moves nothing.
	if series[3].Date.String() != "2025-06-12" || series[3].Balance.Cents != 55000 {
		t.Errorf("transfer point: %+v", series[3])
	}
	if series[4].Date.String() != "2025-06-30" || series[4].Balance.Cents != 55000 {
		t.Errorf("closing point: %+v", series[4])
	}

	// Monotone check: each point carries the cumulative sum of all prior deltas.
	for i := 1; i < len(series); i++ {
		if series[i].Date.Before(series[i-1].Date) {
			t.Errorf("series out of order at %d", i)
		}
	}
}

func TestSummarizeMonth(t *testing.T) {
	transactions := []core.Transaction{
		{Amount: core.Money{Cents: 500000}, Type: core.Income, Category: "cat-salary", Date: date(t, "2025-06-25")},
		expense(t, "cat-groceries", 40000, "2025-06-10"),
		expense(t, "cat-groceries", 10000, "2025-06-30"),
		expense(t, "cat-groceries", 999999, "2025-07-01"),
		expense(t, "cat-groceries", 999999, "2025-05-31"),
	}

	s := SummarizeMonth(transactions, nil, 2025, 6)
	if s.Income.Cents != 500000 || s.Expenses.Cents != 50000 || s.Net.Cents != 450000 {
		t.Fatalf("summary: %+v", s)
	}
	if s.Count != 3 {
		t.Fatalf("count = %d, want 3", s.Count)
	}
	if len(s.ByCat) != 1 || s.ByCat[0].Total.Cents != 50000 {
		t.Fatalf("by category: %+v", s.ByCat)
	}
}
