package exchange

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lonmstalker/local-budget-app/internal/core"
	"github.com/lonmstalker/local-budget-app/internal/storage"
)

func newTestPorter(t *testing.T) (*Porter, *storage.Store) {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "budget.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewPorter(s), s
}

func date(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func seed(t *testing.T, s *storage.Store) {
	t.Helper()
	ctx := context.Background()
	txs := []core.Transaction{
		{Amount: core.Money{Cents: 500000}, Type: core.Income, Category: "cat-salary",
			Account: "acc-cash", Description: "June salary", Date: date(t, "2025-06-25")},
		{Amount: core.Money{Cents: 4250}, Type: core.Expense, Category: "cat-groceries",
			Account: "acc-cash", Description: "Market", Date: date(t, "2025-06-26"),
			Tags: []string{"food", "weekly"}},
	}
	for _, tx := range txs {
		if _, err := s.AddTransaction(ctx, tx); err != nil {
			t.Fatalf("seed transaction: %v", err)
		}
	}
	if _, err := s.CreateFixedExpense(ctx, core.FixedExpense{
		Name: "Rent", Amount: core.Money{Cents: 120000}, Category: "cat-housing",
		DayOfMonth: 1, Frequency: core.Monthly, IsActive: true, Priority: core.PriorityCritical,
	}, date(t, "2025-06-01")); err != nil {
		t.Fatalf("seed fixed expense: %v", err)
	}
	if _, err := s.CreatePlannedIncome(ctx, core.PlannedIncome{
		Name: "Salary", Amount: core.Money{Cents: 500000}, ExpectedDate: date(t, "2025-07-25"),
		Frequency: core.Monthly, Source: "cat-salary", Probability: 100,
	}); err != nil {
		t.Fatalf("seed planned income: %v", err)
	}
}

func TestJSONExportImportRoundTrip(t *testing.T) {
	porter, store := newTestPorter(t)
	ctx := context.Background()
	seed(t, store)

	var buf bytes.Buffer
	if err := porter.ExportJSON(ctx, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	// Restore into a fresh database.
	porter2, store2 := newTestPorter(t)
	if err := porter2.ImportJSON(ctx, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("import: %v", err)
	}

	txs, err := store2.ListTransactions(ctx)
	if err != nil || len(txs) != 2 {
		t.Fatalf("imported transactions = %d err=%v", len(txs), err)
	}
	if txs[0].Description != "Market" || len(txs[0].Tags) != 2 {
		t.Fatalf("transaction fields lost: %+v", txs[0])
	}

	// Balance equals the recomputed sum of the imported history.
	a, err := store2.GetAccount(ctx, "acc-cash")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a.Balance.Cents != 500000-4250 {
		t.Fatalf("rebuilt balance = %d, want %d", a.Balance.Cents, 500000-4250)
	}

	fes, err := store2.ListFixedExpenses(ctx, date(t, "2025-06-01"))
	if err != nil || len(fes) != 1 || fes[0].Name != "Rent" {
		t.Fatalf("imported fixed expenses = %v err=%v", fes, err)
	}
	pis, err := store2.ListPlannedIncome(ctx)
	if err != nil || len(pis) != 1 || pis[0].Probability != 100 {
		t.Fatalf("imported planned income = %v err=%v", pis, err)
	}

	// Second export matches the first, modulo the export timestamp.
	var buf2 bytes.Buffer
	if err := porter2.ExportJSON(ctx, &buf2); err != nil {
		t.Fatalf("re-export: %v", err)
	}
	strip := func(s string) string {
		var out []string
		for _, line := range strings.Split(s, "\n") {
			if strings.Contains(line, "exportDate") {
				continue
			}
			out = append(out, line)
		}
		return strings.Join(out, "\n")
	}
	if strip(buf.String()) != strip(buf2.String()) {
		t.Error("round trip export differs from original")
	}
}

func TestImportJSONRejectsGarbage(t *testing.T) {
	porter, _ := newTestPorter(t)
	ctx := context.Background()

	if err := porter.ImportJSON(ctx, strings.NewReader("not json")); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := porter.ImportJSON(ctx, strings.NewReader(`{"version": 99}`)); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("future version: got %v", err)
	}
}

func TestCSVExport(t *testing.T) {
	porter, store := newTestPorter(t)
	ctx := context.Background()
	seed(t, store)

	var buf bytes.Buffer
	if err := porter.ExportCSV(ctx, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if lines[0] != "Date,Type,Amount,Description,Category,Account,Tags" {
		t.Fatalf("header = %q", lines[0])
	}
	// Newest first; ids resolved to display names.
	if !strings.Contains(lines[1], "Groceries") || !strings.Contains(lines[1], "Cash") {
		t.Errorf("names not resolved: %q", lines[1])
	}
	if !strings.Contains(lines[1], "42.50") || !strings.Contains(lines[1], "food,weekly") {
		t.Errorf("amount or tags wrong: %q", lines[1])
	}
}

func TestCSVImportResolvesNames(t *testing.T) {
	porter, store := newTestPorter(t)
	ctx := context.Background()

	csv := strings.Join([]string{
		"Date,Type,Amount,Category,Subcategory,Account,Description,Tags",
		"2025-06-01,expense,10.00,GROCERIES,,cash,Lidl,food",
		"2025-06-02,income,25.50,No Such Category,,No Such Account,Found money,",
		"2025-06-03,expense,3.00,Transport,,Cash,Bus,",
	}, "\n")

	n, err := porter.ImportCSV(ctx, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 3 {
		t.Fatalf("imported %d rows, want 3", n)
	}

	txs, err := store.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	byDesc := make(map[string]core.Transaction)
	for _, tx := range txs {
		byDesc[tx.Description] = tx
	}

	// Case-insensitive name matching.
	if byDesc["Lidl"].Category != "cat-groceries" || byDesc["Lidl"].Account != "acc-cash" {
		t.Errorf("Lidl row: %+v", byDesc["Lidl"])
	}
	// Unknown names fall back to the first category of the type and the
	// first account.
	fallback := byDesc["Found money"]
	if fallback.Category != "cat-salary" || fallback.Account != "acc-cash" {
		t.Errorf("fallback row: %+v", fallback)
	}
	if fallback.Amount.Cents != 2550 || fallback.Type != core.Income {
		t.Errorf("fallback amount/type: %+v", fallback)
	}

	// Balances posted through the normal add path.
	a, err := store.GetAccount(ctx, "acc-cash")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a.Balance.Cents != -1000+2550-300 {
		t.Fatalf("balance = %d, want %d", a.Balance.Cents, -1000+2550-300)
	}
}

func TestCSVImportSkipsBadRows(t *testing.T) {
	porter, store := newTestPorter(t)
	ctx := context.Background()

	csv := strings.Join([]string{
		"Date,Type,Amount,Category,Subcategory,Account,Description,Tags",
		"2025-06-01,expense,10.00,Groceries,,Cash,OK,",
		"not-a-date,expense,5.00,Groceries,,Cash,Broken date,",
		"2025-06-02,expense,zero,Groceries,,Cash,Broken amount,",
		"2025-06-03,mystery,4.00,Groceries,,Cash,Type defaults,",
	}, "\n")

	n, err := porter.ImportCSV(ctx, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported %d rows, want 2 (bad rows skipped)", n)
	}
	txs, err := store.ListTransactions(ctx)
	if err != nil || len(txs) != 2 {
		t.Fatalf("transactions = %d err=%v", len(txs), err)
	}
	byDesc := make(map[string]core.Transaction)
	for _, tx := range txs {
		byDesc[tx.Description] = tx
	}
	if byDesc["Type defaults"].Type != core.Expense {
		t.Errorf("unrecognized type should become expense: %+v", byDesc["Type defaults"])
	}
}

func TestImportJSONMergeKeepsExistingCatalog(t *testing.T) {
	porter, store := newTestPorter(t)
	ctx := context.Background()

	snapshot := `{
		"version": 1,
		"transactions": [
			{"amount": 12.50, "type": "expense", "category": "cat-groceries",
			 "account": "acc-cash", "description": "merged", "date": "2025-06-05"}
		],
		"categories": [
			{"id": "cat-groceries", "name": "Hijacked", "type": "expense"},
			{"id": "cat-imported", "name": "Imported", "type": "expense", "isCustom": true}
		],
		"accounts": [
			{"id": "acc-cash", "name": "Hijacked", "type": "cash", "balance": 9999}
		]
	}`
	if err := porter.ImportJSON(ctx, strings.NewReader(snapshot)); err != nil {
		t.Fatalf("import: %v", err)
	}

	// Existing catalog rows win over the snapshot's.
	c, err := store.GetCategory(ctx, "cat-groceries")
	if err != nil || c.Name != "Groceries" {
		t.Errorf("seeded category overwritten: %+v err=%v", c, err)
	}
	a, err := store.GetAccount(ctx, "acc-cash")
	if err != nil || a.Name != "Cash" {
		t.Errorf("seeded account overwritten: %+v err=%v", a, err)
	}
	// New catalog rows merge in.
	if _, err := store.GetCategory(ctx, "cat-imported"); err != nil {
		t.Errorf("new category not merged: %v", err)
	}
	// Transactions merge unconditionally and drive the rebuilt balance; the
	// snapshot's cached balance is ignored.
	if a.Balance.Cents != -1250 {
		t.Errorf("balance = %d, want -1250", a.Balance.Cents)
	}
	txs, _ := store.ListTransactions(ctx)
	if len(txs) != 1 || txs[0].Description != "merged" {
		t.Errorf("transactions = %+v", txs)
	}
}
