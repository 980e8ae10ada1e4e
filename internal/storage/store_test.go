package storage

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/lonmstalker/local-budget-app/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "budget.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func date(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func testTransaction(t *testing.T, typ core.TransactionType, cents int64) core.Transaction {
	t.Helper()
	return core.Transaction{
		Amount:      core.Money{Cents: cents},
		Type:        typ,
		Category:    "cat-groceries",
		Account:     "acc-cash",
		Description: "test",
		Date:        date(t, "2025-06-15"),
	}
}

func accountBalance(t *testing.T, s *Store, id string) int64 {
	t.Helper()
	a, err := s.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("get account %s: %v", id, err)
	}
	return a.Balance.Cents
}

func TestMigrationsSeedDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != "acc-cash" {
		t.Fatalf("seed accounts = %v", accounts)
	}
	if accounts[0].Balance.Cents != 0 {
		t.Fatalf("seed account balance = %d", accounts[0].Balance.Cents)
	}

	categories, err := s.ListCategories(ctx, "")
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) != 14 {
		t.Fatalf("seed categories = %d, want 14", len(categories))
	}

	income, err := s.ListCategories(ctx, core.Income)
	if err != nil {
		t.Fatalf("list income categories: %v", err)
	}
	if len(income) != 4 {
		t.Fatalf("income categories = %d, want 4", len(income))
	}
}

func TestAddTransactionPostsBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in, err := s.AddTransaction(ctx, testTransaction(t, core.Income, 5000))
	if err != nil {
		t.Fatalf("add income: %v", err)
	}
	if in.ID == "" || in.Version != 1 || in.SyncStatus != core.SyncLocal {
		t.Fatalf("defaults not applied: %+v", in)
	}
	if got := accountBalance(t, s, "acc-cash"); got != 5000 {
		t.Fatalf("balance after income = %d, want 5000", got)
	}

	if _, err := s.AddTransaction(ctx, testTransaction(t, core.Expense, 1500)); err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if got := accountBalance(t, s, "acc-cash"); got != 3500 {
		t.Fatalf("balance after expense = %d, want 3500", got)
	}

	// Transfers never touch the balance.
	if _, err := s.AddTransaction(ctx, testTransaction(t, core.Transfer, 9999)); err != nil {
		t.Fatalf("add transfer: %v", err)
	}
	if got := accountBalance(t, s, "acc-cash"); got != 3500 {
		t.Fatalf("balance after transfer = %d, want 3500", got)
	}
}

func TestAddTransactionUnknownAccountRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx := testTransaction(t, core.Expense, 1000)
	tx.Account = "acc-missing"
	if _, err := s.AddTransaction(ctx, tx); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	// The insert must not survive the failed posting.
	all, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("orphan transaction left behind: %v", all)
	}
}

func TestUpdateTransactionRepostsBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	added, err := s.AddTransaction(ctx, testTransaction(t, core.Expense, 2000))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	added.Amount.Cents = 3000
	updated, err := s.UpdateTransaction(ctx, added)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("version = %d, want 2", updated.Version)
	}
	if got := accountBalance(t, s, "acc-cash"); got != -3000 {
		t.Fatalf("balance = %d, want -3000", got)
	}

	// Flipping the type reverses the sign.
	updated.Type = core.Income
	if _, err := s.UpdateTransaction(ctx, updated); err != nil {
		t.Fatalf("update type: %v", err)
	}
	if got := accountBalance(t, s, "acc-cash"); got != 3000 {
		t.Fatalf("balance = %d, want 3000", got)
	}
}

func TestUpdateTransactionSyncDemotion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	added, err := s.AddTransaction(ctx, testTransaction(t, core.Expense, 100))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// Simulate a synced record, then edit it.
	if _, err := s.db.Exec("UPDATE transactions SET sync_status = 'synced' WHERE id = ?", added.ID); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	updated, err := s.UpdateTransaction(ctx, added)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.SyncStatus != core.SyncPending {
		t.Fatalf("sync status = %s, want pending", updated.SyncStatus)
	}

	// A local record stays local.
	updated2, err := s.UpdateTransaction(ctx, updated)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if updated2.SyncStatus != core.SyncPending {
		t.Fatalf("pending should stay pending, got %s", updated2.SyncStatus)
	}
}

func TestDeleteTransactionReversesBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	added, err := s.AddTransaction(ctx, testTransaction(t, core.Income, 4200))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.DeleteTransaction(ctx, added.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := accountBalance(t, s, "acc-cash"); got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}
	if _, err := s.GetTransaction(ctx, added.ID); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
	// Deleting an absent id is a no-op, so a repeated delete stays silent and
	// leaves the balance alone.
	if err := s.DeleteTransaction(ctx, added.ID); err != nil {
		t.Fatalf("repeated delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, "nope"); err != nil {
		t.Fatalf("delete of unknown id: %v", err)
	}
	if got := accountBalance(t, s, "acc-cash"); got != 0 {
		t.Fatalf("balance after no-op deletes = %d, want 0", got)
	}
}

// The cached balance must equal the recomputed sum after any interleaving of
// adds, updates and deletes.
func TestBalanceInvariantUnderRandomOps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	var live []core.Transaction
	for i := 0; i < 200; i++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(live) == 0:
			typ := core.Income
			if rng.Intn(2) == 0 {
				typ = core.Expense
			}
			tx, err := s.AddTransaction(ctx, testTransaction(t, typ, int64(rng.Intn(10000)+1)))
			if err != nil {
				t.Fatalf("add: %v", err)
			}
			live = append(live, tx)
		case op == 1:
			j := rng.Intn(len(live))
			live[j].Amount.Cents = int64(rng.Intn(10000) + 1)
			updated, err := s.UpdateTransaction(ctx, live[j])
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			live[j] = updated
		default:
			j := rng.Intn(len(live))
			if err := s.DeleteTransaction(ctx, live[j].ID); err != nil {
				t.Fatalf("delete: %v", err)
			}
			live = append(live[:j], live[j+1:]...)
		}
	}

	var want int64
	for _, tx := range live {
		want += tx.SignedCents()
	}
	if got := accountBalance(t, s, "acc-cash"); got != want {
		t.Fatalf("cached balance = %d, recomputed = %d", got, want)
	}

	// Rebuild agrees with the incremental postings.
	if err := s.RebuildAccountBalances(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if got := accountBalance(t, s, "acc-cash"); got != want {
		t.Fatalf("rebuilt balance = %d, want %d", got, want)
	}
}

func TestTransactionsByDateRangeInclusive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, d := range []string{"2025-05-31", "2025-06-01", "2025-06-15", "2025-06-30", "2025-07-01"} {
		tx := testTransaction(t, core.Expense, 100)
		tx.Date = date(t, d)
		if _, err := s.AddTransaction(ctx, tx); err != nil {
			t.Fatalf("add %s: %v", d, err)
		}
	}

	got, err := s.TransactionsByDateRange(ctx, date(t, "2025-06-01"), date(t, "2025-06-30"))
	if err != nil {
		t.Fatalf("range query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("range returned %d transactions, want 3", len(got))
	}
	for _, tx := range got {
		if tx.Date.Before(date(t, "2025-06-01")) || tx.Date.After(date(t, "2025-06-30")) {
			t.Errorf("transaction %s outside range", tx.Date)
		}
	}
}

func TestSearchTransactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx := testTransaction(t, core.Expense, 100)
	tx.Description = "Weekly Groceries"
	tx.Tags = []string{"food", "market"}
	if _, err := s.AddTransaction(ctx, tx); err != nil {
		t.Fatalf("add: %v", err)
	}
	other := testTransaction(t, core.Expense, 200)
	other.Description = "Fuel"
	other.Category = "cat-transport"
	if _, err := s.AddTransaction(ctx, other); err != nil {
		t.Fatalf("add: %v", err)
	}

	for query, want := range map[string]int{
		"groceries": 2, // description match plus cat-groceries category
		"GROCERIES": 2,
		"market":    1, // tag match
		"transport": 1,
		"nothing":   0,
	} {
		got, err := s.SearchTransactions(ctx, query)
		if err != nil {
			t.Fatalf("search %q: %v", query, err)
		}
		if len(got) != want {
			t.Errorf("search %q returned %d, want %d", query, len(got), want)
		}
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AddTransaction(ctx, testTransaction(t, core.Expense, 100)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.DeleteCategory(ctx, "cat-groceries"); !errors.Is(err, core.ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}
	if err := s.DeleteCategory(ctx, "cat-dining"); err != nil {
		t.Fatalf("delete unused category: %v", err)
	}
	if err := s.DeleteCategory(ctx, "cat-dining"); !errors.Is(err, core.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestDeleteAccountInUse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AddTransaction(ctx, testTransaction(t, core.Expense, 100)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.DeleteAccount(ctx, "acc-cash"); !errors.Is(err, core.ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}
	if err := s.ArchiveAccount(ctx, "acc-cash", true); err != nil {
		t.Fatalf("archive: %v", err)
	}
	a, err := s.GetAccount(ctx, "acc-cash")
	if err != nil || !a.IsArchived {
		t.Fatalf("archive not persisted: %+v err=%v", a, err)
	}
}

func TestSettingsCreatedOnFirstRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st, err := s.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if st != core.DefaultSettings() {
		t.Fatalf("first read should return defaults, got %+v", st)
	}

	st.Currency = "EUR"
	st.DefaultAccount = "acc-cash"
	if err := s.UpdateSettings(ctx, st); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	back, err := s.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings again: %v", err)
	}
	if back != st {
		t.Fatalf("settings round trip: got %+v, want %+v", back, st)
	}
}
