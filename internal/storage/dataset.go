package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lonmstalker/local-budget-app/internal/core"
)

// ExportDataset snapshots every collection.
func (s *Store) ExportDataset(ctx context.Context) (core.Dataset, error) {
	ds := core.Dataset{
		Version:    core.DatasetVersion,
		ExportDate: nowTimestamp(),
	}

	var err error
	if ds.Transactions, err = s.ListTransactions(ctx); err != nil {
		return core.Dataset{}, err
	}
	if ds.Categories, err = s.ListCategories(ctx, ""); err != nil {
		return core.Dataset{}, err
	}
	if ds.Accounts, err = s.ListAccounts(ctx); err != nil {
		return core.Dataset{}, err
	}
	if ds.FixedExpenses, err = s.listFixedExpensesRaw(ctx); err != nil {
		return core.Dataset{}, err
	}
	if ds.PlannedIncome, err = s.ListPlannedIncome(ctx); err != nil {
		return core.Dataset{}, err
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return core.Dataset{}, err
	}
	ds.Settings = &settings
	return ds, nil
}

// listFixedExpensesRaw reads schedule items without the lazy due-date
// refresh. Exports must reproduce stored state, not advance it.
func (s *Store) listFixedExpensesRaw(ctx context.Context) ([]core.FixedExpense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fixedExpenseColumns+` FROM fixed_expenses ORDER BY next_due_date, name`)
	if err != nil {
		return nil, fmt.Errorf("list fixed expenses: %w", err)
	}
	defer rows.Close()

	var out []core.FixedExpense
	for rows.Next() {
		e, err := scanFixedExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fixed expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixed expenses: %w", err)
	}
	return out, nil
}

// MergeDataset loads a snapshot into the existing database in one
// transaction. Transactions are bulk-inserted unconditionally (an id
// collision fails the whole import); categories, accounts and schedule items
// are inserted only when their id is new, so re-importing the same file is a
// no-op for them. All account balances are then recomputed from the merged
// history: exported balance fields are ignored, the transactions are the
// ground truth.
func (s *Store) MergeDataset(ctx context.Context, ds core.Dataset) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := nowTimestamp()
		for _, a := range ds.Accounts {
			if a.ID == "" {
				a.ID = newID()
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO accounts (`+accountColumns+`)
				VALUES (?, ?, ?, 0, ?, ?, ?, ?)
				ON CONFLICT(id) DO NOTHING`,
				a.ID, a.Name, a.Type, a.Currency, a.Color,
				boolToInt(a.IsArchived), a.Order)
			if err != nil {
				return fmt.Errorf("import account %s: %w", a.ID, err)
			}
		}
		for _, c := range ds.Categories {
			if c.ID == "" {
				c.ID = newID()
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO categories (`+categoryColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO NOTHING`,
				c.ID, c.Name, c.Type, c.Icon, c.Color, budgetCents(c),
				boolToInt(c.IsCustom), c.Order)
			if err != nil {
				return fmt.Errorf("import category %s: %w", c.ID, err)
			}
		}
		for _, t := range ds.Transactions {
			if err := t.Validate(); err != nil {
				return fmt.Errorf("import transaction %s: %w", t.ID, err)
			}
			if t.ID == "" {
				t.ID = newID()
			}
			if t.SyncStatus == "" {
				t.SyncStatus = core.SyncLocal
			}
			if t.Version == 0 {
				t.Version = 1
			}
			if t.CreatedAt == "" {
				t.CreatedAt = now
			}
			if t.UpdatedAt == "" {
				t.UpdatedAt = now
			}
			if err := insertTransaction(tx, ctx, t); err != nil {
				return err
			}
		}
		for _, e := range ds.FixedExpenses {
			if err := e.Validate(); err != nil {
				return fmt.Errorf("import fixed expense %s: %w", e.ID, err)
			}
			if e.ID == "" {
				e.ID = newID()
			}
			if e.CreatedAt == "" {
				e.CreatedAt = now
			}
			if e.UpdatedAt == "" {
				e.UpdatedAt = now
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO fixed_expenses (`+fixedExpenseColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO NOTHING`,
				e.ID, e.Name, e.Amount.Cents, e.Category, e.DayOfMonth, e.Frequency,
				boolToInt(e.IsActive), lastPaidValue(e), e.NextDueDate.String(),
				boolToInt(e.Reminder), e.ReminderDays, boolToInt(e.Autopay),
				e.Priority, e.Color, e.Notes, e.CreatedAt, e.UpdatedAt)
			if err != nil {
				return fmt.Errorf("import fixed expense %s: %w", e.ID, err)
			}
		}
		for _, p := range ds.PlannedIncome {
			if err := p.Validate(); err != nil {
				return fmt.Errorf("import planned income %s: %w", p.ID, err)
			}
			if p.ID == "" {
				p.ID = newID()
			}
			if p.CreatedAt == "" {
				p.CreatedAt = now
			}
			if p.UpdatedAt == "" {
				p.UpdatedAt = now
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO planned_income (`+plannedIncomeColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO NOTHING`,
				p.ID, p.Name, p.Amount.Cents, p.ExpectedDate.String(), p.DateUncertainty,
				p.Frequency, p.Source, p.Probability, boolToInt(p.IsConfirmed),
				receivedDateValue(p), receivedCentsValue(p), boolToInt(p.Notifications),
				p.Color, p.Notes, p.CreatedAt, p.UpdatedAt)
			if err != nil {
				return fmt.Errorf("import planned income %s: %w", p.ID, err)
			}
		}

		// Balances come from the merged history, never from the snapshot's
		// cached values.
		_, err := tx.ExecContext(ctx, `UPDATE accounts SET balance_cents = COALESCE((
			SELECT SUM(CASE type
				WHEN 'income' THEN amount_cents
				WHEN 'expense' THEN -amount_cents
				ELSE 0 END)
			FROM transactions WHERE transactions.account = accounts.id), 0)`)
		if err != nil {
			return fmt.Errorf("rebuild merged balances: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if ds.Settings != nil {
		if err := s.UpdateSettings(ctx, *ds.Settings); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "Dataset merged",
		"transactions", len(ds.Transactions),
		"categories", len(ds.Categories),
		"accounts", len(ds.Accounts),
		"fixed_expenses", len(ds.FixedExpenses),
		"planned_income", len(ds.PlannedIncome))
	return nil
}
