package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lonmstalker/local-budget-app/internal/core"
	"github.com/lonmstalker/local-budget-app/internal/schedule"
)

const fixedExpenseColumns = `id, name, amount_cents, category, day_of_month, frequency,
	is_active, last_paid_date, next_due_date, reminder, reminder_days, autopay,
	priority, color, notes, created_at, updated_at`

func scanFixedExpense(row interface{ Scan(...any) error }) (core.FixedExpense, error) {
	var (
		e        core.FixedExpense
		active   int
		lastPaid string
		nextDue  string
		reminder int
		autopay  int
	)
	err := row.Scan(&e.ID, &e.Name, &e.Amount.Cents, &e.Category, &e.DayOfMonth,
		&e.Frequency, &active, &lastPaid, &nextDue, &reminder, &e.ReminderDays,
		&autopay, &e.Priority, &e.Color, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return core.FixedExpense{}, err
	}
	e.IsActive = active != 0
	e.Reminder = reminder != 0
	e.Autopay = autopay != 0
	if lastPaid != "" {
		d, err := core.ParseDate(lastPaid)
		if err != nil {
			return core.FixedExpense{}, fmt.Errorf("fixed expense %s last paid: %w", e.ID, err)
		}
		e.LastPaidDate = d
	}
	d, err := core.ParseDate(nextDue)
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("fixed expense %s next due: %w", e.ID, err)
	}
	e.NextDueDate = d
	return e, nil
}

func lastPaidValue(e core.FixedExpense) string {
	if e.LastPaidDate.IsZero() {
		return ""
	}
	return e.LastPaidDate.String()
}

// CreateFixedExpense persists a new schedule item. A zero NextDueDate is
// seeded from today so the cursor is live immediately.
func (s *Store) CreateFixedExpense(ctx context.Context, e core.FixedExpense, today core.Date) (core.FixedExpense, error) {
	if err := e.Validate(); err != nil {
		return core.FixedExpense{}, err
	}
	if e.ID == "" {
		e.ID = newID()
	}
	if e.NextDueDate.IsZero() {
		e.NextDueDate = schedule.NextDueDate(e.DayOfMonth, e.Frequency, today)
	}
	now := nowTimestamp()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `INSERT INTO fixed_expenses (`+fixedExpenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Amount.Cents, e.Category, e.DayOfMonth, e.Frequency,
		boolToInt(e.IsActive), lastPaidValue(e), e.NextDueDate.String(),
		boolToInt(e.Reminder), e.ReminderDays, boolToInt(e.Autopay),
		e.Priority, e.Color, e.Notes, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("create fixed expense: %w", err)
	}

	slog.InfoContext(ctx, "Fixed expense created",
		"id", e.ID, "name", e.Name, "next_due", e.NextDueDate.String())
	return e, nil
}

func (s *Store) UpdateFixedExpense(ctx context.Context, e core.FixedExpense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	e.UpdatedAt = nowTimestamp()
	res, err := s.db.ExecContext(ctx, `UPDATE fixed_expenses SET
		name = ?, amount_cents = ?, category = ?, day_of_month = ?, frequency = ?,
		is_active = ?, last_paid_date = ?, next_due_date = ?, reminder = ?,
		reminder_days = ?, autopay = ?, priority = ?, color = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		e.Name, e.Amount.Cents, e.Category, e.DayOfMonth, e.Frequency,
		boolToInt(e.IsActive), lastPaidValue(e), e.NextDueDate.String(),
		boolToInt(e.Reminder), e.ReminderDays, boolToInt(e.Autopay),
		e.Priority, e.Color, e.Notes, e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("update fixed expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("fixed expense %q: %w", e.ID, core.ErrExpenseNotFound)
	}
	return nil
}

func (s *Store) DeleteFixedExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM fixed_expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete fixed expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("fixed expense %q: %w", id, core.ErrExpenseNotFound)
	}
	slog.InfoContext(ctx, "Fixed expense deleted", "id", id)
	return nil
}

func (s *Store) GetFixedExpense(ctx context.Context, id string) (core.FixedExpense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+fixedExpenseColumns+` FROM fixed_expenses WHERE id = ?`, id)
	e, err := scanFixedExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FixedExpense{}, fmt.Errorf("fixed expense %q: %w", id, core.ErrExpenseNotFound)
	}
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("get fixed expense: %w", err)
	}
	return e, nil
}

// ListFixedExpenses returns all schedule items with stale due dates advanced
// past today. Advanced cursors are persisted before returning, so two
// consecutive reads agree.
func (s *Store) ListFixedExpenses(ctx context.Context, today core.Date) ([]core.FixedExpense, error) {
	var out []core.FixedExpense
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT `+fixedExpenseColumns+` FROM fixed_expenses ORDER BY next_due_date, name`)
		if err != nil {
			return fmt.Errorf("list fixed expenses: %w", err)
		}
		defer rows.Close()

		var loaded []core.FixedExpense
		for rows.Next() {
			e, err := scanFixedExpense(rows)
			if err != nil {
				return fmt.Errorf("scan fixed expense: %w", err)
			}
			loaded = append(loaded, e)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate fixed expenses: %w", err)
		}

		refreshed := schedule.RefreshDueDates(loaded, today)
		for i := range refreshed {
			if refreshed[i].NextDueDate.Equal(loaded[i].NextDueDate) {
				continue
			}
			refreshed[i].UpdatedAt = nowTimestamp()
			_, err := tx.ExecContext(ctx,
				"UPDATE fixed_expenses SET next_due_date = ?, updated_at = ? WHERE id = ?",
				refreshed[i].NextDueDate.String(), refreshed[i].UpdatedAt, refreshed[i].ID)
			if err != nil {
				return fmt.Errorf("persist refreshed due date: %w", err)
			}
			slog.DebugContext(ctx, "Stale due date advanced",
				"id", refreshed[i].ID,
				"from", loaded[i].NextDueDate.String(),
				"to", refreshed[i].NextDueDate.String())
		}
		out = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkExpensePaid records a payment for a fixed expense: it emits an expense
// transaction against account, posts the balance, stamps lastPaidDate and
// advances nextDueDate from its stored value. The advance starts from the due
// date rather than the payment date, so paying early keeps the cadence.
func (s *Store) MarkExpensePaid(ctx context.Context, id, account string, paidOn core.Date) (core.Transaction, error) {
	var created core.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+fixedExpenseColumns+` FROM fixed_expenses WHERE id = ?`, id)
		e, err := scanFixedExpense(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("fixed expense %q: %w", id, core.ErrExpenseNotFound)
		}
		if err != nil {
			return fmt.Errorf("load fixed expense: %w", err)
		}

		now := nowTimestamp()
		created = core.Transaction{
			ID:          newID(),
			Amount:      e.Amount,
			Type:        core.Expense,
			Category:    e.Category,
			Account:     account,
			Description: e.Name,
			Date:        paidOn,
			IsRecurring: true,
			RecurringID: e.ID,
			SyncStatus:  core.SyncLocal,
			Version:     1,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := insertTransaction(tx, ctx, created); err != nil {
			return err
		}
		if err := postBalance(tx, ctx, account, created.SignedCents()); err != nil {
			return err
		}

		next := schedule.NextDueDate(e.DayOfMonth, e.Frequency, e.NextDueDate)
		_, err = tx.ExecContext(ctx,
			`UPDATE fixed_expenses SET last_paid_date = ?, next_due_date = ?, updated_at = ? WHERE id = ?`,
			paidOn.String(), next.String(), now, id)
		if err != nil {
			return fmt.Errorf("advance fixed expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Fixed expense paid",
		"id", id,
		"transaction_id", created.ID,
		"amount_cents", created.Amount.Cents,
		"paid_on", paidOn.String())
	return created, nil
}
