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

const plannedIncomeColumns = `id, name, amount_cents, expected_date, date_uncertainty,
	frequency, source, probability, is_confirmed, received_date, received_cents,
	notifications, color, notes, created_at, updated_at`

func scanPlannedIncome(row interface{ Scan(...any) error }) (core.PlannedIncome, error) {
	var (
		p         core.PlannedIncome
		expected  string
		confirmed int
		received  string
		recvCents sql.NullInt64
		notify    int
	)
	err := row.Scan(&p.ID, &p.Name, &p.Amount.Cents, &expected, &p.DateUncertainty,
		&p.Frequency, &p.Source, &p.Probability, &confirmed, &received, &recvCents,
		&notify, &p.Color, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return core.PlannedIncome{}, err
	}
	d, err := core.ParseDate(expected)
	if err != nil {
		return core.PlannedIncome{}, fmt.Errorf("planned income %s expected date: %w", p.ID, err)
	}
	p.ExpectedDate = d
	p.IsConfirmed = confirmed != 0
	if received != "" {
		rd, err := core.ParseDate(received)
		if err != nil {
			return core.PlannedIncome{}, fmt.Errorf("planned income %s received date: %w", p.ID, err)
		}
		p.ReceivedDate = rd
	}
	if recvCents.Valid {
		p.ReceivedAmount = &core.Money{Cents: recvCents.Int64}
	}
	p.Notifications = notify != 0
	return p, nil
}

func receivedDateValue(p core.PlannedIncome) string {
	if p.ReceivedDate.IsZero() {
		return ""
	}
	return p.ReceivedDate.String()
}

func receivedCentsValue(p core.PlannedIncome) any {
	if p.ReceivedAmount == nil {
		return nil
	}
	return p.ReceivedAmount.Cents
}

func (s *Store) CreatePlannedIncome(ctx context.Context, p core.PlannedIncome) (core.PlannedIncome, error) {
	if err := p.Validate(); err != nil {
		return core.PlannedIncome{}, err
	}
	if p.ID == "" {
		p.ID = newID()
	}
	now := nowTimestamp()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `INSERT INTO planned_income (`+plannedIncomeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Amount.Cents, p.ExpectedDate.String(), p.DateUncertainty,
		p.Frequency, p.Source, p.Probability, boolToInt(p.IsConfirmed),
		receivedDateValue(p), receivedCentsValue(p), boolToInt(p.Notifications),
		p.Color, p.Notes, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return core.PlannedIncome{}, fmt.Errorf("create planned income: %w", err)
	}

	slog.InfoContext(ctx, "Planned income created",
		"id", p.ID, "name", p.Name, "expected", p.ExpectedDate.String(),
		"probability", p.Probability)
	return p, nil
}

func (s *Store) UpdatePlannedIncome(ctx context.Context, p core.PlannedIncome) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = nowTimestamp()
	res, err := s.db.ExecContext(ctx, `UPDATE planned_income SET
		name = ?, amount_cents = ?, expected_date = ?, date_uncertainty = ?,
		frequency = ?, source = ?, probability = ?, is_confirmed = ?,
		received_date = ?, received_cents = ?, notifications = ?, color = ?,
		notes = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Amount.Cents, p.ExpectedDate.String(), p.DateUncertainty,
		p.Frequency, p.Source, p.Probability, boolToInt(p.IsConfirmed),
		receivedDateValue(p), receivedCentsValue(p), boolToInt(p.Notifications),
		p.Color, p.Notes, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update planned income: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("planned income %q: %w", p.ID, core.ErrIncomeNotFound)
	}
	return nil
}

func (s *Store) DeletePlannedIncome(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM planned_income WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete planned income: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("planned income %q: %w", id, core.ErrIncomeNotFound)
	}
	slog.InfoContext(ctx, "Planned income deleted", "id", id)
	return nil
}

func (s *Store) GetPlannedIncome(ctx context.Context, id string) (core.PlannedIncome, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+plannedIncomeColumns+` FROM planned_income WHERE id = ?`, id)
	p, err := scanPlannedIncome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PlannedIncome{}, fmt.Errorf("planned income %q: %w", id, core.ErrIncomeNotFound)
	}
	if err != nil {
		return core.PlannedIncome{}, fmt.Errorf("get planned income: %w", err)
	}
	return p, nil
}

func (s *Store) ListPlannedIncome(ctx context.Context) ([]core.PlannedIncome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+plannedIncomeColumns+` FROM planned_income ORDER BY expected_date, name`)
	if err != nil {
		return nil, fmt.Errorf("list planned income: %w", err)
	}
	defer rows.Close()

	var out []core.PlannedIncome
	for rows.Next() {
		p, err := scanPlannedIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan planned income: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate planned income: %w", err)
	}
	return out, nil
}

// ConfirmIncomeReceived records that an expectation landed: it emits an income
// transaction for the received amount (falling back to the planned amount),
// posts the balance, and moves the expectation forward. One-off items become
// terminal confirmed records; recurring items roll to the next expected date
// with the received fields reset.
func (s *Store) ConfirmIncomeReceived(ctx context.Context, id, account string, received *core.Money, receivedOn core.Date) (core.Transaction, error) {
	var created core.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+plannedIncomeColumns+` FROM planned_income WHERE id = ?`, id)
		p, err := scanPlannedIncome(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("planned income %q: %w", id, core.ErrIncomeNotFound)
		}
		if err != nil {
			return fmt.Errorf("load planned income: %w", err)
		}
		if p.IsConfirmed {
			return fmt.Errorf("planned income %q already confirmed: %w", id, core.ErrInvalidInput)
		}

		amount := p.Amount
		if received != nil {
			if err := received.Validate(); err != nil {
				return err
			}
			amount = *received
		}

		category := p.Source
		if category == "" {
			category = "cat-other-income"
		}

		now := nowTimestamp()
		created = core.Transaction{
			ID:          newID(),
			Amount:      amount,
			Type:        core.Income,
			Category:    category,
			Account:     account,
			Description: p.Name,
			Date:        receivedOn,
			IsRecurring: p.Frequency != core.Once,
			RecurringID: p.ID,
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

		if p.Frequency == core.Once {
			_, err = tx.ExecContext(ctx, `UPDATE planned_income SET
				is_confirmed = 1, received_date = ?, received_cents = ?, updated_at = ?
				WHERE id = ?`,
				receivedOn.String(), amount.Cents, now, id)
		} else {
			next := schedule.NextExpectedDate(p.Frequency, p.ExpectedDate)
			_, err = tx.ExecContext(ctx, `UPDATE planned_income SET
				expected_date = ?, is_confirmed = 0, received_date = '',
				received_cents = NULL, updated_at = ?
				WHERE id = ?`,
				next.String(), now, id)
		}
		if err != nil {
			return fmt.Errorf("advance planned income: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Planned income received",
		"id", id,
		"transaction_id", created.ID,
		"amount_cents", created.Amount.Cents,
		"received_on", receivedOn.String())
	return created, nil
}
