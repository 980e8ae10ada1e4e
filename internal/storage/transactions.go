package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lonmstalker/local-budget-app/internal/core"
)

const transactionColumns = `id, amount_cents, type, category, subcategory, account,
	description, date, tags, is_recurring, recurring_id, sync_status, version,
	created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t       core.Transaction
		date    string
		tags    string
		isRec   int
		created string
		updated string
	)
	err := row.Scan(&t.ID, &t.Amount.Cents, &t.Type, &t.Category, &t.Subcategory,
		&t.Account, &t.Description, &date, &tags, &isRec, &t.RecurringID,
		&t.SyncStatus, &t.Version, &created, &updated)
	if err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.Date = d
	t.Tags = decodeTags(tags)
	t.IsRecurring = isRec != 0
	t.CreatedAt = created
	t.UpdatedAt = updated
	return t, nil
}

// postBalance applies a signed cent delta to an account inside tx. Zero deltas
// (transfers) still verify the account exists when one is named.
func postBalance(tx *sql.Tx, ctx context.Context, account string, deltaCents int64) error {
	if account == "" {
		return nil
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?",
		deltaCents, account)
	if err != nil {
		return fmt.Errorf("post balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("post balance rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %q: %w", account, core.ErrAccountNotFound)
	}
	return nil
}

func insertTransaction(tx *sql.Tx, ctx context.Context, t core.Transaction) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Amount.Cents, t.Type, t.Category, t.Subcategory, t.Account,
		t.Description, t.Date.String(), encodeTags(t.Tags), boolToInt(t.IsRecurring),
		t.RecurringID, t.SyncStatus, t.Version, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// AddTransaction validates, persists and balance-posts a transaction in one
// atomic step. A missing ID is assigned; a named but unknown account fails the
// whole operation.
func (s *Store) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
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
	now := nowTimestamp()
	if t.CreatedAt == "" {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertTransaction(tx, ctx, t); err != nil {
			return err
		}
		return postBalance(tx, ctx, t.Account, t.SignedCents())
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction added",
		"id", t.ID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents,
		"account", t.Account)
	return t, nil
}

// UpdateTransaction replaces a transaction's mutable fields, repostings the
// balance difference between old and new state. Version is bumped and a
// synced record is demoted to pending.
func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var updated core.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, t.ID)
		old, err := scanTransaction(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("transaction %q: %w", t.ID, core.ErrTransactionNotFound)
		}
		if err != nil {
			return fmt.Errorf("load transaction: %w", err)
		}

		t.Version = old.Version + 1
		t.CreatedAt = old.CreatedAt
		t.UpdatedAt = nowTimestamp()
		t.SyncStatus = old.SyncStatus
		if t.SyncStatus == core.SyncSynced {
			t.SyncStatus = core.SyncPending
		}

		_, err = tx.ExecContext(ctx, `UPDATE transactions SET
			amount_cents = ?, type = ?, category = ?, subcategory = ?, account = ?,
			description = ?, date = ?, tags = ?, is_recurring = ?, recurring_id = ?,
			sync_status = ?, version = ?, updated_at = ?
			WHERE id = ?`,
			t.Amount.Cents, t.Type, t.Category, t.Subcategory, t.Account,
			t.Description, t.Date.String(), encodeTags(t.Tags), boolToInt(t.IsRecurring),
			t.RecurringID, t.SyncStatus, t.Version, t.UpdatedAt, t.ID)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		// Reverse the old effect, apply the new. The account may have changed.
		if err := postBalance(tx, ctx, old.Account, -old.SignedCents()); err != nil {
			return err
		}
		if err := postBalance(tx, ctx, t.Account, t.SignedCents()); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction updated", "id", t.ID, "version", updated.Version)
	return updated, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
// Deleting an id that does not exist is a no-op.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
		old, err := scanTransaction(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return postBalance(tx, ctx, old.Account, -old.SignedCents())
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %q: %w", id, core.ErrTransactionNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// ListTransactions returns all transactions, newest first.
func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, created_at DESC`)
}

// TransactionsByDateRange returns transactions with date in [from, to],
// newest first.
func (s *Store) TransactionsByDateRange(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE date >= ? AND date <= ? ORDER BY date DESC, created_at DESC`,
		from.String(), to.String())
}

// SearchTransactions matches the query case-insensitively against description,
// category, subcategory and tags.
func (s *Store) SearchTransactions(ctx context.Context, query string) ([]core.Transaction, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return s.ListTransactions(ctx)
	}
	like := "%" + strings.ToLower(q) + "%"
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE lower(description) LIKE ?
		   OR lower(category) LIKE ?
		   OR lower(subcategory) LIKE ?
		   OR lower(tags) LIKE ?
		ORDER BY date DESC, created_at DESC`,
		like, like, like, like)
}

// TransactionsByRecurringID returns transactions emitted by a schedule item,
// newest first.
func (s *Store) TransactionsByRecurringID(ctx context.Context, recurringID string) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE recurring_id = ? ORDER BY date DESC, created_at DESC`,
		recurringID)
}
