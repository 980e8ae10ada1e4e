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

const accountColumns = `id, name, type, balance_cents, currency, color, is_archived, sort_order`

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var (
		a        core.Account
		archived int
	)
	err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Balance.Cents, &a.Currency,
		&a.Color, &archived, &a.Order)
	if err != nil {
		return core.Account{}, err
	}
	a.IsArchived = archived != 0
	return a, nil
}

func (s *Store) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if strings.TrimSpace(a.Name) == "" {
		return core.Account{}, core.ErrEmptyName
	}
	if a.ID == "" {
		a.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Type, a.Balance.Cents, a.Currency, a.Color,
		boolToInt(a.IsArchived), a.Order)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	slog.InfoContext(ctx, "Account created", "id", a.ID, "name", a.Name)
	return a, nil
}

// UpdateAccount replaces an account's metadata. Balance is not writable here;
// it moves only through transaction posting and RebuildAccountBalances.
func (s *Store) UpdateAccount(ctx context.Context, a core.Account) error {
	if strings.TrimSpace(a.Name) == "" {
		return core.ErrEmptyName
	}
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET
		name = ?, type = ?, currency = ?, color = ?, is_archived = ?, sort_order = ?
		WHERE id = ?`,
		a.Name, a.Type, a.Currency, a.Color, boolToInt(a.IsArchived), a.Order, a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %q: %w", a.ID, core.ErrAccountNotFound)
	}
	return nil
}

// ArchiveAccount hides an account from pickers without touching its history.
func (s *Store) ArchiveAccount(ctx context.Context, id string, archived bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE accounts SET is_archived = ? WHERE id = ?", boolToInt(archived), id)
	if err != nil {
		return fmt.Errorf("archive account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %q: %w", id, core.ErrAccountNotFound)
	}
	slog.InfoContext(ctx, "Account archive state changed", "id", id, "archived", archived)
	return nil
}

// DeleteAccount refuses while transactions still reference the account.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM transactions WHERE account = ?", id).Scan(&count)
		if err != nil {
			return fmt.Errorf("count account transactions: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("account %q has %d transactions: %w", id, count, core.ErrInUse)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("account %q: %w", id, core.ErrAccountNotFound)
		}
		return nil
	})
}

func (s *Store) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %q: %w", id, core.ErrAccountNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// ListAccounts returns accounts in display order, archived included.
func (s *Store) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return out, nil
}

// TotalBalance sums the cached balances of non-archived accounts.
func (s *Store) TotalBalance(ctx context.Context) (core.Money, error) {
	var cents sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT SUM(balance_cents) FROM accounts WHERE is_archived = 0").Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("total balance: %w", err)
	}
	return core.Money{Cents: cents.Int64}, nil
}

// RebuildAccountBalances recomputes every account balance from the full
// transaction history, replacing whatever the incremental postings left. This
// is the recovery path after bulk imports and the ground truth the
// incremental invariant is checked against.
func (s *Store) RebuildAccountBalances(ctx context.Context) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE accounts SET balance_cents = COALESCE((
			SELECT SUM(CASE type
				WHEN 'income' THEN amount_cents
				WHEN 'expense' THEN -amount_cents
				ELSE 0 END)
			FROM transactions WHERE transactions.account = accounts.id), 0)`)
		if err != nil {
			return fmt.Errorf("rebuild balances: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Account balances rebuilt from transaction history")
	return nil
}
