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

const categoryColumns = `id, name, type, icon, color, budget_cents, is_custom, sort_order`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var (
		c      core.Category
		budget sql.NullInt64
		custom int
	)
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Icon, &c.Color, &budget, &custom, &c.Order)
	if err != nil {
		return core.Category{}, err
	}
	if budget.Valid {
		c.Budget = &core.Money{Cents: budget.Int64}
	}
	c.IsCustom = custom != 0
	return c, nil
}

func budgetCents(c core.Category) any {
	if c.Budget == nil {
		return nil
	}
	return c.Budget.Cents
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if strings.TrimSpace(c.Name) == "" {
		return core.Category{}, core.ErrEmptyName
	}
	if c.Type != core.Income && c.Type != core.Expense {
		return core.Category{}, core.ErrInvalidType
	}
	if c.ID == "" {
		c.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Type, c.Icon, c.Color, budgetCents(c), boolToInt(c.IsCustom), c.Order)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	slog.InfoContext(ctx, "Category created", "id", c.ID, "name", c.Name, "type", c.Type)
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return core.ErrEmptyName
	}
	res, err := s.db.ExecContext(ctx, `UPDATE categories SET
		name = ?, type = ?, icon = ?, color = ?, budget_cents = ?, is_custom = ?, sort_order = ?
		WHERE id = ?`,
		c.Name, c.Type, c.Icon, c.Color, budgetCents(c), boolToInt(c.IsCustom), c.Order, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %q: %w", c.ID, core.ErrCategoryNotFound)
	}
	return nil
}

// DeleteCategory refuses while any transaction still references the category.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM transactions WHERE category = ?", id).Scan(&count)
		if err != nil {
			return fmt.Errorf("count category transactions: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("category %q has %d transactions: %w", id, count, core.ErrCategoryInUse)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("category %q: %w", id, core.ErrCategoryNotFound)
		}
		return nil
	})
}

func (s *Store) GetCategory(ctx context.Context, id string) (core.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %q: %w", id, core.ErrCategoryNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// ListCategories returns all categories in display order. Pass a type to
// filter, or the empty string for everything.
func (s *Store) ListCategories(ctx context.Context, typ core.TransactionType) ([]core.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	var args []any
	if typ != "" {
		query += " WHERE type = ?"
		args = append(args, typ)
	}
	query += " ORDER BY sort_order, name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}
