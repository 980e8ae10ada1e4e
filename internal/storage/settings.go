package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lonmstalker/local-budget-app/internal/core"
)

// GetSettings returns the singleton settings row, creating it with defaults
// on first read.
func (s *Store) GetSettings(ctx context.Context) (core.Settings, error) {
	var (
		st       core.Settings
		alerts   int
		remind   int
		summary  int
		backup   int
	)
	err := s.db.QueryRowContext(ctx, `SELECT currency, date_format, start_of_week,
		theme, language, budget_alerts, recurring_reminders, daily_summary,
		default_account, auto_backup, last_backup
		FROM settings WHERE id = 1`).Scan(
		&st.Currency, &st.DateFormat, &st.StartOfWeek, &st.Theme, &st.Language,
		&alerts, &remind, &summary, &st.DefaultAccount, &backup, &st.LastBackup)
	if errors.Is(err, sql.ErrNoRows) {
		st = core.DefaultSettings()
		if err := s.UpdateSettings(ctx, st); err != nil {
			return core.Settings{}, err
		}
		return st, nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	st.BudgetAlerts = alerts != 0
	st.RecurringReminders = remind != 0
	st.DailySummary = summary != 0
	st.AutoBackup = backup != 0
	return st, nil
}

func (s *Store) UpdateSettings(ctx context.Context, st core.Settings) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO settings (id, currency, date_format,
		start_of_week, theme, language, budget_alerts, recurring_reminders,
		daily_summary, default_account, auto_backup, last_backup)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			currency = excluded.currency,
			date_format = excluded.date_format,
			start_of_week = excluded.start_of_week,
			theme = excluded.theme,
			language = excluded.language,
			budget_alerts = excluded.budget_alerts,
			recurring_reminders = excluded.recurring_reminders,
			daily_summary = excluded.daily_summary,
			default_account = excluded.default_account,
			auto_backup = excluded.auto_backup,
			last_backup = excluded.last_backup`,
		st.Currency, st.DateFormat, st.StartOfWeek, st.Theme, st.Language,
		boolToInt(st.BudgetAlerts), boolToInt(st.RecurringReminders),
		boolToInt(st.DailySummary), st.DefaultAccount,
		boolToInt(st.AutoBackup), st.LastBackup)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
