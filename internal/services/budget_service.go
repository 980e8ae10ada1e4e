// Package services holds the orchestration layer between the HTTP surface,
// the store and the schedule engines.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lonmstalker/local-budget-app/internal/core"
	"github.com/lonmstalker/local-budget-app/internal/schedule"
	"github.com/lonmstalker/local-budget-app/internal/storage"
)

// BudgetService wraps the store with the cross-collection reads the UI needs
// and resolves the default account for schedule-driven postings.
type BudgetService struct {
	store *storage.Store
}

func NewBudgetService(store *storage.Store) *BudgetService {
	return &BudgetService{store: store}
}

// Overview is the dashboard payload: cash position, recurring commitment and
// the income forecast for the current month.
type Overview struct {
	Balance    core.Money          `json:"balance"`
	Commitment schedule.Commitment `json:"commitment"`
	Forecast   schedule.Forecast   `json:"forecast"`
	Overdue    int                 `json:"overdue"`
	Upcoming   int                 `json:"upcoming"`
}

// Overview assembles the dashboard snapshot as of today.
func (s *BudgetService) Overview(ctx context.Context, today core.Date) (Overview, error) {
	balance, err := s.store.TotalBalance(ctx)
	if err != nil {
		return Overview{}, err
	}
	expenses, err := s.store.ListFixedExpenses(ctx, today)
	if err != nil {
		return Overview{}, err
	}
	incomes, err := s.store.ListPlannedIncome(ctx)
	if err != nil {
		return Overview{}, err
	}

	monthEnd := today.FirstOfMonth().WithDay(core.DaysIn(today.Year(), today.Month()))
	return Overview{
		Balance:    balance,
		Commitment: schedule.MonthlyCommitment(expenses, balance),
		Forecast:   schedule.ExpectedIncome(incomes, today.FirstOfMonth(), monthEnd),
		Overdue:    len(schedule.Overdue(expenses, today)) + len(schedule.OverdueIncome(incomes, today)),
		Upcoming:   len(schedule.Upcoming(expenses, today, 7)) + len(schedule.UpcomingIncome(incomes, today, 7)),
	}, nil
}

// resolveAccount falls back to the settings default, then the first account.
func (s *BudgetService) resolveAccount(ctx context.Context, account string) (string, error) {
	if account != "" {
		return account, nil
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return "", err
	}
	if settings.DefaultAccount != "" {
		return settings.DefaultAccount, nil
	}
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return "", err
	}
	for _, a := range accounts {
		if !a.IsArchived {
			return a.ID, nil
		}
	}
	return "", fmt.Errorf("no account available: %w", core.ErrAccountNotFound)
}

// PayExpense records a fixed expense payment, resolving the target account
// when the caller leaves it empty.
func (s *BudgetService) PayExpense(ctx context.Context, expenseID, account string, paidOn core.Date) (core.Transaction, error) {
	account, err := s.resolveAccount(ctx, account)
	if err != nil {
		return core.Transaction{}, err
	}
	tx, err := s.store.MarkExpensePaid(ctx, expenseID, account, paidOn)
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Expense payment recorded",
		"expense_id", expenseID,
		"account", account,
		"transaction_id", tx.ID)
	return tx, nil
}

// ReceiveIncome records a planned income receipt, resolving the target
// account when the caller leaves it empty.
func (s *BudgetService) ReceiveIncome(ctx context.Context, incomeID, account string, received *core.Money, receivedOn core.Date) (core.Transaction, error) {
	account, err := s.resolveAccount(ctx, account)
	if err != nil {
		return core.Transaction{}, err
	}
	tx, err := s.store.ConfirmIncomeReceived(ctx, incomeID, account, received, receivedOn)
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Income receipt recorded",
		"income_id", incomeID,
		"account", account,
		"transaction_id", tx.ID)
	return tx, nil
}
