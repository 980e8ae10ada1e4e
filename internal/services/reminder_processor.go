package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lonmstalker/local-budget-app/internal/amqp"
	"github.com/lonmstalker/local-budget-app/internal/core"
	"github.com/lonmstalker/local-budget-app/internal/schedule"
	"github.com/lonmstalker/local-budget-app/internal/storage"
)

// ReminderPublisher is the queue side of the reminder pipeline.
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, msg *amqp.ReminderMessage) error
}

// ReminderProcessor scans the schedule collections and publishes a reminder
// message for every item that is overdue or inside its reminder window.
type ReminderProcessor struct {
	store     *storage.Store
	publisher ReminderPublisher
}

func NewReminderProcessor(store *storage.Store, publisher ReminderPublisher) *ReminderProcessor {
	return &ReminderProcessor{
		store:     store,
		publisher: publisher,
	}
}

// ProcessReminders publishes reminders as of today. Fixed expenses use their
// per-item reminder window; planned income uses lookaheadDays. Returns the
// number of messages published. Publish failures skip the item and continue;
// the next run retries.
func (p *ReminderProcessor) ProcessReminders(ctx context.Context, today core.Date, lookaheadDays int) (int, error) {
	if p.store == nil || p.publisher == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	settings, err := p.store.GetSettings(ctx)
	if err != nil {
		return 0, fmt.Errorf("load settings: %w", err)
	}
	if !settings.RecurringReminders {
		slog.InfoContext(ctx, "Recurring reminders disabled, skipping scan")
		return 0, nil
	}

	expenses, err := p.store.ListFixedExpenses(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list fixed expenses: %w", err)
	}
	incomes, err := p.store.ListPlannedIncome(ctx)
	if err != nil {
		return 0, fmt.Errorf("list planned income: %w", err)
	}

	published := 0
	publish := func(msg *amqp.ReminderMessage) {
		if err := p.publisher.PublishReminder(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish reminder",
				"kind", msg.Kind,
				"item_id", msg.ItemID,
				"error", err)
			return
		}
		published++
	}

	for _, e := range schedule.Overdue(expenses, today) {
		publish(amqp.NewReminderMessage(amqp.KindExpenseOverdue, e.ID, e.Name, e.NextDueDate.String()))
	}
	for _, e := range expenses {
		if !e.IsActive || !e.Reminder || e.Autopay {
			continue
		}
		if e.NextDueDate.Before(today) || e.NextDueDate.After(today.AddDays(e.ReminderDays)) {
			continue
		}
		publish(amqp.NewReminderMessage(amqp.KindExpenseDue, e.ID, e.Name, e.NextDueDate.String()))
	}

	for _, in := range schedule.OverdueIncome(incomes, today) {
		if !in.Notifications {
			continue
		}
		publish(amqp.NewReminderMessage(amqp.KindIncomeOverdue, in.ID, in.Name, in.ExpectedDate.String()))
	}
	for _, in := range schedule.UpcomingIncome(incomes, today, lookaheadDays) {
		if !in.Notifications {
			continue
		}
		publish(amqp.NewReminderMessage(amqp.KindIncomeExpected, in.ID, in.Name, in.ExpectedDate.String()))
	}

	slog.InfoContext(ctx, "Reminder scan complete",
		"published", published,
		"expenses_checked", len(expenses),
		"income_checked", len(incomes),
		"as_of", today.String())

	return published, nil
}
