// Package worker consumes reminder messages and turns them into user-facing
// notifications. Delivery is currently the structured log; the dedupe logic
// keeps repeated scans from renotifying the same item.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"log/slog"

	"github.com/lonmstalker/local-budget-app/internal/amqp"
	"github.com/lonmstalker/local-budget-app/internal/core"
	"github.com/lonmstalker/local-budget-app/internal/storage"
)

// NotificationWorker delivers reminder messages, enriching them with the
// current record state and suppressing duplicates per (kind, item, due date).
type NotificationWorker struct {
	store *storage.Store

	mu        sync.Mutex
	seen      map[string]bool
	delivered int
}

func NewNotificationWorker(store *storage.Store) *NotificationWorker {
	return &NotificationWorker{
		store: store,
		seen:  make(map[string]bool),
	}
}

// HandleReminder processes one message. Items deleted since the scan are
// dropped silently; every other failure is returned so the delivery is
// requeued.
func (w *NotificationWorker) HandleReminder(ctx context.Context, msg *amqp.ReminderMessage) error {
	key := msg.Kind + "|" + msg.ItemID + "|" + msg.DueDate
	w.mu.Lock()
	if w.seen[key] {
		w.mu.Unlock()
		slog.DebugContext(ctx, "Duplicate reminder suppressed",
			"kind", msg.Kind, "item_id", msg.ItemID, "due_date", msg.DueDate)
		return nil
	}
	w.mu.Unlock()

	amount, err := w.lookupAmount(ctx, msg)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.InfoContext(ctx, "Reminder target no longer exists, dropping",
				"kind", msg.Kind, "item_id", msg.ItemID)
			return nil
		}
		return fmt.Errorf("enrich reminder: %w", err)
	}

	level := slog.LevelInfo
	if msg.Kind == amqp.KindExpenseOverdue || msg.Kind == amqp.KindIncomeOverdue {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "Reminder",
		"kind", msg.Kind,
		"item_id", msg.ItemID,
		"name", msg.Name,
		"due_date", msg.DueDate,
		"amount", amount.String())

	w.mu.Lock()
	w.seen[key] = true
	w.delivered++
	w.mu.Unlock()
	return nil
}

func (w *NotificationWorker) lookupAmount(ctx context.Context, msg *amqp.ReminderMessage) (core.Money, error) {
	switch msg.Kind {
	case amqp.KindExpenseDue, amqp.KindExpenseOverdue:
		e, err := w.store.GetFixedExpense(ctx, msg.ItemID)
		if err != nil {
			return core.Money{}, err
		}
		return e.Amount, nil
	case amqp.KindIncomeExpected, amqp.KindIncomeOverdue:
		p, err := w.store.GetPlannedIncome(ctx, msg.ItemID)
		if err != nil {
			return core.Money{}, err
		}
		return p.Amount, nil
	default:
		return core.Money{}, fmt.Errorf("%w: unknown reminder kind %q", core.ErrInvalidInput, msg.Kind)
	}
}

// Delivered reports how many reminders have been delivered since startup.
func (w *NotificationWorker) Delivered() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.delivered
}
