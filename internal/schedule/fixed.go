// Package schedule implements the two recurrence engines: next-occurrence
// computation and due/overdue bucketing for fixed expenses, and
// next-expectation and probability-weighted forecasting for planned income.
// Everything here is a pure function of its inputs; persistence of advanced
// cursors is the storage layer's concern.
package schedule

import (
	"sort"

	"github.com/lonmstalker/local-budget-app/internal/core"
)

// NextDueDate computes the next date a fixed expense becomes due, given its
// day-of-month anchor, its frequency, and the date to advance from.
//
// Monthly schedules clamp the anchor into the candidate month (day 31 in a
// 30-day month lands on the 30th) and advance one month when the candidate is
// not strictly after from. Weekly, quarterly and yearly schedules are plain
// offsets from from.
func NextDueDate(dayOfMonth int, frequency core.Frequency, from core.Date) core.Date {
	switch frequency {
	case core.Weekly:
		return from.AddDays(7)
	case core.Monthly:
		target := from.FirstOfMonth().WithDay(dayOfMonth)
		if target.After(from) {
			return target
		}
		return from.FirstOfMonth().AddMonths(1).WithDay(dayOfMonth)
	case core.Quarterly:
		return from.AddMonths(3)
	case core.Yearly:
		return from.AddYears(1)
	default:
		return from
	}
}

// RefreshDueDates returns a copy of expenses with any stale due date advanced
// to its next occurrence as of today. An item is stale when it is active and
// its stored nextDueDate is before today. Autopay items advance on the same
// cadence: a schedule that nothing can ever move forward is useless, so the
// treat-as-externally-paid reading loses to keeping the cursor live.
//
// Refreshing an already-current item is a no-op, so repeated reads with the
// same today are idempotent.
func RefreshDueDates(expenses []core.FixedExpense, today core.Date) []core.FixedExpense {
	out := make([]core.FixedExpense, len(expenses))
	copy(out, expenses)
	for i := range out {
		e := &out[i]
		if e.IsActive && e.NextDueDate.Before(today) {
			e.NextDueDate = NextDueDate(e.DayOfMonth, e.Frequency, today)
		}
	}
	return out
}

// monthlyEquivalentCents normalizes an amount to a monthly figure.
// Weekly items count 4.33 times (average weeks per month).
func monthlyEquivalentCents(e core.FixedExpense) int64 {
	switch e.Frequency {
	case core.Weekly:
		return e.Amount.Cents * 433 / 100
	case core.Monthly:
		return e.Amount.Cents
	case core.Quarterly:
		return e.Amount.Cents / 3
	case core.Yearly:
		return e.Amount.Cents / 12
	default:
		return 0
	}
}

// Commitment summarizes the recurring obligation load.
type Commitment struct {
	MonthlyTotal  core.Money `json:"monthlyTotal"`
	CriticalTotal core.Money `json:"criticalTotal"`
	FreeCash      core.Money `json:"freeCash"`
	SafeToSpend   core.Money `json:"safeToSpend"`
}

// MonthlyCommitment computes the monthly-equivalent total of all active
// expenses, the critical-priority share, and the free cash remaining after
// commitments given the current balance. SafeToSpend floors free cash at zero.
func MonthlyCommitment(expenses []core.FixedExpense, balance core.Money) Commitment {
	var total, critical int64
	for _, e := range expenses {
		if !e.IsActive {
			continue
		}
		eq := monthlyEquivalentCents(e)
		total += eq
		if e.Priority == core.PriorityCritical {
			critical += eq
		}
	}
	free := balance.Cents - total
	safe := free
	if safe < 0 {
		safe = 0
	}
	return Commitment{
		MonthlyTotal:  core.Money{Cents: total},
		CriticalTotal: core.Money{Cents: critical},
		FreeCash:      core.Money{Cents: free},
		SafeToSpend:   core.Money{Cents: safe},
	}
}

// Overdue returns active items whose due date has passed, oldest first.
// Autopay items are excluded: they carry no mark-paid affordance, so flagging
// them overdue would only produce an unactionable warning.
func Overdue(expenses []core.FixedExpense, today core.Date) []core.FixedExpense {
	var out []core.FixedExpense
	for _, e := range expenses {
		if e.IsActive && !e.Autopay && e.NextDueDate.Before(today) {
			out = append(out, e)
		}
	}
	sortByDueDate(out)
	return out
}

// Upcoming returns active items due within [today, today+days], soonest first.
func Upcoming(expenses []core.FixedExpense, today core.Date, days int) []core.FixedExpense {
	end := today.AddDays(days)
	var out []core.FixedExpense
	for _, e := range expenses {
		if !e.IsActive {
			continue
		}
		if !e.NextDueDate.Before(today) && !e.NextDueDate.After(end) {
			out = append(out, e)
		}
	}
	sortByDueDate(out)
	return out
}

func sortByDueDate(expenses []core.FixedExpense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].NextDueDate.Before(expenses[j].NextDueDate)
	})
}
