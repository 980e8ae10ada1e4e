package schedule

import (
	"sort"

	"github.com/lonmstalker/local-budget-app/internal/core"
)

// probableThreshold is the minimum probability for an expectation to count
// toward the probable forecast bucket.
const probableThreshold = 70

// NextExpectedDate advances a planned income expectation past the given date.
// Once items never advance.
func NextExpectedDate(frequency core.Frequency, from core.Date) core.Date {
	switch frequency {
	case core.Weekly:
		return from.AddDays(7)
	case core.Biweekly:
		return from.AddDays(14)
	case core.Monthly:
		return from.AddMonths(1)
	default:
		return from
	}
}

// Forecast aggregates pending income expectations inside a window.
type Forecast struct {
	// TotalExpected weights every pending amount by its probability.
	TotalExpected core.Money `json:"totalExpected"`
	// Guaranteed sums certain (probability 100) amounts at full value.
	Guaranteed core.Money `json:"guaranteed"`
	// Probable weights amounts with probability >= 70.
	Probable core.Money `json:"probable"`
	Count    int        `json:"count"`
}

// settled reports whether an expectation is terminally done. Only one-off
// items settle: a recurring item keeps forecasting even if its confirmed flag
// was left set by a manual edit, because its next occurrence is still owed.
func settled(in core.PlannedIncome) bool {
	return in.IsConfirmed && in.Frequency == core.Once
}

// ExpectedIncome computes the three forecast figures over pending items whose
// expected date falls within [from, to]. Settled items are excluded; they
// have already landed as transactions.
func ExpectedIncome(incomes []core.PlannedIncome, from, to core.Date) Forecast {
	var f Forecast
	for _, in := range incomes {
		if settled(in) {
			continue
		}
		if in.ExpectedDate.Before(from) || in.ExpectedDate.After(to) {
			continue
		}
		weighted := in.Amount.Cents * int64(in.Probability) / 100
		f.TotalExpected.Cents += weighted
		if in.Probability == 100 {
			f.Guaranteed.Cents += in.Amount.Cents
		}
		if in.Probability >= probableThreshold {
			f.Probable.Cents += weighted
		}
		f.Count++
	}
	return f
}

// PendingIncome returns unsettled items ordered by expected date, soonest
// first.
func PendingIncome(incomes []core.PlannedIncome) []core.PlannedIncome {
	var out []core.PlannedIncome
	for _, in := range incomes {
		if !settled(in) {
			out = append(out, in)
		}
	}
	sortByExpectedDate(out)
	return out
}

// UpcomingIncome returns unsettled items expected within [today, today+days],
// soonest first.
func UpcomingIncome(incomes []core.PlannedIncome, today core.Date, days int) []core.PlannedIncome {
	end := today.AddDays(days)
	var out []core.PlannedIncome
	for _, in := range incomes {
		if settled(in) {
			continue
		}
		if !in.ExpectedDate.Before(today) && !in.ExpectedDate.After(end) {
			out = append(out, in)
		}
	}
	sortByExpectedDate(out)
	return out
}

// OverdueIncome returns unsettled items whose expected date plus their
// uncertainty window has passed, oldest first. The uncertainty margin keeps a
// "25th, give or take 3 days" salary out of the overdue list until the 29th.
func OverdueIncome(incomes []core.PlannedIncome, today core.Date) []core.PlannedIncome {
	var out []core.PlannedIncome
	for _, in := range incomes {
		if settled(in) {
			continue
		}
		if in.ExpectedDate.AddDays(in.DateUncertainty).Before(today) {
			out = append(out, in)
		}
	}
	sortByExpectedDate(out)
	return out
}

func sortByExpectedDate(incomes []core.PlannedIncome) {
	sort.SliceStable(incomes, func(i, j int) bool {
		return incomes[i].ExpectedDate.Before(incomes[j].ExpectedDate)
	})
}
