package schedule

import (
	"testing"

	"github.com/lonmstalker/local-budget-app/internal/core"
)

func TestNextDueDateMonthly(t *testing.T) {
	cases := []struct {
		name string
		day  int
		from string
		want string
	}{
		{"advance within month", 15, "2025-06-01", "2025-06-15"},
		{"same day rolls over", 15, "2025-06-15", "2025-07-15"},
		{"past anchor rolls over", 15, "2025-06-20", "2025-07-15"},
		{"clamp to short month", 31, "2025-06-28", "2025-06-30"},
		{"clamp february", 31, "2025-01-31", "2025-02-28"},
		{"clamp leap february", 30, "2024-02-01", "2024-02-29"},
		{"end of december wraps year", 10, "2025-12-20", "2026-01-10"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			from := mustDate(t, tc.from)
			got := NextDueDate(tc.day, core.Monthly, from)
			if got.String() != tc.want {
				t.Errorf("NextDueDate(%d, monthly, %s) = %s, want %s", tc.day, tc.from, got, tc.want)
			}
			if !got.After(from) {
				t.Errorf("next due date %s not after %s", got, from)
			}
		})
	}
}

func TestNextDueDateOtherFrequencies(t *testing.T) {
	from := mustDate(t, "2025-06-10")
	cases := []struct {
		freq core.Frequency
		want string
	}{
		{core.Weekly, "2025-06-17"},
		{core.Quarterly, "2025-09-10"},
		{core.Yearly, "2026-06-10"},
	}
	for _, tc := range cases {
		if got := NextDueDate(15, tc.freq, from).String(); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.freq, got, tc.want)
		}
	}
}

// Cadence preservation: marking paid early advances from the stored due date,
// not from the payment date, so day-31 schedules keep landing on month ends.
func TestCadencePreservedAcrossShortMonths(t *testing.T) {
	due := mustDate(t, "2025-06-30")
	next := NextDueDate(31, core.Monthly, due)
	if next.String() != "2025-07-31" {
		t.Fatalf("after 2025-06-30: got %s, want 2025-07-31", next)
	}

	due = mustDate(t, "2025-01-31")
	next = NextDueDate(31, core.Monthly, due)
	if next.String() != "2025-02-28" {
		t.Fatalf("after 2025-01-31: got %s, want 2025-02-28", next)
	}
	next = NextDueDate(31, core.Monthly, next)
	if next.String() != "2025-03-31" {
		t.Fatalf("after 2025-02-28: got %s, want 2025-03-31", next)
	}
}

func TestRefreshDueDatesIdempotent(t *testing.T) {
	today := mustDate(t, "2025-06-20")
	expenses := []core.FixedExpense{
		{ID: "stale", IsActive: true, DayOfMonth: 15, Frequency: core.Monthly, NextDueDate: mustDate(t, "2025-05-15")},
		{ID: "current", IsActive: true, DayOfMonth: 25, Frequency: core.Monthly, NextDueDate: mustDate(t, "2025-06-25")},
		{ID: "inactive", IsActive: false, DayOfMonth: 1, Frequency: core.Monthly, NextDueDate: mustDate(t, "2025-01-01")},
		{ID: "autopay", IsActive: true, Autopay: true, DayOfMonth: 5, Frequency: core.Monthly, NextDueDate: mustDate(t, "2025-06-05")},
	}

	once := RefreshDueDates(expenses, today)
	if got := once[0].NextDueDate.String(); got != "2025-07-15" {
		t.Errorf("stale: got %s, want 2025-07-15", got)
	}
	if got := once[1].NextDueDate.String(); got != "2025-06-25" {
		t.Errorf("current should not move: got %s", got)
	}
	if got := once[2].NextDueDate.String(); got != "2025-01-01" {
		t.Errorf("inactive should not move: got %s", got)
	}
	if got := once[3].NextDueDate.String(); got != "2025-07-05" {
		t.Errorf("autopay advances too: got %s, want 2025-07-05", got)
	}

	twice := RefreshDueDates(once, today)
	for i := range once {
		if !twice[i].NextDueDate.Equal(once[i].NextDueDate) {
			t.Errorf("%s: second refresh moved %s to %s", once[i].ID, once[i].NextDueDate, twice[i].NextDueDate)
		}
	}

	// Every refreshed active item is due today or later.
	for _, e := range once {
		if e.IsActive && e.NextDueDate.Before(today) {
			t.Errorf("%s still stale after refresh: %s", e.ID, e.NextDueDate)
		}
	}
}

func TestMonthlyCommitment(t *testing.T) {
	expenses := []core.FixedExpense{
		{IsActive: true, Frequency: core.Monthly, Amount: core.Money{Cents: 120000}, Priority: core.PriorityCritical},
		{IsActive: true, Frequency: core.Weekly, Amount: core.Money{Cents: 2000}, Priority: core.PriorityLow},
		{IsActive: true, Frequency: core.Quarterly, Amount: core.Money{Cents: 9000}, Priority: core.PriorityMedium},
		{IsActive: true, Frequency: core.Yearly, Amount: core.Money{Cents: 24000}, Priority: core.PriorityHigh},
		{IsActive: false, Frequency: core.Monthly, Amount: core.Money{Cents: 999999}},
	}
	c := MonthlyCommitment(expenses, core.Money{Cents: 200000})

	// 120000 + 2000*4.33 + 9000/3 + 24000/12 = 120000 + 8660 + 3000 + 2000
	if c.MonthlyTotal.Cents != 133660 {
		t.Errorf("MonthlyTotal = %d, want 133660", c.MonthlyTotal.Cents)
	}
	if c.CriticalTotal.Cents != 120000 {
		t.Errorf("CriticalTotal = %d, want 120000", c.CriticalTotal.Cents)
	}
	if c.FreeCash.Cents != 200000-133660 {
		t.Errorf("FreeCash = %d, want %d", c.FreeCash.Cents, 200000-133660)
	}

	tight := MonthlyCommitment(expenses, core.Money{Cents: 100000})
	if tight.FreeCash.Cents >= 0 {
		t.Errorf("FreeCash should be negative, got %d", tight.FreeCash.Cents)
	}
	if tight.SafeToSpend.Cents != 0 {
		t.Errorf("SafeToSpend floors at zero, got %d", tight.SafeToSpend.Cents)
	}
}

func TestOverdueAndUpcoming(t *testing.T) {
	today := mustDate(t, "2025-06-20")
	expenses := []core.FixedExpense{
		{ID: "late-b", IsActive: true, NextDueDate: mustDate(t, "2025-06-18")},
		{ID: "late-a", IsActive: true, NextDueDate: mustDate(t, "2025-06-01")},
		{ID: "auto-late", IsActive: true, Autopay: true, NextDueDate: mustDate(t, "2025-06-10")},
		{ID: "soon", IsActive: true, NextDueDate: mustDate(t, "2025-06-25")},
		{ID: "today", IsActive: true, NextDueDate: today},
		{ID: "far", IsActive: true, NextDueDate: mustDate(t, "2025-08-01")},
	}

	overdue := Overdue(expenses, today)
	if len(overdue) != 2 || overdue[0].ID != "late-a" || overdue[1].ID != "late-b" {
		t.Fatalf("Overdue = %v", ids(overdue))
	}

	upcoming := Upcoming(expenses, today, 7)
	if len(upcoming) != 2 || upcoming[0].ID != "today" || upcoming[1].ID != "soon" {
		t.Fatalf("Upcoming = %v", ids(upcoming))
	}
}

func ids(expenses []core.FixedExpense) []string {
	out := make([]string, len(expenses))
	for i, e := range expenses {
		out[i] = e.ID
	}
	return out
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}
