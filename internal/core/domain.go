package core

import (
	"strings"
)

// Transaction types. The sign of a transaction's effect on its account
// balance is derived from the type: income adds, expense subtracts, transfer
// has no single-account effect and is excluded from balance posting.
const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

// Sync states. Reserved for a future sync protocol; nothing exercises them
// beyond the synced->pending demotion on edit.
const (
	SyncLocal   SyncStatus = "local"
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
)

// Fixed expense frequencies.
const (
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// Planned income frequencies. Weekly and Monthly are shared with fixed expenses.
const (
	Once     Frequency = "once"
	Biweekly Frequency = "biweekly"
)

// Fixed expense priorities.
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

type (
	TransactionType string
	SyncStatus      string
	Frequency       string
	Priority        string
)

// Transaction is one posted monetary event. Identity is immutable, fields are
// mutable through UpdateTransaction which bumps Version.
type Transaction struct {
	ID          string          `json:"id"`
	Amount      Money           `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	Account     string          `json:"account"`
	Description string          `json:"description"`
	Date        Date            `json:"date"`
	Tags        []string        `json:"tags"`
	IsRecurring bool            `json:"isRecurring"`
	// RecurringID points back at the fixed expense or planned income that
	// emitted this transaction. Non-owning: deletes never cascade over it.
	RecurringID string     `json:"recurringId,omitempty"`
	SyncStatus  SyncStatus `json:"syncStatus"`
	Version     int64      `json:"version"`
	CreatedAt   string     `json:"createdAt"`
	UpdatedAt   string     `json:"updatedAt"`
}

// SignedCents is the transaction's effect on its account balance in cents.
// Transfers return 0.
func (t Transaction) SignedCents() int64 {
	switch t.Type {
	case Income:
		return t.Amount.Cents
	case Expense:
		return -t.Amount.Cents
	default:
		return 0
	}
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	switch t.Type {
	case Income, Expense, Transfer:
	default:
		return ErrInvalidType
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrCategoryNotFound
	}
	return nil
}

// Account owns a cached balance maintained incrementally by the store.
// Balance equals the sum of signed amounts of all non-transfer transactions
// referencing the account; it is only ever recomputed by full scan through
// RebuildAccountBalances.
type Account struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Balance    Money  `json:"balance"`
	Currency   string `json:"currency"`
	Color      string `json:"color,omitempty"`
	IsArchived bool   `json:"isArchived"`
	Order      int    `json:"order"`
}

// Category is a classification label. Deleting a category still referenced by
// a transaction is refused; no other cascading behavior exists.
type Category struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Type     TransactionType `json:"type"`
	Icon     string          `json:"icon,omitempty"`
	Color    string          `json:"color,omitempty"`
	Budget   *Money          `json:"budget,omitempty"`
	IsCustom bool            `json:"isCustom"`
	Order    int             `json:"order"`
}

// FixedExpense is a recurring obligation template plus its live schedule
// cursor. NextDueDate is lazily refreshed on read, never ticked by a
// background task.
type FixedExpense struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Amount       Money     `json:"amount"`
	Category     string    `json:"category"`
	DayOfMonth   int       `json:"dayOfMonth"`
	Frequency    Frequency `json:"frequency"`
	IsActive     bool      `json:"isActive"`
	LastPaidDate Date      `json:"lastPaidDate,omitempty"`
	NextDueDate  Date      `json:"nextDueDate"`
	Reminder     bool      `json:"reminder"`
	ReminderDays int       `json:"reminderDays"`
	Autopay      bool      `json:"autopay"`
	Priority     Priority  `json:"priority"`
	Color        string    `json:"color,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    string    `json:"createdAt"`
	UpdatedAt    string    `json:"updatedAt"`
}

func (e FixedExpense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.DayOfMonth < 1 || e.DayOfMonth > 31 {
		return ErrInvalidDayOfMonth
	}
	switch e.Frequency {
	case Weekly, Monthly, Quarterly, Yearly:
	default:
		return ErrInvalidFrequency
	}
	switch e.Priority {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return ErrInvalidInput
	}
	return nil
}

// PlannedIncome is a recurring or one-off income expectation. For recurring
// frequencies the record always represents the next pending expectation;
// receipt history lives only in the emitted transactions.
type PlannedIncome struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Amount          Money     `json:"amount"`
	ExpectedDate    Date      `json:"expectedDate"`
	DateUncertainty int       `json:"dateUncertainty"`
	Frequency       Frequency `json:"frequency"`
	Source          string    `json:"source"`
	Probability     int       `json:"probability"`
	IsConfirmed     bool      `json:"isConfirmed"`
	ReceivedDate    Date      `json:"receivedDate,omitempty"`
	ReceivedAmount  *Money    `json:"receivedAmount,omitempty"`
	Notifications   bool      `json:"notifications"`
	Color           string    `json:"color,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       string    `json:"createdAt"`
	UpdatedAt       string    `json:"updatedAt"`
}

func (p PlannedIncome) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if err := p.ExpectedDate.Validate(); err != nil {
		return err
	}
	switch p.Frequency {
	case Once, Weekly, Biweekly, Monthly:
	default:
		return ErrInvalidFrequency
	}
	if p.Probability < 0 || p.Probability > 100 {
		return ErrInvalidProbability
	}
	return nil
}

// Settings is the process-wide singleton record, created on first read.
type Settings struct {
	Currency           string `json:"currency"`
	DateFormat         string `json:"dateFormat"`
	StartOfWeek        int    `json:"startOfWeek"`
	Theme              string `json:"theme"`
	Language           string `json:"language"`
	BudgetAlerts       bool   `json:"budgetAlerts"`
	RecurringReminders bool   `json:"recurringReminders"`
	DailySummary       bool   `json:"dailySummary"`
	DefaultAccount     string `json:"defaultAccount"`
	AutoBackup         bool   `json:"autoBackup"`
	LastBackup         string `json:"lastBackup,omitempty"`
}

// DefaultSettings are used when the singleton row is missing.
func DefaultSettings() Settings {
	return Settings{
		Currency:           "USD",
		DateFormat:         "yyyy-MM-dd",
		StartOfWeek:        1,
		Theme:              "system",
		Language:           "en",
		BudgetAlerts:       true,
		RecurringReminders: true,
		DailySummary:       false,
		AutoBackup:         false,
	}
}
