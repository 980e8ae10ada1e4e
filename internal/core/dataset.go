package core

// Dataset is a full snapshot of every collection, the unit of backup and
// restore. The transactions/categories/accounts/exportDate keys match the
// original export files; the remaining collections are additive.
type Dataset struct {
	Version       int             `json:"version"`
	ExportDate    string          `json:"exportDate"`
	Transactions  []Transaction   `json:"transactions"`
	Categories    []Category      `json:"categories"`
	Accounts      []Account       `json:"accounts"`
	FixedExpenses []FixedExpense  `json:"fixedExpenses"`
	PlannedIncome []PlannedIncome `json:"plannedIncome"`
	Settings      *Settings       `json:"settings,omitempty"`
}

// DatasetVersion is the current snapshot format version.
const DatasetVersion = 1
