package exchange

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lonmstalker/local-budget-app/internal/core"
)

var csvHeader = []string{"Date", "Type", "Amount", "Description", "Category", "Account", "Tags"}

// ExportCSV writes all transactions as spreadsheet rows, newest first.
// Category and account ids are resolved to display names.
func (p *Porter) ExportCSV(ctx context.Context, w io.Writer) error {
	transactions, err := p.store.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	categories, err := p.store.ListCategories(ctx, "")
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	accounts, err := p.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	catNames := make(map[string]string, len(categories))
	for _, c := range categories {
		catNames[c.ID] = c.Name
	}
	accNames := make(map[string]string, len(accounts))
	for _, a := range accounts {
		accNames[a.ID] = a.Name
	}
	name := func(m map[string]string, id string) string {
		if n, ok := m[id]; ok {
			return n
		}
		return id
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range transactions {
		row := []string{
			t.Date.String(),
			string(t.Type),
			t.Amount.String(),
			t.Description,
			name(catNames, t.Category),
			name(accNames, t.Account),
			strings.Join(t.Tags, ","),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ImportCSV appends transactions parsed from r. Category and account columns
// are matched against existing names case-insensitively; a row naming an
// unknown category falls back to the first category of the row's type, and an
// unknown account falls back to the first account. An unrecognized type
// becomes an expense. Rows whose date or amount cannot be parsed, or whose
// category/account cannot be resolved at all, are skipped. Columns are matched
// by header name, so an extra Subcategory column is honored when present.
// Every accepted row goes through the normal add path, so balances stay
// consistent.
//
// Returns the number of imported rows.
func (p *Porter) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	categories, err := p.store.ListCategories(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}
	accounts, err := p.store.ListAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}

	resolveCategory := func(name string, typ core.TransactionType) string {
		lower := strings.ToLower(strings.TrimSpace(name))
		for _, c := range categories {
			if strings.ToLower(c.Name) == lower || c.ID == name {
				return c.ID
			}
		}
		for _, c := range categories {
			if c.Type == typ {
				return c.ID
			}
		}
		return ""
	}
	resolveAccount := func(name string) string {
		lower := strings.ToLower(strings.TrimSpace(name))
		for _, a := range accounts {
			if strings.ToLower(a.Name) == lower || a.ID == name {
				return a.ID
			}
		}
		if len(accounts) > 0 {
			return accounts[0].ID
		}
		return ""
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", core.ErrInvalidInput)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	imported, skipped := 0, 0
	skip := func(line int, reason string, err error) {
		skipped++
		slog.WarnContext(ctx, "CSV row skipped", "line", line, "reason", reason, "error", err)
	}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("csv line %d: %w", line, core.ErrInvalidInput)
		}

		date, err := core.ParseDate(field(row, "date"))
		if err != nil {
			skip(line, "date", err)
			continue
		}
		cents, err := core.ParseDecimalToCents(field(row, "amount"))
		if err != nil {
			skip(line, "amount", err)
			continue
		}
		typ := core.TransactionType(strings.ToLower(field(row, "type")))
		switch typ {
		case core.Income, core.Expense, core.Transfer:
		default:
			typ = core.Expense
		}

		category := resolveCategory(field(row, "category"), typ)
		account := resolveAccount(field(row, "account"))
		if category == "" || account == "" {
			skip(line, "unresolved category or account", nil)
			continue
		}

		var tags []string
		if raw := field(row, "tags"); raw != "" {
			for _, tag := range strings.Split(raw, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					tags = append(tags, tag)
				}
			}
		}

		t := core.Transaction{
			Amount:      core.Money{Cents: cents},
			Type:        typ,
			Category:    category,
			Subcategory: field(row, "subcategory"),
			Account:     account,
			Description: field(row, "description"),
			Date:        date,
			Tags:        tags,
		}
		if _, err := p.store.AddTransaction(ctx, t); err != nil {
			return imported, fmt.Errorf("csv line %d: %w", line, err)
		}
		imported++
	}

	slog.InfoContext(ctx, "CSV import completed", "rows", imported, "skipped", skipped)
	return imported, nil
}
