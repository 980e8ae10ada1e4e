// Package exchange moves data across the application boundary: full JSON
// snapshots for backup and restore, and CSV for spreadsheet-friendly
// transaction lists.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lonmstalker/local-budget-app/internal/core"
	"github.com/lonmstalker/local-budget-app/internal/storage"
)

type Porter struct {
	store *storage.Store
}

func NewPorter(store *storage.Store) *Porter {
	return &Porter{store: store}
}

// ExportJSON writes a full snapshot of every collection.
func (p *Porter) ExportJSON(ctx context.Context, w io.Writer) error {
	ds, err := p.store.ExportDataset(ctx)
	if err != nil {
		return fmt.Errorf("export dataset: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}

// ImportJSON merges the snapshot read from r into the database: transactions
// are bulk-inserted, categories and accounts only when their id is new, so
// re-importing a file does not duplicate the catalogs. Account balances are
// rebuilt from the merged transaction history.
func (p *Porter) ImportJSON(ctx context.Context, r io.Reader) error {
	var ds core.Dataset
	dec := json.NewDecoder(r)
	if err := dec.Decode(&ds); err != nil {
		return fmt.Errorf("decode dataset: %w", core.ErrInvalidInput)
	}
	if ds.Version > core.DatasetVersion {
		return fmt.Errorf("dataset version %d unsupported: %w", ds.Version, core.ErrInvalidInput)
	}
	if err := p.store.MergeDataset(ctx, ds); err != nil {
		return fmt.Errorf("import dataset: %w", err)
	}
	return nil
}
