package http

import (
	"net/http"

	"log/slog"
)

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="budget-export.json"`)
	if err := s.porter.ExportJSON(ctx, w); err != nil {
		// Headers are already out; the truncated body is all we can signal.
		slog.ErrorContext(ctx, "JSON export failed", "error", err)
	}
}

// handleImportJSON merges the uploaded snapshot into the dataset.
func (s *Server) handleImportJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.porter.ImportJSON(ctx, r.Body); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "imported"})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := s.porter.ExportCSV(ctx, w); err != nil {
		slog.ErrorContext(ctx, "CSV export failed", "error", err)
	}
}

// handleImportCSV appends uploaded rows as new transactions and reports how
// many were imported. Unresolvable rows are skipped.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, err := s.porter.ImportCSV(ctx, r.Body)
	if err != nil {
		s.invalidateReports()
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusOK, map[string]int{"imported": n})
}

// handleRebuildBalances recomputes every cached account balance by full scan.
func (s *Server) handleRebuildBalances(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.store.RebuildAccountBalances(ctx); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "rebuilt"})
}
