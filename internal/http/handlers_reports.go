package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/lonmstalker/local-budget-app/internal/analytics"
	"github.com/lonmstalker/local-budget-app/internal/core"
)

// handleOverview serves the dashboard snapshot, cached per calendar day.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := core.Today()

	if ov, ok := s.overviewCache.Get(today.String()); ok {
		respondJSON(ctx, w, http.StatusOK, ov)
		return
	}
	ov, err := s.svc.Overview(ctx, today)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.overviewCache.Set(today.String(), ov)
	respondJSON(ctx, w, http.StatusOK, ov)
}

// handleMonthReport rolls up one calendar month: ?year=2025&month=6. Both
// default to the current month.
func (s *Server) handleMonthReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := core.Today()

	year, err := intParam(r, "year", today.Year())
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	month, err := intParam(r, "month", today.Month())
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	if month < 1 || month > 12 {
		respondDomainError(ctx, w, fmt.Errorf("%w: month must be 1-12", core.ErrInvalidInput))
		return
	}

	key := fmt.Sprintf("%04d-%02d", year, month)
	if summary, ok := s.summaryCache.Get(key); ok {
		respondJSON(ctx, w, http.StatusOK, summary)
		return
	}

	first := core.NewDate(year, month, 1)
	last := first.WithDay(core.DaysIn(year, month))
	txs, err := s.store.TransactionsByDateRange(ctx, first, last)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	categories, err := s.store.ListCategories(ctx, "")
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	summary := analytics.SummarizeMonth(txs, categories, year, month)
	s.summaryCache.Set(key, summary)
	respondJSON(ctx, w, http.StatusOK, summary)
}

// handleBalanceSeries returns the running total balance per day across
// ?from=&to= (default: current month to date). The opening balance is
// reconstructed by walking the cached total backwards over later activity.
func (s *Server) handleBalanceSeries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := core.Today()

	from, err := dateParam(r, "from", today.FirstOfMonth())
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	to, err := dateParam(r, "to", today)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	if to.Before(from) {
		respondDomainError(ctx, w, fmt.Errorf("%w: from is after to", core.ErrInvalidInput))
		return
	}

	total, err := s.store.TotalBalance(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	all, err := s.store.ListTransactions(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	// The total excludes archived accounts, so their activity must not be
	// replayed either.
	archived := make(map[string]bool)
	for _, a := range accounts {
		if a.IsArchived {
			archived[a.ID] = true
		}
	}
	live := all[:0:0]
	for _, tx := range all {
		if !archived[tx.Account] {
			live = append(live, tx)
		}
	}

	opening := total.Cents
	for _, tx := range live {
		if !tx.Date.Before(from) {
			opening -= tx.SignedCents()
		}
	}

	series := analytics.BalanceSeries(live, core.Money{Cents: opening}, from, to)
	respondJSON(ctx, w, http.StatusOK, series)
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: query parameter %q", core.ErrInvalidInput, name)
	}
	return n, nil
}
