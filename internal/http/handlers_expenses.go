package http

import (
	"net/http"

	"github.com/lonmstalker/local-budget-app/internal/core"
	"github.com/lonmstalker/local-budget-app/internal/schedule"
)

// handleListFixedExpenses refreshes stale due dates as a side effect of the
// read, so the response always carries live schedule cursors.
func (s *Server) handleListFixedExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	expenses, err := s.store.ListFixedExpenses(ctx, core.Today())
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, expenses)
}

// handleExpenseSummary reports the monthly recurring commitment against the
// current total balance.
func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	expenses, err := s.store.ListFixedExpenses(ctx, core.Today())
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	balance, err := s.store.TotalBalance(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, schedule.MonthlyCommitment(expenses, balance))
}

func (s *Server) handleCreateFixedExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var e core.FixedExpense
	if err := decodeJSON(r, &e); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	created, err := s.store.CreateFixedExpense(ctx, e, core.Today())
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusCreated, created)
}

func (s *Server) handleGetFixedExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	e, err := s.store.GetFixedExpense(ctx, r.PathValue("id"))
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, e)
}

func (s *Server) handleUpdateFixedExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var e core.FixedExpense
	if err := decodeJSON(r, &e); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	e.ID = r.PathValue("id")
	if err := s.store.UpdateFixedExpense(ctx, e); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	updated, err := s.store.GetFixedExpense(ctx, e.ID)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusOK, updated)
}

func (s *Server) handleDeleteFixedExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.store.DeleteFixedExpense(ctx, r.PathValue("id")); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusNoContent, nil)
}

type payRequest struct {
	Account string    `json:"account"`
	Date    core.Date `json:"date"`
}

// handlePayFixedExpense posts the payment transaction and advances the due
// date. An empty account falls back to the configured default.
func (s *Server) handlePayFixedExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req payRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondDomainError(ctx, w, err)
			return
		}
	}
	if req.Date.IsZero() {
		req.Date = core.Today()
	}
	tx, err := s.svc.PayExpense(ctx, r.PathValue("id"), req.Account, req.Date)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusCreated, tx)
}
