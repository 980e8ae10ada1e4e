package http

import (
	"fmt"
	"net/http"

	"github.com/lonmstalker/local-budget-app/internal/core"
	"github.com/lonmstalker/local-budget-app/internal/schedule"
)

func (s *Server) handleListPlannedIncome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	incomes, err := s.store.ListPlannedIncome(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, incomes)
}

func (s *Server) handleCreatePlannedIncome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var p core.PlannedIncome
	if err := decodeJSON(r, &p); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	created, err := s.store.CreatePlannedIncome(ctx, p)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusCreated, created)
}

func (s *Server) handleGetPlannedIncome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := s.store.GetPlannedIncome(ctx, r.PathValue("id"))
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, p)
}

func (s *Server) handleUpdatePlannedIncome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var p core.PlannedIncome
	if err := decodeJSON(r, &p); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	p.ID = r.PathValue("id")
	if err := s.store.UpdatePlannedIncome(ctx, p); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	updated, err := s.store.GetPlannedIncome(ctx, p.ID)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusOK, updated)
}

func (s *Server) handleDeletePlannedIncome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.store.DeletePlannedIncome(ctx, r.PathValue("id")); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusNoContent, nil)
}

type receiveRequest struct {
	Account string      `json:"account"`
	Amount  *core.Money `json:"amount"`
	Date    core.Date   `json:"date"`
}

// handleIncomeForecast reports the probability-weighted forecast over the
// next ?days= (default 30).
func (s *Server) handleIncomeForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := core.Today()

	days, err := intParam(r, "days", 30)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	if days < 1 {
		respondDomainError(ctx, w, fmt.Errorf("%w: days must be positive", core.ErrInvalidInput))
		return
	}
	incomes, err := s.store.ListPlannedIncome(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, schedule.ExpectedIncome(incomes, today, today.AddDays(days)))
}

// handleConfirmPlannedIncome confirms a receipt. A nil amount falls back to
// the planned amount; an empty account falls back to the configured default.
func (s *Server) handleConfirmPlannedIncome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req receiveRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondDomainError(ctx, w, err)
			return
		}
	}
	if req.Date.IsZero() {
		req.Date = core.Today()
	}
	tx, err := s.svc.ReceiveIncome(ctx, r.PathValue("id"), req.Account, req.Amount, req.Date)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusCreated, tx)
}
