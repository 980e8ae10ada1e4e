package http

import (
	"net/http"

	"github.com/lonmstalker/local-budget-app/internal/core"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var a core.Account
	if err := decodeJSON(r, &a); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	created, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusCreated, created)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	a, err := s.store.GetAccount(ctx, r.PathValue("id"))
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, a)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var a core.Account
	if err := decodeJSON(r, &a); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	a.ID = r.PathValue("id")
	if err := s.store.UpdateAccount(ctx, a); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	updated, err := s.store.GetAccount(ctx, a.ID)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.store.DeleteAccount(ctx, r.PathValue("id")); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusNoContent, nil)
}

type archiveRequest struct {
	Archived bool `json:"archived"`
}

// handleArchiveAccount toggles archival. Archived accounts keep their history
// but drop out of the total balance.
func (s *Server) handleArchiveAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := archiveRequest{Archived: true}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondDomainError(ctx, w, err)
			return
		}
	}
	id := r.PathValue("id")
	if err := s.store.ArchiveAccount(ctx, id, req.Archived); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	updated, err := s.store.GetAccount(ctx, id)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusOK, updated)
}
