package http

import (
	"net/http"

	"github.com/lonmstalker/local-budget-app/internal/core"
)

// handleListCategories accepts an optional ?type=income|expense filter.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	typ := core.TransactionType(r.URL.Query().Get("type"))
	switch typ {
	case "", core.Income, core.Expense:
	default:
		respondDomainError(ctx, w, core.ErrInvalidType)
		return
	}
	categories, err := s.store.ListCategories(ctx, typ)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var c core.Category
	if err := decodeJSON(r, &c); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var c core.Category
	if err := decodeJSON(r, &c); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	c.ID = r.PathValue("id")
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	updated, err := s.store.GetCategory(ctx, c.ID)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.store.DeleteCategory(ctx, r.PathValue("id")); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusNoContent, nil)
}
