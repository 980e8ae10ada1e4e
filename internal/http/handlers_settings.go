package http

import (
	"net/http"

	"github.com/lonmstalker/local-budget-app/internal/core"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var settings core.Settings
	if err := decodeJSON(r, &settings); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	if err := s.store.UpdateSettings(ctx, settings); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusOK, settings)
}
