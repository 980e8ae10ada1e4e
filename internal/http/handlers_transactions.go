package http

import (
	"net/http"

	"github.com/lonmstalker/local-budget-app/internal/core"
)

// handleListTransactions supports three shapes: ?q= full-text search,
// ?from=&to= date range, or the full history newest first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if q := r.URL.Query().Get("q"); q != "" {
		txs, err := s.store.SearchTransactions(ctx, q)
		if err != nil {
			respondDomainError(ctx, w, err)
			return
		}
		respondJSON(ctx, w, http.StatusOK, txs)
		return
	}

	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")
	if fromRaw != "" || toRaw != "" {
		from, err := dateParam(r, "from", core.NewDate(1970, 1, 1))
		if err != nil {
			respondDomainError(ctx, w, err)
			return
		}
		to, err := dateParam(r, "to", core.Today())
		if err != nil {
			respondDomainError(ctx, w, err)
			return
		}
		txs, err := s.store.TransactionsByDateRange(ctx, from, to)
		if err != nil {
			respondDomainError(ctx, w, err)
			return
		}
		respondJSON(ctx, w, http.StatusOK, txs)
		return
	}

	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var t core.Transaction
	if err := decodeJSON(r, &t); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	created, err := s.store.AddTransaction(ctx, t)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusCreated, created)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	t, err := s.store.GetTransaction(ctx, r.PathValue("id"))
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var t core.Transaction
	if err := decodeJSON(r, &t); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	t.ID = r.PathValue("id")
	updated, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.store.DeleteTransaction(ctx, r.PathValue("id")); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	s.invalidateReports()
	respondJSON(ctx, w, http.StatusNoContent, nil)
}
