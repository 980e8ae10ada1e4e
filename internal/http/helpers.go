package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"log/slog"

	"github.com/lonmstalker/local-budget-app/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON body with the given status code.
func respondJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(ctx, "Failed to encode response", "error", err)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, errorResponse{Error: message})
}

// respondDomainError maps the error taxonomy onto HTTP status codes.
func respondDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInUse):
		respondError(ctx, w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrInvalidInput):
		respondError(ctx, w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(ctx, "Request failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body", core.ErrInvalidInput)
	}
	return nil
}

// dateParam parses a YYYY-MM-DD query parameter, falling back when absent.
func dateParam(r *http.Request, name string, fallback core.Date) (core.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: query parameter %q", core.ErrInvalidDate, name)
	}
	return d, nil
}
