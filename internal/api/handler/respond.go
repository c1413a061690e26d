package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aquagrid/approval-engine/internal/domain"
	"github.com/aquagrid/approval-engine/internal/upstream"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// mapError translates domain sentinel errors to HTTP status codes.
// All mapping lives here so individual handlers stay concise.
func mapError(w http.ResponseWriter, err error) {
	var upErr *upstream.Error
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNoReviewer),
		errors.Is(err, domain.ErrNoAccount),
		errors.Is(err, domain.ErrInvalidDecision),
		errors.Is(err, domain.ErrUnknownKind):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &upErr):
		respondError(w, http.StatusBadGateway, "upstream backend error")
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
