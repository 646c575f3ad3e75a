package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"expenseapi/internal/core"
	"expenseapi/internal/log"
	"expenseapi/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func respondErrorMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondFieldErrors renders a validation failure as a field -> message map.
func respondFieldErrors(w http.ResponseWriter, fields map[string]string) {
	respondJSON(w, http.StatusBadRequest, fields)
}

// respondError maps domain errors onto status codes. Admission denials keep
// their full numeric envelope; unexpected errors log and return a generic
// 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var exceeded *core.BudgetExceededError
	switch {
	case errors.As(err, &exceeded):
		respondJSON(w, http.StatusBadRequest, exceeded)
	case errors.Is(err, core.ErrInvalidInput):
		respondErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		respondErrorMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrConflict):
		respondErrorMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		respondErrorMessage(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, services.ErrAccountInactive):
		respondErrorMessage(w, http.StatusForbidden, "account is inactive")
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		respondErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
