package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/presence/backend/internal/contracts"
)

// paramError reports a malformed query parameter
type paramError struct {
	err error
}

func (e *paramError) Error() string {
	return "invalid filter: " + e.err.Error()
}

func (e *paramError) Unwrap() error {
	return e.err
}

// statusFor maps a pipeline error to its HTTP status
func statusFor(err error) int {
	var pe *paramError
	switch {
	case errors.As(err, &pe):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, contracts.ErrSchemaMismatch):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// messageFor is the text shown to the user for err
func messageFor(err error) string {
	var pe *paramError
	switch {
	case errors.As(err, &pe):
		return pe.Error()
	case errors.Is(err, contracts.ErrDataUnavailable):
		return "Impossible de charger les données. Veuillez vérifier la connexion. (" + err.Error() + ")"
	case errors.Is(err, contracts.ErrSchemaMismatch):
		return "Structure des données inattendue : " + err.Error()
	default:
		return "Internal server error"
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
