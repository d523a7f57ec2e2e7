package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agile-lab-dev/witboost-mongodb-tech-adapter/internal/domain"
)

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps domain errors to the platform's error payloads:
// ValidationError -> 400, everything else -> 500 SystemError.
func writeDomainError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, ValidationErrorBody{Errors: ve.Errors})
		return
	}
	var se *domain.SystemError
	if errors.As(err, &se) {
		writeJSON(w, http.StatusInternalServerError, SystemErrorBody{Error: se.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, SystemErrorBody{Error: err.Error()})
}
