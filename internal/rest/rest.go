package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/errs"
	log "github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// WriteJSON encodes body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

// WriteBadRequest reports a malformed request with a short message and optional details.
func WriteBadRequest(w http.ResponseWriter, message, details string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Details: details})
}

// WriteError maps the domain error taxonomy to HTTP statuses. Anything unknown is a 500.
func WriteError(w http.ResponseWriter, err error) {
	var validationErr *errs.ValidationError
	var configErr *errs.ConfigError
	var overlapErr *errs.OverlapError

	switch {
	case errors.As(err, &validationErr):
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid input",
			Details: validationErr.Error(),
		})
	case errors.As(err, &configErr):
		status := http.StatusUnprocessableEntity
		if configErr.Code == errs.CodeConfigLocked {
			status = http.StatusConflict
		}
		WriteJSON(w, status, ErrorResponse{
			Error:   "Configuration error",
			Details: configErr.Error(),
			Code:    configErr.Code,
		})
	case errors.As(err, &overlapErr):
		WriteJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "Overlapping ranges",
			Details: overlapErr.Error(),
		})
	default:
		log.Errorf("request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
