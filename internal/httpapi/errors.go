package httpapi

import (
	"errors"
	"net/http"

	"github.com/tinoosan/billing/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }

// respondErr maps domain errors onto HTTP statuses. Retryable
// persistence failures surface as 503 so clients know a retry can help.
func respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not_found", "not_found")
	case errors.Is(err, errs.ErrAlreadyPaid):
		writeErr(w, http.StatusConflict, err.Error(), "already_paid")
	case errors.Is(err, errs.ErrConflict):
		writeErr(w, http.StatusConflict, err.Error(), "conflict")
	case errors.Is(err, errs.ErrAmountMismatch):
		writeErr(w, http.StatusUnprocessableEntity, err.Error(), "amount_mismatch")
	case errors.Is(err, errs.ErrInvalidConversion):
		writeErr(w, http.StatusUnprocessableEntity, err.Error(), "invalid_conversion")
	case errors.Is(err, errs.ErrInvalidAccount):
		writeErr(w, http.StatusUnprocessableEntity, err.Error(), "invalid_account")
	case errors.Is(err, errs.ErrInvalid):
		writeErr(w, http.StatusBadRequest, err.Error(), "invalid_input")
	default:
		if errs.Retryable(err) {
			writeErr(w, http.StatusServiceUnavailable, "temporarily unavailable", "retryable")
			return
		}
		writeErr(w, http.StatusInternalServerError, "internal error", "internal")
	}
}
