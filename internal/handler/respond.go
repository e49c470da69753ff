// Package handler provides the admin HTTP handlers for the proxy desk.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "proxydesk/pkg/errors"
)

// statusForError maps domain errors to an HTTP status and a stable
// machine-readable code the console switches UI on.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, pkgerrors.ErrNoTierForQuantity):
		return http.StatusNotFound, "no_tier_for_quantity"
	case errors.Is(err, pkgerrors.ErrInvalidPrice):
		return http.StatusBadRequest, "invalid_price"
	case errors.Is(err, pkgerrors.ErrInvalidRate):
		return http.StatusBadRequest, "invalid_rate"
	case errors.Is(err, pkgerrors.ErrRateNotConfigured):
		return http.StatusNotFound, "rate_not_configured"
	case errors.Is(err, pkgerrors.ErrLiveRateUnavailable):
		return http.StatusServiceUnavailable, "live_rate_unavailable"
	case errors.Is(err, pkgerrors.ErrInsufficientInventory):
		return http.StatusConflict, "insufficient_inventory"
	case errors.Is(err, pkgerrors.ErrNotAssigned):
		return http.StatusConflict, "not_assigned"
	case errors.Is(err, pkgerrors.ErrCredentialNotFound):
		return http.StatusNotFound, "credential_not_found"
	case errors.Is(err, pkgerrors.ErrTransactionNotFound):
		return http.StatusNotFound, "transaction_not_found"
	case errors.Is(err, pkgerrors.ErrOrderNotFound):
		return http.StatusNotFound, "order_not_found"
	case errors.Is(err, pkgerrors.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, pkgerrors.ErrUnsupportedForChannel):
		return http.StatusUnprocessableEntity, "unsupported_for_channel"
	}
	return http.StatusInternalServerError, "internal_error"
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		_, _ = w.Write([]byte(`{"error":"response encoding failed"}`))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError renders a known domain error with its code; unknown
// errors collapse to a generic 500 so internals never leak to the console.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	respondJSON(w, status, map[string]string{"error": message, "code": code})
}

func respondValidationErrors(w http.ResponseWriter, errs map[string]string) {
	respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":             "Validation failed",
		"validation_errors": errs,
	})
}
