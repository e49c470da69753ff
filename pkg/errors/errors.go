// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Domain errors. Each maps to a stable machine-readable code at the HTTP
// layer so the admin console can render kind-specific UI instead of a
// generic failure banner.
var (
	// Pricing errors
	ErrNoTierForQuantity = errors.New("no pricing tier covers the requested quantity")
	ErrInvalidPrice      = errors.New("tier price must be greater than zero")

	// Exchange rate errors
	ErrInvalidRate         = errors.New("exchange rate must be greater than zero")
	ErrRateNotConfigured   = errors.New("exchange rate not configured for currency")
	ErrLiveRateUnavailable = errors.New("live market rate unavailable")

	// Inventory errors
	ErrInsufficientInventory = errors.New("insufficient unassigned credentials for tier")
	ErrNotAssigned           = errors.New("credential is not assigned")
	ErrCredentialNotFound    = errors.New("credential not found")

	// Ledger errors
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrUnsupportedForChannel = errors.New("operation not supported for this channel")

	// Order errors
	ErrOrderNotFound = errors.New("order not found")

	// Request handling errors
	ErrDuplicateRequest = errors.New("duplicate request")
)

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
