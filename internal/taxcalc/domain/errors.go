package domain

import (
	"errors"
	"fmt"
)

// Validation errors, raised before any provider call.
var (
	ErrMissingCustomer   = errors.New("missing_customer_id")
	ErrMissingLineItems  = errors.New("missing_line_items")
	ErrMissingCountry    = errors.New("missing_billing_country")
	ErrMissingCity       = errors.New("missing_billing_city")
	ErrMissingPostalCode = errors.New("missing_billing_postal_code")
	ErrMissingCurrency   = errors.New("missing_currency")
)

var (
	ErrProviderNotFound = errors.New("provider_not_found")
	ErrInvalidResponse  = errors.New("invalid_provider_response")
)

// IsValidationError reports whether err is a pre-provider request error.
func IsValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrMissingCustomer),
		errors.Is(err, ErrMissingLineItems),
		errors.Is(err, ErrMissingCountry),
		errors.Is(err, ErrMissingCity),
		errors.Is(err, ErrMissingPostalCode),
		errors.Is(err, ErrMissingCurrency):
		return true
	default:
		return false
	}
}

// ProviderError wraps an external provider call failure with the
// provider name. The invoice is left untouched; the caller may retry
// or fall back to the manual provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("tax provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err unless it already is a ProviderError.
func NewProviderError(provider string, err error) error {
	var existing *ProviderError
	if errors.As(err, &existing) {
		return err
	}
	return &ProviderError{Provider: provider, Err: err}
}
