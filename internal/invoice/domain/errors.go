package domain

import "errors"

var (
	ErrNotFound              = errors.New("invoice_not_found")
	ErrInvalidID             = errors.New("invalid_invoice_id")
	ErrMissingCustomer       = errors.New("missing_customer")
	ErrMissingLineItems      = errors.New("missing_line_items")
	ErrInvalidCurrency       = errors.New("invalid_currency")
	ErrInvalidLineItem       = errors.New("invalid_line_item")
	ErrInvalidTaxableAmount  = errors.New("taxable_amount_exceeds_line_amount")
	ErrInvalidPaymentAmount  = errors.New("invalid_payment_amount")
	ErrPaymentExceedsBalance = errors.New("payment_exceeds_balance")

	// State transition guards. These map to conflicts at the edge.
	ErrNotDraft     = errors.New("invoice_not_draft")
	ErrNotOpen      = errors.New("invoice_not_open")
	ErrAlreadyPaid  = errors.New("invoice_already_paid")
	ErrAlreadyVoid  = errors.New("invoice_already_void")
	ErrVoidRequired = errors.New("void_reason_required")
)

// IsStateError reports whether err is a lifecycle transition violation.
func IsStateError(err error) bool {
	switch {
	case errors.Is(err, ErrNotDraft),
		errors.Is(err, ErrNotOpen),
		errors.Is(err, ErrAlreadyPaid),
		errors.Is(err, ErrAlreadyVoid):
		return true
	}
	return false
}
