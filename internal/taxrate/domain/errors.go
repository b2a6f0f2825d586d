package domain

import "errors"

var (
	ErrInvalidID              = errors.New("invalid_id")
	ErrInvalidName            = errors.New("invalid_name")
	ErrInvalidCountry         = errors.New("invalid_country")
	ErrInvalidRate            = errors.New("invalid_rate")
	ErrInvalidTaxType         = errors.New("invalid_tax_type")
	ErrInvalidEffectiveWindow = errors.New("invalid_effective_window")
	ErrInvalidAmountBounds    = errors.New("invalid_amount_bounds")
	ErrNotFound               = errors.New("not_found")
)
