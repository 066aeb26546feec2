package domain

import "errors"

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidRateType     = errors.New("invalid_rate_type")
	ErrInvalidPercentage   = errors.New("invalid_percentage")
	ErrInvalidFixedAmount  = errors.New("invalid_fixed_amount")
	ErrInvalidCurrency     = errors.New("invalid_currency")
	ErrRateDisabled        = errors.New("tax_rate_disabled")
	ErrCurrencyMismatch    = errors.New("currency_mismatch")
	ErrMixedInclusion      = errors.New("mixed_tax_inclusion")
)
