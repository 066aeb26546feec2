package domain

import "errors"

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidCurrency     = errors.New("invalid_currency")
	ErrInvalidModel        = errors.New("invalid_pricing_model")
	ErrInvalidUnitAmount   = errors.New("invalid_unit_amount")
	ErrMissingTiers        = errors.New("missing_tiers")
	ErrUnexpectedTiers     = errors.New("unexpected_tiers")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrDuplicateLookupKey  = errors.New("duplicate_lookup_key")
	ErrPriceDisabled       = errors.New("price_disabled")
)
