package domain

import "errors"

var (
	ErrInvalidOrganization    = errors.New("invalid_organization")
	ErrInvalidID              = errors.New("invalid_id")
	ErrNotFound               = errors.New("not_found")
	ErrInvalidCustomer        = errors.New("invalid_customer")
	ErrInvalidCurrency        = errors.New("invalid_currency")
	ErrMissingLines           = errors.New("missing_lines")
	ErrInvalidLine            = errors.New("invalid_line")
	ErrInvoiceNotDraft        = errors.New("invoice_not_draft")
	ErrInvoiceNotFinalized    = errors.New("invoice_not_finalized")
	ErrMissingNumberingSystem = errors.New("missing_numbering_system")
)
