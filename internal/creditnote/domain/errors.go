package domain

import "errors"

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrInvoiceNotFound     = errors.New("invoice_not_found")
	ErrInvoiceNotFinalized = errors.New("invoice_not_finalized")
	ErrMissingLines        = errors.New("missing_lines")
	ErrLineNotFound        = errors.New("invoice_line_not_found")
	ErrNothingOutstanding  = errors.New("nothing_outstanding")
	ErrOutstandingChanged  = errors.New("outstanding_changed")
	ErrNoteNotIssued       = errors.New("credit_note_not_issued")
)
