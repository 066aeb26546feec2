package domain

import "errors"

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidDocumentType = errors.New("invalid_document_type")
	ErrInvalidTemplate     = errors.New("invalid_template")
	ErrSystemDisabled      = errors.New("numbering_system_disabled")
)
