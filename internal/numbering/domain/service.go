package domain

import (
	"context"
	"time"
)

// Issuer is the slice of the numbering service that document services
// consume when assigning numbers.
type Issuer interface {
	NextNumber(ctx context.Context, req NextNumberRequest) (NextNumberResponse, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Disable(ctx context.Context, id string) (*Response, error)

	// NextNumber renders and records the next number for the system.
	NextNumber(ctx context.Context, req NextNumberRequest) (NextNumberResponse, error)
	// Preview renders the next number without recording it.
	Preview(ctx context.Context, req NextNumberRequest) (NextNumberResponse, error)
}

type ListRequest struct {
	DocumentType string
	IsEnabled    *bool
	SortBy       string
	OrderBy      string
}

type CreateRequest struct {
	Name          string       `json:"name"`
	DocumentType  DocumentType `json:"document_type"`
	Template      string       `json:"template"`
	ResetInterval string       `json:"reset_interval"`
	IsEnabled     *bool        `json:"is_enabled"`
}

type UpdateRequest struct {
	ID            string  `json:"id"`
	Name          *string `json:"name,omitempty"`
	Template      *string `json:"template,omitempty"`
	ResetInterval *string `json:"reset_interval,omitempty"`
}

type Response struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organization_id"`
	Name           string       `json:"name"`
	DocumentType   DocumentType `json:"document_type"`
	Template       string       `json:"template"`
	ResetInterval  string       `json:"reset_interval"`
	IsEnabled      bool         `json:"is_enabled"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type NextNumberRequest struct {
	SystemID    string     `json:"system_id"`
	EffectiveAt *time.Time `json:"effective_at,omitempty"`
}

type NextNumberResponse struct {
	Number      string    `json:"number"`
	Sequence    int64     `json:"sequence"`
	EffectiveAt time.Time `json:"effective_at"`
}
