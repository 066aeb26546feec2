package domain

import (
	"context"
	"time"
)

// Quoter is the slice of the pricing service that invoicing consumes.
type Quoter interface {
	Quote(ctx context.Context, req QuoteRequest) (QuoteResponse, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	Disable(ctx context.Context, id string) (*Response, error)

	// Quote prices a quantity against a price definition.
	Quote(ctx context.Context, req QuoteRequest) (QuoteResponse, error)
}

type ListRequest struct {
	Currency     string
	PricingModel string
	LookupKey    string
	IsEnabled    *bool
	SortBy       string
	OrderBy      string
}

type TierInput struct {
	FromValue  int64  `json:"from_value"`
	ToValue    *int64 `json:"to_value,omitempty"`
	UnitAmount int64  `json:"unit_amount"`
}

type CreateRequest struct {
	Name         string       `json:"name"`
	LookupKey    *string      `json:"lookup_key,omitempty"`
	Currency     string       `json:"currency"`
	PricingModel PricingModel `json:"pricing_model"`
	UnitAmount   *int64       `json:"unit_amount,omitempty"`
	Tiers        []TierInput  `json:"tiers,omitempty"`
}

type TierResponse struct {
	FromValue  int64  `json:"from_value"`
	ToValue    *int64 `json:"to_value,omitempty"`
	UnitAmount int64  `json:"unit_amount"`
}

type Response struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	Name           string         `json:"name"`
	LookupKey      *string        `json:"lookup_key,omitempty"`
	Currency       string         `json:"currency"`
	PricingModel   PricingModel   `json:"pricing_model"`
	UnitAmount     int64          `json:"unit_amount"`
	Tiers          []TierResponse `json:"tiers,omitempty"`
	IsEnabled      bool           `json:"is_enabled"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type QuoteRequest struct {
	PriceID  string `json:"price_id"`
	Quantity int64  `json:"quantity"`
}

type QuoteResponse struct {
	PriceID      string       `json:"price_id"`
	PricingModel PricingModel `json:"pricing_model"`
	Currency     string       `json:"currency"`
	Quantity     int64        `json:"quantity"`
	UnitAmount   int64        `json:"unit_amount"`
	TotalAmount  int64        `json:"total_amount"`
}
