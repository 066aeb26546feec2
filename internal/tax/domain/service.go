package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Calculator is the slice of the tax service that invoicing consumes.
type Calculator interface {
	CalculateInvoiceTaxes(ctx context.Context, req CalculateInvoiceTaxesRequest) (CalculateInvoiceTaxesResponse, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Disable(ctx context.Context, id string) (*Response, error)

	CalculateInvoiceTaxes(ctx context.Context, req CalculateInvoiceTaxesRequest) (CalculateInvoiceTaxesResponse, error)
}

type ListRequest struct {
	Name      string
	IsEnabled *bool
	SortBy    string
	OrderBy   string
}

type CreateRequest struct {
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	RateType    RateType         `json:"rate_type"`
	Percentage  *decimal.Decimal `json:"percentage"`
	FixedAmount *int64           `json:"fixed_amount"`
	Currency    string           `json:"currency"`
	Inclusive   bool             `json:"inclusive"`
	IsEnabled   *bool            `json:"is_enabled"`
}

type UpdateRequest struct {
	ID          string           `json:"id"`
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Percentage  *decimal.Decimal `json:"percentage,omitempty"`
	FixedAmount *int64           `json:"fixed_amount,omitempty"`
}

type Response struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	Name           string          `json:"name"`
	Description    *string         `json:"description,omitempty"`
	RateType       RateType        `json:"rate_type"`
	Percentage     decimal.Decimal `json:"percentage"`
	FixedAmount    int64           `json:"fixed_amount"`
	Currency       string          `json:"currency,omitempty"`
	Inclusive      bool            `json:"inclusive"`
	IsEnabled      bool            `json:"is_enabled"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TaxableLine is one invoice line entering the tax calculation.
// Amount is the line total in minor units, before any invoice-level
// discount is applied.
type TaxableLine struct {
	LineID string `json:"line_id"`
	Amount int64  `json:"amount"`
}

type CalculateInvoiceTaxesRequest struct {
	Currency       string        `json:"currency"`
	TaxRateIDs     []string      `json:"tax_rate_ids"`
	Lines          []TaxableLine `json:"lines"`
	DiscountAmount int64         `json:"discount_amount"`
}

// LineTax is the amount one rate contributes on one line.
type LineTax struct {
	TaxRateID  string          `json:"tax_rate_id"`
	Name       string          `json:"name"`
	Percentage decimal.Decimal `json:"percentage"`
	Amount     int64           `json:"amount"`
}

type TaxedLine struct {
	LineID        string    `json:"line_id"`
	TaxableAmount int64     `json:"taxable_amount"`
	TaxAmount     int64     `json:"tax_amount"`
	Taxes         []LineTax `json:"taxes"`
}

type CalculateInvoiceTaxesResponse struct {
	Currency            string      `json:"currency"`
	Lines               []TaxedLine `json:"lines"`
	TotalTaxableAmount  int64       `json:"total_taxable_amount"`
	TotalTaxAmount      int64       `json:"total_tax_amount"`
	TotalExcludingTaxes int64       `json:"total_excluding_taxes"`
}
