package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/facture/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (*Response, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(ctx context.Context, id string) (*Response, error)

	// Finalize computes totals, allocates the invoice-level discount and
	// taxes across lines, assigns the invoice number and opens the
	// outstanding columns for crediting.
	Finalize(ctx context.Context, id string) (*Response, error)
	Void(ctx context.Context, id string, reason string) (*Response, error)
}

type LineInput struct {
	Description string  `json:"description"`
	Quantity    int64   `json:"quantity"`
	UnitAmount  *int64  `json:"unit_amount,omitempty"`
	PriceID     *string `json:"price_id,omitempty"`
}

type CreateInvoiceRequest struct {
	CustomerID        string      `json:"customer_id"`
	Currency          string      `json:"currency"`
	NumberingSystemID *string     `json:"numbering_system_id,omitempty"`
	TaxRateIDs        []string    `json:"tax_rate_ids,omitempty"`
	DiscountAmount    int64       `json:"discount_amount"`
	Lines             []LineInput `json:"lines"`
}

type ListInvoiceRequest struct {
	Status        *InvoiceStatus
	CustomerID    *string
	InvoiceNumber *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	SortBy        string
	OrderBy       string
	PageToken     string
	PageSize      int32
}

type ListInvoiceResponse struct {
	Invoices []Response          `json:"invoices"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type LineResponse struct {
	ID                      string  `json:"id"`
	PriceID                 *string `json:"price_id,omitempty"`
	Description             string  `json:"description"`
	Quantity                int64   `json:"quantity"`
	UnitAmount              int64   `json:"unit_amount"`
	Amount                  int64   `json:"amount"`
	TaxableAmount           int64   `json:"taxable_amount"`
	TaxAmount               int64   `json:"tax_amount"`
	TotalExcludingTaxAmount int64   `json:"total_excluding_tax_amount"`
	TotalAmount             int64   `json:"total_amount"`
	OutstandingQuantity     int64   `json:"outstanding_quantity"`
	OutstandingAmount       int64   `json:"outstanding_amount"`
}

type Response struct {
	ID                        string         `json:"id"`
	OrganizationID            string         `json:"organization_id"`
	CustomerID                string         `json:"customer_id"`
	NumberingSystemID         *string        `json:"numbering_system_id,omitempty"`
	InvoiceNumber             *string        `json:"invoice_number,omitempty"`
	Status                    InvoiceStatus  `json:"status"`
	Currency                  string         `json:"currency"`
	TaxRateIDs                []string       `json:"tax_rate_ids,omitempty"`
	DiscountAmount            int64          `json:"discount_amount"`
	SubtotalAmount            int64          `json:"subtotal_amount"`
	TaxesAmount               int64          `json:"taxes_amount"`
	TotalExcludingTaxesAmount int64          `json:"total_excluding_taxes_amount"`
	TotalAmount               int64          `json:"total_amount"`
	Lines                     []LineResponse `json:"lines"`
	IssuedAt                  *time.Time     `json:"issued_at,omitempty"`
	FinalizedAt               *time.Time     `json:"finalized_at,omitempty"`
	VoidedAt                  *time.Time     `json:"voided_at,omitempty"`
	CreatedAt                 time.Time      `json:"created_at"`
	UpdatedAt                 time.Time      `json:"updated_at"`
}
