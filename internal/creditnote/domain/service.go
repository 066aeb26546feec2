package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	// Issue prorates the requested quantities or amounts against the
	// invoice's lines and decrements their outstanding columns.
	Issue(ctx context.Context, req IssueRequest) (*Response, error)
	// Void restores exactly what Issue removed.
	Void(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
}

// CreditLineInput requests a credit against one invoice line. Quantity
// and Amount are both optional; amount wins when both are set, and an
// empty request credits whatever remains outstanding.
type CreditLineInput struct {
	InvoiceLineID string `json:"invoice_line_id"`
	Quantity      *int64 `json:"quantity,omitempty"`
	Amount        *int64 `json:"amount,omitempty"`
}

type IssueRequest struct {
	InvoiceID         string            `json:"invoice_id"`
	NumberingSystemID *string           `json:"numbering_system_id,omitempty"`
	Reason            *string           `json:"reason,omitempty"`
	Lines             []CreditLineInput `json:"lines"`
}

type ListRequest struct {
	InvoiceID *string
	Status    *CreditNoteStatus
	SortBy    string
	OrderBy   string
}

type LineResponse struct {
	ID                      string          `json:"id"`
	InvoiceLineID           string          `json:"invoice_line_id"`
	Description             string          `json:"description"`
	CreditedQuantity        int64           `json:"credited_quantity"`
	Ratio                   decimal.Decimal `json:"ratio"`
	TotalExcludingTaxAmount int64           `json:"total_excluding_tax_amount"`
	TaxAmount               int64           `json:"tax_amount"`
	TotalAmount             int64           `json:"total_amount"`
}

type Response struct {
	ID                        string           `json:"id"`
	OrganizationID            string           `json:"organization_id"`
	InvoiceID                 string           `json:"invoice_id"`
	CustomerID                string           `json:"customer_id"`
	Number                    *string          `json:"number,omitempty"`
	Status                    CreditNoteStatus `json:"status"`
	Currency                  string           `json:"currency"`
	Reason                    *string          `json:"reason,omitempty"`
	TotalExcludingTaxesAmount int64            `json:"total_excluding_taxes_amount"`
	TaxesAmount               int64            `json:"taxes_amount"`
	TotalAmount               int64            `json:"total_amount"`
	Lines                     []LineResponse   `json:"lines"`
	IssuedAt                  *time.Time       `json:"issued_at,omitempty"`
	VoidedAt                  *time.Time       `json:"voided_at,omitempty"`
	CreatedAt                 time.Time        `json:"created_at"`
	UpdatedAt                 time.Time        `json:"updated_at"`
}
