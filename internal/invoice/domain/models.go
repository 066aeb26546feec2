// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusFinalized InvoiceStatus = "FINALIZED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusVoid      InvoiceStatus = "VOID"
)

// Invoice is an org-scoped invoice. Monetary columns are minor units and
// only populated at finalization; drafts carry line amounts only.
type Invoice struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	OrgID      snowflake.ID `gorm:"column:org_id;not null;index"`
	CustomerID snowflake.ID `gorm:"column:customer_id;not null;index"`

	NumberingSystemID *snowflake.ID `gorm:"column:numbering_system_id;index"`
	InvoiceNumber     *string       `gorm:"column:invoice_number;type:text;index"`

	Status   InvoiceStatus `gorm:"type:text;not null;default:'DRAFT'"`
	Currency string        `gorm:"type:text;not null"`

	TaxRateIDs     datatypes.JSONSlice[string] `gorm:"column:tax_rate_ids"`
	DiscountAmount int64                       `gorm:"column:discount_amount;not null;default:0"`

	SubtotalAmount            int64 `gorm:"column:subtotal_amount;not null;default:0"`
	TaxesAmount               int64 `gorm:"column:taxes_amount;not null;default:0"`
	TotalExcludingTaxesAmount int64 `gorm:"column:total_excluding_taxes_amount;not null;default:0"`
	TotalAmount               int64 `gorm:"column:total_amount;not null;default:0"`

	Metadata datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`

	Lines []InvoiceLine `gorm:"foreignKey:InvoiceID"`

	IssuedAt    *time.Time `gorm:""`
	FinalizedAt *time.Time `gorm:""`
	VoidedAt    *time.Time `gorm:""`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceLine is one line on an invoice. The outstanding columns track
// what has not yet been credited and are the inputs to credit-note
// proration.
type InvoiceLine struct {
	ID        snowflake.ID  `gorm:"primaryKey"`
	OrgID     snowflake.ID  `gorm:"column:org_id;not null;index"`
	InvoiceID snowflake.ID  `gorm:"column:invoice_id;not null;index"`
	PriceID   *snowflake.ID `gorm:"column:price_id;index"`

	Description string `gorm:"type:text"`
	Quantity    int64  `gorm:"not null"`
	UnitAmount  int64  `gorm:"column:unit_amount;not null"`
	Amount      int64  `gorm:"not null"`

	TaxableAmount           int64 `gorm:"column:taxable_amount;not null;default:0"`
	TaxAmount               int64 `gorm:"column:tax_amount;not null;default:0"`
	TotalExcludingTaxAmount int64 `gorm:"column:total_excluding_tax_amount;not null;default:0"`
	TotalAmount             int64 `gorm:"column:total_amount;not null;default:0"`

	OutstandingQuantity int64 `gorm:"column:outstanding_quantity;not null;default:0"`
	OutstandingAmount   int64 `gorm:"column:outstanding_amount;not null;default:0"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InvoiceLine) TableName() string { return "invoice_lines" }
