// Package domain contains credit note models and contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// CreditNoteStatus represents credit note lifecycle states.
type CreditNoteStatus string

const (
	CreditNoteStatusIssued CreditNoteStatus = "ISSUED"
	CreditNoteStatusVoid   CreditNoteStatus = "VOID"
)

// CreditNote credits part or all of a finalized invoice.
type CreditNote struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	OrgID      snowflake.ID `gorm:"column:org_id;not null;index"`
	InvoiceID  snowflake.ID `gorm:"column:invoice_id;not null;index"`
	CustomerID snowflake.ID `gorm:"column:customer_id;not null;index"`

	NumberingSystemID *snowflake.ID `gorm:"column:numbering_system_id;index"`
	Number            *string       `gorm:"type:text;index"`

	Status   CreditNoteStatus `gorm:"type:text;not null;default:'ISSUED'"`
	Currency string           `gorm:"type:text;not null"`
	Reason   *string          `gorm:"type:text"`

	TotalExcludingTaxesAmount int64 `gorm:"column:total_excluding_taxes_amount;not null;default:0"`
	TaxesAmount               int64 `gorm:"column:taxes_amount;not null;default:0"`
	TotalAmount               int64 `gorm:"column:total_amount;not null;default:0"`

	Metadata datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`

	Lines []CreditNoteLine `gorm:"foreignKey:CreditNoteID"`

	IssuedAt  *time.Time `gorm:""`
	VoidedAt  *time.Time `gorm:""`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CreditNote) TableName() string { return "credit_notes" }

// CreditNoteLine records what one invoice line gave up: the credited
// quantity and amounts are the exact values removed from the line's
// outstanding columns, so voiding the note can restore them.
type CreditNoteLine struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	OrgID         snowflake.ID `gorm:"column:org_id;not null;index"`
	CreditNoteID  snowflake.ID `gorm:"column:credit_note_id;not null;index"`
	InvoiceLineID snowflake.ID `gorm:"column:invoice_line_id;not null;index"`

	Description      string          `gorm:"type:text"`
	CreditedQuantity int64           `gorm:"column:credited_quantity;not null"`
	Ratio            decimal.Decimal `gorm:"type:numeric(12,10);not null"`

	TotalExcludingTaxAmount int64 `gorm:"column:total_excluding_tax_amount;not null"`
	TaxAmount               int64 `gorm:"column:tax_amount;not null"`
	TotalAmount             int64 `gorm:"column:total_amount;not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CreditNoteLine) TableName() string { return "credit_note_lines" }
