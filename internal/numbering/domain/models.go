// Package domain contains numbering system models and contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/facture/internal/numbering/format"
	"gorm.io/datatypes"
)

// DocumentType scopes a numbering system to one document family.
type DocumentType string

const (
	DocumentTypeInvoice    DocumentType = "INVOICE"
	DocumentTypeCreditNote DocumentType = "CREDIT_NOTE"
)

// NumberingSystem is an org-scoped document number sequence.
type NumberingSystem struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"column:org_id;not null;index"`

	Name          string               `gorm:"type:text;not null"`
	DocumentType  DocumentType         `gorm:"column:document_type;type:text;not null"`
	Template      string               `gorm:"type:text;not null"`
	ResetInterval format.ResetInterval `gorm:"column:reset_interval;type:text;not null;default:'NEVER'"`

	IsEnabled bool              `gorm:"column:is_enabled;not null;default:true"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (NumberingSystem) TableName() string { return "numbering_systems" }

// IssuedNumber is one number handed out by a system. Counting these
// rows inside the system's reset window yields the next sequence value.
type IssuedNumber struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	OrgID    snowflake.ID `gorm:"column:org_id;not null;index"`
	SystemID snowflake.ID `gorm:"column:system_id;not null;index:ix_issued_numbers_system_effective"`

	Number      string    `gorm:"type:text;not null"`
	Sequence    int64     `gorm:"not null"`
	EffectiveAt time.Time `gorm:"column:effective_at;not null;index:ix_issued_numbers_system_effective"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (IssuedNumber) TableName() string { return "issued_numbers" }
