// Package domain contains tax rate definitions and calculation contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// RateType represents how a tax rate produces its amount.
type RateType string

const (
	RateTypePercentage RateType = "PERCENTAGE"
	RateTypeFixed      RateType = "FIXED"
)

// TaxRate is an org-scoped tax rate definition.
// Percentage rates carry a fraction (0.2000 for 20%); fixed rates carry
// an absolute amount in minor units plus its currency.
type TaxRate struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"column:org_id;not null;index"`

	Name        string  `gorm:"type:text;not null"`
	Description *string `gorm:"type:text"`

	RateType    RateType        `gorm:"column:rate_type;type:text;not null"`
	Percentage  decimal.Decimal `gorm:"type:numeric(10,6);not null;default:0"`
	FixedAmount int64           `gorm:"column:fixed_amount;not null;default:0"`
	Currency    string          `gorm:"type:text;not null;default:''"`

	// Inclusive rates are already contained in line amounts and are
	// backed out of the gross; exclusive rates are added on top.
	Inclusive bool `gorm:"not null;default:false"`

	IsEnabled bool              `gorm:"column:is_enabled;not null;default:true"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TaxRate) TableName() string { return "tax_rates" }

func (t *TaxRate) Validate() error {
	if t.Name == "" {
		return ErrInvalidName
	}
	switch t.RateType {
	case RateTypePercentage:
		if t.Percentage.IsNegative() {
			return ErrInvalidPercentage
		}
	case RateTypeFixed:
		if t.FixedAmount < 0 {
			return ErrInvalidFixedAmount
		}
		if t.Currency == "" {
			return ErrInvalidCurrency
		}
	default:
		return ErrInvalidRateType
	}
	return nil
}
