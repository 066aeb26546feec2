// Package domain contains price models and pricing contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PricingModel selects how quantity maps to an amount.
type PricingModel string

const (
	PricingModelFlat            PricingModel = "FLAT"
	PricingModelPerUnit         PricingModel = "PER_UNIT"
	PricingModelTieredVolume    PricingModel = "TIERED_VOLUME"
	PricingModelTieredGraduated PricingModel = "TIERED_GRADUATED"
)

// Price is an org-scoped price definition. UnitAmount is in minor units
// and only meaningful for the flat and per-unit models; tiered prices
// carry their rates on PriceTier rows.
type Price struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"column:org_id;not null;index;uniqueIndex:ux_prices_org_lookup_key"`

	Name         string       `gorm:"type:text;not null"`
	LookupKey    *string      `gorm:"column:lookup_key;type:text;uniqueIndex:ux_prices_org_lookup_key"`
	Currency     string       `gorm:"type:text;not null"`
	PricingModel PricingModel `gorm:"column:pricing_model;type:text;not null"`
	UnitAmount   int64        `gorm:"column:unit_amount;not null;default:0"`

	IsEnabled bool              `gorm:"column:is_enabled;not null;default:true"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`

	Tiers []PriceTier `gorm:"foreignKey:PriceID"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Price) TableName() string { return "prices" }

// PriceTier is one quantity bracket of a tiered price.
type PriceTier struct {
	ID      snowflake.ID `gorm:"primaryKey"`
	OrgID   snowflake.ID `gorm:"column:org_id;not null;index"`
	PriceID snowflake.ID `gorm:"column:price_id;not null;index"`

	FromValue  int64  `gorm:"column:from_value;not null"`
	ToValue    *int64 `gorm:"column:to_value"`
	UnitAmount int64  `gorm:"column:unit_amount;not null"`
	Position   int    `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PriceTier) TableName() string { return "price_tiers" }
