// Package tiers computes totals and effective unit prices from ordered
// quantity brackets under the volume and graduated billing models.
package tiers

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/facture/internal/money"
)

// Mode selects how a quantity is billed across tiers.
type Mode string

const (
	// ModeVolume bills the entire quantity at the rate of the tier
	// containing the final unit.
	ModeVolume Mode = "VOLUME"
	// ModeGraduated bills each tier for the units falling inside it.
	ModeGraduated Mode = "GRADUATED"
)

// Tier is a single pricing bracket. A nil ToValue marks the bracket as
// unbounded; exactly one tier may be unbounded and it must be last.
type Tier struct {
	UnitAmount money.Money
	FromValue  int64
	ToValue    *int64
}

// Schedule is an ordered, contiguous set of tiers covering [0, inf).
type Schedule struct {
	Mode     Mode
	Currency string
	Tiers    []Tier
}

var (
	ErrTierOrder      = errors.New("tiers_not_contiguous")
	ErrTierUnbounded  = errors.New("last_tier_must_be_unbounded")
	ErrTierBounds     = errors.New("invalid_tier_bounds")
	ErrInvalidMode    = errors.New("invalid_tier_mode")
	ErrTierCurrency   = errors.New("tier_currency_mismatch")
	ErrNegativeAmount = errors.New("negative_unit_amount")
)

// Validate checks ordering, contiguity and the single-unbounded-last
// rule. The first tier must start at zero so the schedule covers every
// quantity.
func (s Schedule) Validate() error {
	if s.Mode != ModeVolume && s.Mode != ModeGraduated {
		return ErrInvalidMode
	}
	for i, tier := range s.Tiers {
		if tier.UnitAmount.Currency() != s.Currency {
			return ErrTierCurrency
		}
		if tier.UnitAmount.IsNegative() {
			return ErrNegativeAmount
		}
		if tier.FromValue < 0 {
			return ErrTierBounds
		}
		if tier.ToValue != nil && *tier.ToValue < tier.FromValue {
			return ErrTierBounds
		}
		if i == 0 {
			if tier.FromValue != 0 {
				return ErrTierOrder
			}
			continue
		}
		prev := s.Tiers[i-1]
		if prev.ToValue == nil {
			return ErrTierUnbounded
		}
		if tier.FromValue != *prev.ToValue+1 {
			return ErrTierOrder
		}
	}
	if len(s.Tiers) > 0 && s.Tiers[len(s.Tiers)-1].ToValue != nil {
		return ErrTierUnbounded
	}
	return nil
}

// CalculateAmount returns the total price for the quantity, rounded.
// Zero quantity or an empty schedule yields zero, never an error.
func (s Schedule) CalculateAmount(quantity int64) money.Money {
	if quantity <= 0 || len(s.Tiers) == 0 {
		return money.Zero(s.Currency)
	}

	switch s.Mode {
	case ModeVolume:
		tier := s.tierContaining(quantity)
		return tier.UnitAmount.Mul(decimal.NewFromInt(quantity)).Round()
	case ModeGraduated:
		total := money.Zero(s.Currency)
		for _, tier := range s.Tiers {
			units := unitsInTier(tier, quantity)
			if units <= 0 {
				break
			}
			total = total.Add(tier.UnitAmount.Mul(decimal.NewFromInt(units)))
		}
		return total.Round()
	default:
		return money.Zero(s.Currency)
	}
}

// CalculateUnitAmount returns the per-unit price for the quantity: the
// selected tier's rate under volume billing, the blended effective rate
// under graduated billing.
func (s Schedule) CalculateUnitAmount(quantity int64) money.Money {
	if quantity <= 0 || len(s.Tiers) == 0 {
		return money.Zero(s.Currency)
	}

	switch s.Mode {
	case ModeVolume:
		return s.tierContaining(quantity).UnitAmount.Round()
	case ModeGraduated:
		return s.CalculateAmount(quantity).Div(decimal.NewFromInt(quantity)).Round()
	default:
		return money.Zero(s.Currency)
	}
}

// tierContaining finds the bracket holding the given unit index by
// linear scan. The unbounded last tier always matches.
func (s Schedule) tierContaining(quantity int64) Tier {
	for _, tier := range s.Tiers {
		if tier.ToValue == nil || quantity <= *tier.ToValue {
			return tier
		}
	}
	return s.Tiers[len(s.Tiers)-1]
}

func unitsInTier(tier Tier, quantity int64) int64 {
	if quantity < tier.FromValue {
		return 0
	}
	upper := quantity
	if tier.ToValue != nil && *tier.ToValue < quantity {
		upper = *tier.ToValue
	}
	units := upper - tier.FromValue + 1
	// The [0, x] bracket spans x+1 indices but bills x units; unit
	// indices are 1-based while the first tier starts at zero.
	if tier.FromValue == 0 {
		units--
	}
	return units
}
