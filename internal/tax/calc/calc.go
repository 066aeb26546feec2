// Package calc computes per-rate tax amounts against a monetary base.
package calc

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/facture/internal/money"
)

// Rate is anything that can compute its own tax amount against a base.
// Concrete variants cover percentage rates and fixed-amount coupons.
type Rate interface {
	CalculateAmount(base money.Money) money.Money
}

// PercentageRate charges a fraction of the base, e.g. 0.2 for 20% VAT.
type PercentageRate struct {
	Fraction decimal.Decimal
}

func (r PercentageRate) CalculateAmount(base money.Money) money.Money {
	return base.Mul(r.Fraction).Round()
}

// FixedRate charges a flat amount regardless of the base.
type FixedRate struct {
	Amount money.Money
}

func (r FixedRate) CalculateAmount(base money.Money) money.Money {
	return r.Amount.Round()
}

// CalculateTaxAmounts returns one rounded amount per rate, in input order.
//
// When taxMultiplier > 1 the base already had tax baked in (inclusive
// mode) and the amounts are adjusted so they sum to
// max(taxableAmount - baseAmount, 0). The last rate absorbs the rounding
// delta; it is floored at zero so a correction never produces a negative
// tax line.
func CalculateTaxAmounts(baseAmount, taxableAmount money.Money, taxMultiplier decimal.Decimal, rates []Rate) []money.Money {
	if len(rates) == 0 {
		return []money.Money{}
	}

	amounts := make([]money.Money, len(rates))
	sum := money.Zero(baseAmount.Currency())
	for i, rate := range rates {
		amounts[i] = rate.CalculateAmount(baseAmount)
		sum = sum.Add(amounts[i])
	}

	if taxMultiplier.LessThanOrEqual(decimal.NewFromInt(1)) {
		return amounts
	}

	target := taxableAmount.Sub(baseAmount)
	if target.IsNegative() {
		target = money.Zero(baseAmount.Currency())
	}

	last := len(amounts) - 1
	adjusted := amounts[last].Add(target.Sub(sum)).Round()
	if adjusted.IsNegative() {
		adjusted = money.Zero(baseAmount.Currency())
	}
	amounts[last] = adjusted

	return amounts
}
