// Package allocation splits a monetary total across weighted shares without
// rounding drift. Used wherever an invoice-level amount (discount, shipping
// tax) has to be spread across line items and still reconcile to the cent.
package allocation

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/facture/internal/money"
)

var centStep = decimal.New(1, -money.Precision)

// Allocate distributes total across bases proportionally using the
// largest-remainder method. The result has the same length and order as
// bases and sums exactly to the rounded total.
//
// Degenerate inputs (empty bases, non-positive total, non-positive base
// sum) are legitimate states and yield zero shares, never an error.
func Allocate(total money.Money, bases []money.Money) []money.Money {
	if len(bases) == 0 {
		return []money.Money{}
	}

	sum := money.Zero(total.Currency())
	for _, basis := range bases {
		sum = sum.Add(basis)
	}

	if !total.IsPositive() || !sum.IsPositive() {
		return zeroShares(total.Currency(), len(bases))
	}

	// First pass: independent round-half-up of each ideal share.
	raw := make([]decimal.Decimal, len(bases))
	shares := make([]money.Money, len(bases))
	allocated := money.Zero(total.Currency())
	for i, basis := range bases {
		share := total.Mul(basis.Amount().Div(sum.Amount()))
		raw[i] = share.Amount()
		shares[i] = share.Round()
		allocated = allocated.Add(shares[i])
	}

	remainder := total.Round().Sub(allocated).Round()
	if remainder.IsZero() {
		return shares
	}

	// Second pass: hand out the remainder one cent at a time, favoring
	// the shares with the largest rounding error.
	order := rankByRoundingError(raw, shares, remainder.IsPositive())
	step := money.New(centStep, total.Currency())
	if remainder.IsNegative() {
		step = step.Neg()
	}
	steps := remainder.Amount().Abs().Div(centStep).IntPart()
	for i := int64(0); i < steps; i++ {
		idx := order[i%int64(len(order))]
		shares[idx] = shares[idx].Add(step)
	}

	return shares
}

func rankByRoundingError(raw []decimal.Decimal, rounded []money.Money, descending bool) []int {
	order := make([]int, len(raw))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		errA := raw[order[a]].Sub(rounded[order[a]].Amount())
		errB := raw[order[b]].Sub(rounded[order[b]].Amount())
		if descending {
			return errA.GreaterThan(errB)
		}
		return errA.LessThan(errB)
	})
	return order
}

func zeroShares(currency string, n int) []money.Money {
	shares := make([]money.Money, n)
	for i := range shares {
		shares[i] = money.Zero(currency)
	}
	return shares
}
