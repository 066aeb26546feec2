// Package prorate computes how much of an invoice line's outstanding
// quantity and amount moves onto a credit-note line.
//
// The package only computes deltas; decrementing the source line's
// outstanding columns is the caller's job, inside its own transaction.
package prorate

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/facture/internal/money"
)

// LineState is a snapshot of an invoice line's current outstanding state.
type LineState struct {
	Quantity            int64
	OutstandingQuantity int64

	Amount                  money.Money
	OutstandingAmount       money.Money
	TotalAmount             money.Money
	TotalExcludingTaxAmount money.Money
	TotalTaxAmount          money.Money
}

// Result carries the prorated amounts for the new credit-note line.
type Result struct {
	UnitAmount        money.Money
	TotalExcludingTax money.Money
	TotalTax          money.Money
	TotalAmount       money.Money
	Ratio             decimal.Decimal
}

var one = decimal.NewFromInt(1)

// Prorate resolves the requested quantity or amount into a credit ratio
// and scales every monetary component of the line by it.
//
// When both are given, amount drives the ratio. The ratio is clamped to
// [0, 1] and further capped by the line's outstanding fractions so a
// credit never exceeds what remains outstanding, even under repeated
// partial credits.
func Prorate(state LineState, quantity *int64, amount *money.Money) Result {
	ratio := resolveRatio(state, quantity, amount)

	if ratio.IsNegative() {
		ratio = decimal.Zero
	}
	if ratio.GreaterThan(one) {
		ratio = one
	}

	if !state.TotalAmount.IsZero() {
		outstandingFraction := state.OutstandingAmount.Amount().Div(state.TotalAmount.Amount())
		if ratio.GreaterThan(outstandingFraction) {
			ratio = outstandingFraction
		}
	}
	if state.Quantity > 0 {
		quantityFraction := decimal.NewFromInt(state.OutstandingQuantity).Div(decimal.NewFromInt(state.Quantity))
		if ratio.GreaterThan(quantityFraction) {
			ratio = quantityFraction
		}
	}

	return Result{
		UnitAmount:        state.Amount.Mul(ratio).Round(),
		TotalExcludingTax: state.TotalExcludingTaxAmount.Mul(ratio).Round(),
		TotalTax:          state.TotalTaxAmount.Mul(ratio).Round(),
		TotalAmount:       state.TotalAmount.Mul(ratio).Round(),
		Ratio:             ratio,
	}
}

func resolveRatio(state LineState, quantity *int64, amount *money.Money) decimal.Decimal {
	if amount != nil {
		if state.Amount.IsZero() {
			return decimal.Zero
		}
		return amount.Amount().Div(state.Amount.Amount())
	}

	requested := state.OutstandingQuantity
	if quantity != nil {
		requested = *quantity
	} else if requested == 0 {
		// Outstanding tracking unset: fall back to the full line.
		requested = state.Quantity
	}

	if state.Quantity == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(requested).Div(decimal.NewFromInt(state.Quantity))
}
