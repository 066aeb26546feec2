// Package money provides an exact decimal amount tagged with a currency.
//
// All monetary math in the engine goes through this package. Values are
// immutable: every operation returns a new Money. Mixing currencies in a
// binary operation is a programming error and panics.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places every published amount is
// rounded to.
const Precision = 2

// Money is an exact decimal amount in a single ISO-4217 currency.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// New builds a Money from a decimal amount and a currency code.
func New(amount decimal.Decimal, currency string) Money {
	return Money{amount: amount, currency: normalizeCurrency(currency)}
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: normalizeCurrency(currency)}
}

// FromString parses a decimal string into a Money.
func FromString(value, currency string) (Money, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return New(amount, currency), nil
}

// FromCents builds a Money from an amount expressed in minor units.
func FromCents(cents int64, currency string) Money {
	return New(decimal.NewFromInt(cents).Shift(-Precision), currency)
}

// Amount returns the underlying decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the ISO currency code.
func (m Money) Currency() string { return m.currency }

// Add returns m + other. Panics on currency mismatch.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other, "add")
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}
}

// Sub returns m - other. Panics on currency mismatch.
func (m Money) Sub(other Money) Money {
	m.assertSameCurrency(other, "sub")
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}
}

// Mul scales the amount by a unitless factor, keeping the currency.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// Div divides the amount by a unitless divisor, keeping the currency.
// The result keeps full precision; callers round when publishing.
func (m Money) Div(divisor decimal.Decimal) Money {
	return Money{amount: m.amount.Div(divisor), currency: m.currency}
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Cmp compares two amounts. Panics on currency mismatch.
func (m Money) Cmp(other Money) int {
	m.assertSameCurrency(other, "cmp")
	return m.amount.Cmp(other.amount)
}

// Equal reports whether two values share currency and amount.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// Round rounds half-up to the published precision.
func (m Money) Round() Money {
	return Money{amount: m.amount.Round(Precision), currency: m.currency}
}

// Cents returns the rounded amount in minor units.
func (m Money) Cents() int64 {
	return m.Round().amount.Shift(Precision).IntPart()
}

// String renders the amount with its currency, e.g. "10.00 USD".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(Precision), m.currency)
}

func (m Money) assertSameCurrency(other Money, op string) {
	if m.currency != other.currency {
		panic(fmt.Sprintf("money: %s on mismatched currencies %s and %s", op, m.currency, other.currency))
	}
}

func normalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}
