package prorate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallbiznis/facture/internal/money"
)

func usd(value string) money.Money {
	m, err := money.FromString(value, "USD")
	if err != nil {
		panic(err)
	}
	return m
}

func freshLine() LineState {
	return LineState{
		Quantity:                10,
		OutstandingQuantity:     10,
		Amount:                  usd("10.00"),
		OutstandingAmount:       usd("120.00"),
		TotalAmount:             usd("120.00"),
		TotalExcludingTaxAmount: usd("100.00"),
		TotalTaxAmount:          usd("20.00"),
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestQuantityDrivenProration(t *testing.T) {
	result := Prorate(freshLine(), int64Ptr(5), nil)

	assert.True(t, result.Ratio.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, "5.00 USD", result.UnitAmount.String())
	assert.Equal(t, "50.00 USD", result.TotalExcludingTax.String())
	assert.Equal(t, "10.00 USD", result.TotalTax.String())
	assert.Equal(t, "60.00 USD", result.TotalAmount.String())
}

func TestAmountTakesPrecedenceOverQuantity(t *testing.T) {
	amount := usd("2.50")
	result := Prorate(freshLine(), int64Ptr(10), &amount)

	// 2.50 / 10.00 = 0.25, regardless of the requested quantity.
	assert.True(t, result.Ratio.Equal(decimal.RequireFromString("0.25")))
	assert.Equal(t, "30.00 USD", result.TotalAmount.String())
}

func TestDefaultsToOutstandingQuantity(t *testing.T) {
	line := freshLine()
	line.OutstandingQuantity = 4
	line.OutstandingAmount = usd("48.00")

	result := Prorate(line, nil, nil)
	assert.True(t, result.Ratio.Equal(decimal.RequireFromString("0.4")))
	assert.Equal(t, "48.00 USD", result.TotalAmount.String())
}

func TestRatioClampedToOutstandingAmount(t *testing.T) {
	line := freshLine()
	// Half the line was already credited.
	line.OutstandingAmount = usd("60.00")
	line.OutstandingQuantity = 5

	// Requesting the full quantity may only credit what remains.
	result := Prorate(line, int64Ptr(10), nil)
	assert.True(t, result.Ratio.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, "60.00 USD", result.TotalAmount.String())
}

func TestRatioClampedToUnitInterval(t *testing.T) {
	result := Prorate(freshLine(), int64Ptr(25), nil)
	assert.True(t, result.Ratio.Equal(decimal.NewFromInt(1)))

	result = Prorate(freshLine(), int64Ptr(-3), nil)
	assert.True(t, result.Ratio.IsZero())
	assert.True(t, result.TotalAmount.IsZero())
}

func TestZeroDenominatorsYieldZero(t *testing.T) {
	line := LineState{
		Quantity:                0,
		Amount:                  usd("0"),
		OutstandingAmount:       usd("0"),
		TotalAmount:             usd("0"),
		TotalExcludingTaxAmount: usd("0"),
		TotalTaxAmount:          usd("0"),
	}

	amount := usd("5.00")
	result := Prorate(line, nil, &amount)
	assert.True(t, result.Ratio.IsZero())

	result = Prorate(line, int64Ptr(3), nil)
	assert.True(t, result.Ratio.IsZero())
}

func TestFullCreditThenVoidRestoresOutstanding(t *testing.T) {
	line := freshLine()

	result := Prorate(line, int64Ptr(line.OutstandingQuantity), nil)
	require.True(t, result.Ratio.Equal(decimal.NewFromInt(1)))

	// Issue: outstanding drops to zero.
	line.OutstandingQuantity -= int64(result.Ratio.Mul(decimal.NewFromInt(line.Quantity)).IntPart())
	line.OutstandingAmount = line.OutstandingAmount.Sub(result.TotalAmount)
	assert.Equal(t, int64(0), line.OutstandingQuantity)
	assert.True(t, line.OutstandingAmount.IsZero())

	// Void: outstanding restores exactly.
	line.OutstandingQuantity += int64(result.Ratio.Mul(decimal.NewFromInt(line.Quantity)).IntPart())
	line.OutstandingAmount = line.OutstandingAmount.Add(result.TotalAmount)
	assert.Equal(t, int64(10), line.OutstandingQuantity)
	assert.True(t, line.OutstandingAmount.Equal(usd("120.00")))
}
