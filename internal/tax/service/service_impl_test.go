package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/facture/internal/orgcontext"
	taxdomain "github.com/smallbiznis/facture/internal/tax/domain"
	"github.com/smallbiznis/facture/internal/tax/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (taxdomain.Service, context.Context) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&taxdomain.TaxRate{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(serviceParams{
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.NewRepository(db),
	})

	ctx := orgcontext.WithOrgID(context.Background(), node.Generate().Int64())
	return svc, ctx
}

func createRate(t *testing.T, svc taxdomain.Service, ctx context.Context, req taxdomain.CreateRequest) string {
	t.Helper()
	resp, err := svc.Create(ctx, req)
	require.NoError(t, err)
	return resp.ID
}

func pct(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func TestCreate_Validation(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.Create(ctx, taxdomain.CreateRequest{Name: "", RateType: taxdomain.RateTypePercentage})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidName)

	_, err = svc.Create(ctx, taxdomain.CreateRequest{Name: "VAT", RateType: "BOGUS"})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidRateType)

	_, err = svc.Create(ctx, taxdomain.CreateRequest{Name: "VAT", RateType: taxdomain.RateTypePercentage, Percentage: pct("-0.1")})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidPercentage)

	fixedAmount := int64(500)
	_, err = svc.Create(ctx, taxdomain.CreateRequest{Name: "Levy", RateType: taxdomain.RateTypeFixed, FixedAmount: &fixedAmount})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidCurrency)

	_, err = svc.Create(context.Background(), taxdomain.CreateRequest{Name: "VAT", RateType: taxdomain.RateTypePercentage, Percentage: pct("0.2")})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidOrganization)
}

func TestCalculateInvoiceTaxes_Exclusive(t *testing.T) {
	svc, ctx := newTestService(t)

	vatID := createRate(t, svc, ctx, taxdomain.CreateRequest{
		Name:       "VAT 20%",
		RateType:   taxdomain.RateTypePercentage,
		Percentage: pct("0.2"),
	})

	resp, err := svc.CalculateInvoiceTaxes(ctx, taxdomain.CalculateInvoiceTaxesRequest{
		Currency:   "EUR",
		TaxRateIDs: []string{vatID},
		Lines: []taxdomain.TaxableLine{
			{LineID: "line-1", Amount: 10000},
			{LineID: "line-2", Amount: 5000},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(15000), resp.TotalTaxableAmount)
	assert.Equal(t, int64(15000), resp.TotalExcludingTaxes)
	assert.Equal(t, int64(3000), resp.TotalTaxAmount)
	require.Len(t, resp.Lines, 2)
	assert.Equal(t, int64(2000), resp.Lines[0].TaxAmount)
	assert.Equal(t, int64(1000), resp.Lines[1].TaxAmount)
}

func TestCalculateInvoiceTaxes_DiscountAllocation(t *testing.T) {
	svc, ctx := newTestService(t)

	vatID := createRate(t, svc, ctx, taxdomain.CreateRequest{
		Name:       "VAT 10%",
		RateType:   taxdomain.RateTypePercentage,
		Percentage: pct("0.1"),
	})

	// 10.00 discount over a 100.00 + 50.00 invoice leaves 140.00 taxable,
	// split 93.33 / 46.67 by the allocator.
	resp, err := svc.CalculateInvoiceTaxes(ctx, taxdomain.CalculateInvoiceTaxesRequest{
		Currency:       "USD",
		TaxRateIDs:     []string{vatID},
		DiscountAmount: 1000,
		Lines: []taxdomain.TaxableLine{
			{LineID: "line-1", Amount: 10000},
			{LineID: "line-2", Amount: 5000},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(14000), resp.TotalTaxableAmount)
	assert.Equal(t, int64(9333), resp.Lines[0].TaxableAmount)
	assert.Equal(t, int64(4667), resp.Lines[1].TaxableAmount)
	assert.Equal(t, resp.Lines[0].TaxAmount+resp.Lines[1].TaxAmount, resp.TotalTaxAmount)
}

func TestCalculateInvoiceTaxes_InclusiveGrossUp(t *testing.T) {
	svc, ctx := newTestService(t)

	vatID := createRate(t, svc, ctx, taxdomain.CreateRequest{
		Name:       "VAT 19% incl",
		RateType:   taxdomain.RateTypePercentage,
		Percentage: pct("0.19"),
		Inclusive:  true,
	})

	resp, err := svc.CalculateInvoiceTaxes(ctx, taxdomain.CalculateInvoiceTaxesRequest{
		Currency:   "EUR",
		TaxRateIDs: []string{vatID},
		Lines: []taxdomain.TaxableLine{
			{LineID: "line-1", Amount: 11900},
		},
	})
	require.NoError(t, err)

	// The gross 119.00 backs out to 100.00 net and 19.00 tax.
	assert.Equal(t, int64(11900), resp.TotalTaxableAmount)
	assert.Equal(t, int64(1900), resp.TotalTaxAmount)
	assert.Equal(t, int64(10000), resp.TotalExcludingTaxes)
}

func TestCalculateInvoiceTaxes_FixedRateAllocated(t *testing.T) {
	svc, ctx := newTestService(t)

	fixedAmount := int64(301)
	levyID := createRate(t, svc, ctx, taxdomain.CreateRequest{
		Name:        "Env levy",
		RateType:    taxdomain.RateTypeFixed,
		FixedAmount: &fixedAmount,
		Currency:    "USD",
	})

	resp, err := svc.CalculateInvoiceTaxes(ctx, taxdomain.CalculateInvoiceTaxesRequest{
		Currency:   "USD",
		TaxRateIDs: []string{levyID},
		Lines: []taxdomain.TaxableLine{
			{LineID: "line-1", Amount: 5000},
			{LineID: "line-2", Amount: 5000},
			{LineID: "line-3", Amount: 5000},
		},
	})
	require.NoError(t, err)

	// 3.01 split across three equal lines still sums to 3.01.
	assert.Equal(t, int64(301), resp.TotalTaxAmount)
}

func TestCalculateInvoiceTaxes_RateGuards(t *testing.T) {
	svc, ctx := newTestService(t)

	fixedAmount := int64(500)
	levyID := createRate(t, svc, ctx, taxdomain.CreateRequest{
		Name:        "Levy",
		RateType:    taxdomain.RateTypeFixed,
		FixedAmount: &fixedAmount,
		Currency:    "EUR",
	})

	_, err := svc.CalculateInvoiceTaxes(ctx, taxdomain.CalculateInvoiceTaxesRequest{
		Currency:   "USD",
		TaxRateIDs: []string{levyID},
		Lines:      []taxdomain.TaxableLine{{LineID: "line-1", Amount: 1000}},
	})
	assert.ErrorIs(t, err, taxdomain.ErrCurrencyMismatch)

	disabled, err := svc.Disable(ctx, levyID)
	require.NoError(t, err)
	assert.False(t, disabled.IsEnabled)

	_, err = svc.CalculateInvoiceTaxes(ctx, taxdomain.CalculateInvoiceTaxesRequest{
		Currency:   "EUR",
		TaxRateIDs: []string{levyID},
		Lines:      []taxdomain.TaxableLine{{LineID: "line-1", Amount: 1000}},
	})
	assert.ErrorIs(t, err, taxdomain.ErrRateDisabled)

	_, err = svc.CalculateInvoiceTaxes(ctx, taxdomain.CalculateInvoiceTaxesRequest{
		Currency:   "EUR",
		TaxRateIDs: []string{"not-a-snowflake"},
		Lines:      []taxdomain.TaxableLine{{LineID: "line-1", Amount: 1000}},
	})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidID)
}
