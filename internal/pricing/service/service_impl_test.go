package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/facture/internal/orgcontext"
	pricingdomain "github.com/smallbiznis/facture/internal/pricing/domain"
	"github.com/smallbiznis/facture/internal/pricing/repository"
	"github.com/smallbiznis/facture/internal/pricing/tiers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (pricingdomain.Service, context.Context) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&pricingdomain.Price{},
		&pricingdomain.PriceTier{},
	))

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

func int64Ptr(v int64) *int64 { return &v }

func TestCreate_Validation(t *testing.T) {
	svc, ctx := newTestService(t)

	unit := int64(1000)
	_, err := svc.Create(ctx, pricingdomain.CreateRequest{
		Name:         "Per seat",
		Currency:     "usd",
		PricingModel: pricingdomain.PricingModelPerUnit,
		UnitAmount:   &unit,
		Tiers:        []pricingdomain.TierInput{{FromValue: 0, UnitAmount: 1}},
	})
	assert.ErrorIs(t, err, pricingdomain.ErrUnexpectedTiers)

	_, err = svc.Create(ctx, pricingdomain.CreateRequest{
		Name:         "Tiered",
		Currency:     "USD",
		PricingModel: pricingdomain.PricingModelTieredVolume,
	})
	assert.ErrorIs(t, err, pricingdomain.ErrMissingTiers)

	// Gap between brackets.
	_, err = svc.Create(ctx, pricingdomain.CreateRequest{
		Name:         "Tiered",
		Currency:     "USD",
		PricingModel: pricingdomain.PricingModelTieredVolume,
		Tiers: []pricingdomain.TierInput{
			{FromValue: 0, ToValue: int64Ptr(10), UnitAmount: 1000},
			{FromValue: 12, UnitAmount: 800},
		},
	})
	assert.ErrorIs(t, err, tiers.ErrTierOrder)

	// Bounded last bracket.
	_, err = svc.Create(ctx, pricingdomain.CreateRequest{
		Name:         "Tiered",
		Currency:     "USD",
		PricingModel: pricingdomain.PricingModelTieredVolume,
		Tiers: []pricingdomain.TierInput{
			{FromValue: 0, ToValue: int64Ptr(10), UnitAmount: 1000},
		},
	})
	assert.ErrorIs(t, err, tiers.ErrTierUnbounded)
}

func TestQuote_PerUnitAndFlat(t *testing.T) {
	svc, ctx := newTestService(t)

	unit := int64(250)
	perUnit, err := svc.Create(ctx, pricingdomain.CreateRequest{
		Name:         "Per seat",
		Currency:     "USD",
		PricingModel: pricingdomain.PricingModelPerUnit,
		UnitAmount:   &unit,
	})
	require.NoError(t, err)

	quote, err := svc.Quote(ctx, pricingdomain.QuoteRequest{PriceID: perUnit.ID, Quantity: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(1750), quote.TotalAmount)
	assert.Equal(t, int64(250), quote.UnitAmount)

	flatAmount := int64(9900)
	flat, err := svc.Create(ctx, pricingdomain.CreateRequest{
		Name:         "Platform fee",
		Currency:     "USD",
		PricingModel: pricingdomain.PricingModelFlat,
		UnitAmount:   &flatAmount,
	})
	require.NoError(t, err)

	quote, err = svc.Quote(ctx, pricingdomain.QuoteRequest{PriceID: flat.ID, Quantity: 12})
	require.NoError(t, err)
	assert.Equal(t, int64(9900), quote.TotalAmount)
}

func TestQuote_TieredVolume(t *testing.T) {
	svc, ctx := newTestService(t)

	price, err := svc.Create(ctx, pricingdomain.CreateRequest{
		Name:         "API calls",
		Currency:     "USD",
		PricingModel: pricingdomain.PricingModelTieredVolume,
		Tiers: []pricingdomain.TierInput{
			{FromValue: 0, ToValue: int64Ptr(10), UnitAmount: 1000},
			{FromValue: 11, UnitAmount: 800},
		},
	})
	require.NoError(t, err)

	// All 12 units billed at the second bracket's rate.
	quote, err := svc.Quote(ctx, pricingdomain.QuoteRequest{PriceID: price.ID, Quantity: 12})
	require.NoError(t, err)
	assert.Equal(t, int64(9600), quote.TotalAmount)
	assert.Equal(t, int64(800), quote.UnitAmount)

	quote, err = svc.Quote(ctx, pricingdomain.QuoteRequest{PriceID: price.ID, Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), quote.TotalAmount)
}

func TestQuote_TieredGraduated(t *testing.T) {
	svc, ctx := newTestService(t)

	price, err := svc.Create(ctx, pricingdomain.CreateRequest{
		Name:         "Storage",
		Currency:     "USD",
		PricingModel: pricingdomain.PricingModelTieredGraduated,
		Tiers: []pricingdomain.TierInput{
			{FromValue: 0, ToValue: int64Ptr(10), UnitAmount: 1000},
			{FromValue: 11, UnitAmount: 800},
		},
	})
	require.NoError(t, err)

	// 10 units at 10.00 plus 5 units at 8.00.
	quote, err := svc.Quote(ctx, pricingdomain.QuoteRequest{PriceID: price.ID, Quantity: 15})
	require.NoError(t, err)
	assert.Equal(t, int64(14000), quote.TotalAmount)
	assert.Equal(t, int64(933), quote.UnitAmount)
}

func TestQuote_Guards(t *testing.T) {
	svc, ctx := newTestService(t)

	unit := int64(100)
	price, err := svc.Create(ctx, pricingdomain.CreateRequest{
		Name:         "Per seat",
		Currency:     "USD",
		PricingModel: pricingdomain.PricingModelPerUnit,
		UnitAmount:   &unit,
	})
	require.NoError(t, err)

	_, err = svc.Quote(ctx, pricingdomain.QuoteRequest{PriceID: price.ID, Quantity: -1})
	assert.ErrorIs(t, err, pricingdomain.ErrInvalidQuantity)

	quote, err := svc.Quote(ctx, pricingdomain.QuoteRequest{PriceID: price.ID, Quantity: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(0), quote.TotalAmount)

	_, err = svc.Disable(ctx, price.ID)
	require.NoError(t, err)

	_, err = svc.Quote(ctx, pricingdomain.QuoteRequest{PriceID: price.ID, Quantity: 1})
	assert.ErrorIs(t, err, pricingdomain.ErrPriceDisabled)
}

func TestCreate_DuplicateLookupKey(t *testing.T) {
	svc, ctx := newTestService(t)

	key := "seat-monthly"
	unit := int64(1000)
	_, err := svc.Create(ctx, pricingdomain.CreateRequest{
		Name:         "Per seat",
		LookupKey:    &key,
		Currency:     "USD",
		PricingModel: pricingdomain.PricingModelPerUnit,
		UnitAmount:   &unit,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, pricingdomain.CreateRequest{
		Name:         "Per seat again",
		LookupKey:    &key,
		Currency:     "USD",
		PricingModel: pricingdomain.PricingModelPerUnit,
		UnitAmount:   &unit,
	})
	assert.ErrorIs(t, err, pricingdomain.ErrDuplicateLookupKey)
}
