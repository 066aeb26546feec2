package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	invoicedomain "github.com/smallbiznis/facture/internal/invoice/domain"
	numberingdomain "github.com/smallbiznis/facture/internal/numbering/domain"
	"github.com/smallbiznis/facture/internal/orgcontext"
	pricingdomain "github.com/smallbiznis/facture/internal/pricing/domain"
	taxdomain "github.com/smallbiznis/facture/internal/tax/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Mock objects
type mockCalculator struct {
	mock.Mock
}

func (m *mockCalculator) CalculateInvoiceTaxes(ctx context.Context, req taxdomain.CalculateInvoiceTaxesRequest) (taxdomain.CalculateInvoiceTaxesResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(taxdomain.CalculateInvoiceTaxesResponse), args.Error(1)
}

type mockIssuer struct {
	mock.Mock
}

func (m *mockIssuer) NextNumber(ctx context.Context, req numberingdomain.NextNumberRequest) (numberingdomain.NextNumberResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(numberingdomain.NextNumberResponse), args.Error(1)
}

type mockQuoter struct {
	mock.Mock
}

func (m *mockQuoter) Quote(ctx context.Context, req pricingdomain.QuoteRequest) (pricingdomain.QuoteResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(pricingdomain.QuoteResponse), args.Error(1)
}

type testEnv struct {
	svc    invoicedomain.Service
	ctx    context.Context
	node   *snowflake.Node
	calc   *mockCalculator
	issuer *mockIssuer
	quoter *mockQuoter
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLine{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	calc := &mockCalculator{}
	issuer := &mockIssuer{}
	quoter := &mockQuoter{}

	svc := NewService(ServiceParam{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		TaxCalc:   calc,
		Numbering: issuer,
		Quoter:    quoter,
	})

	return testEnv{
		svc:    svc,
		ctx:    orgcontext.WithOrgID(context.Background(), node.Generate().Int64()),
		node:   node,
		calc:   calc,
		issuer: issuer,
		quoter: quoter,
	}
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func TestCreateInvoice_Validation(t *testing.T) {
	env := newTestEnv(t)
	customerID := env.node.Generate().String()

	_, err := env.svc.Create(env.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID: customerID,
		Currency:   "USD",
	})
	assert.ErrorIs(t, err, invoicedomain.ErrMissingLines)

	_, err = env.svc.Create(env.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID: "not-an-id",
		Currency:   "USD",
		Lines:      []invoicedomain.LineInput{{Quantity: 1, UnitAmount: int64Ptr(100)}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidCustomer)

	_, err = env.svc.Create(env.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID: customerID,
		Currency:   "USD",
		Lines:      []invoicedomain.LineInput{{Quantity: 0, UnitAmount: int64Ptr(100)}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidLine)

	_, err = env.svc.Create(env.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID: customerID,
		Currency:   "USD",
		Lines:      []invoicedomain.LineInput{{Quantity: 2}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidLine)
}

func TestCreateInvoice_QuotedLine(t *testing.T) {
	env := newTestEnv(t)
	customerID := env.node.Generate().String()
	priceID := env.node.Generate().String()

	env.quoter.On("Quote", mock.Anything, pricingdomain.QuoteRequest{PriceID: priceID, Quantity: 3}).
		Return(pricingdomain.QuoteResponse{
			PriceID:      priceID,
			PricingModel: pricingdomain.PricingModelPerUnit,
			Currency:     "USD",
			Quantity:     3,
			UnitAmount:   500,
			TotalAmount:  1500,
		}, nil)

	resp, err := env.svc.Create(env.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID: customerID,
		Currency:   "USD",
		Lines: []invoicedomain.LineInput{
			{Description: "Seats", Quantity: 3, PriceID: strPtr(priceID)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), resp.SubtotalAmount)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, int64(500), resp.Lines[0].UnitAmount)
	require.NotNil(t, resp.Lines[0].PriceID)
	assert.Equal(t, priceID, *resp.Lines[0].PriceID)
	env.quoter.AssertExpectations(t)
}

func TestFinalizeInvoice_AssignsNumberAndOpensOutstanding(t *testing.T) {
	env := newTestEnv(t)
	customerID := env.node.Generate().String()
	systemID := env.node.Generate().String()
	rateID := env.node.Generate().String()

	created, err := env.svc.Create(env.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID:        customerID,
		Currency:          "USD",
		NumberingSystemID: strPtr(systemID),
		TaxRateIDs:        []string{rateID},
		Lines: []invoicedomain.LineInput{
			{Description: "Build", Quantity: 1, UnitAmount: int64Ptr(10000)},
			{Description: "Support", Quantity: 1, UnitAmount: int64Ptr(5000)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, created.Status)
	assert.Equal(t, int64(15000), created.SubtotalAmount)

	env.calc.On("CalculateInvoiceTaxes", mock.Anything, mock.Anything).
		Return(taxdomain.CalculateInvoiceTaxesResponse{
			Currency: "USD",
			Lines: []taxdomain.TaxedLine{
				{LineID: created.Lines[0].ID, TaxableAmount: 10000, TaxAmount: 2000},
				{LineID: created.Lines[1].ID, TaxableAmount: 5000, TaxAmount: 1000},
			},
			TotalTaxableAmount:  15000,
			TotalTaxAmount:      3000,
			TotalExcludingTaxes: 15000,
		}, nil)
	env.issuer.On("NextNumber", mock.Anything, mock.Anything).
		Return(numberingdomain.NextNumberResponse{Number: "INV-2024-0001", Sequence: 1}, nil)

	finalized, err := env.svc.Finalize(env.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusFinalized, finalized.Status)
	require.NotNil(t, finalized.InvoiceNumber)
	assert.Equal(t, "INV-2024-0001", *finalized.InvoiceNumber)
	assert.Equal(t, int64(3000), finalized.TaxesAmount)
	assert.Equal(t, int64(18000), finalized.TotalAmount)
	require.NotNil(t, finalized.FinalizedAt)

	for _, line := range finalized.Lines {
		assert.Equal(t, line.Quantity, line.OutstandingQuantity)
		assert.Equal(t, line.TotalAmount, line.OutstandingAmount)
		assert.Equal(t, line.TaxableAmount+line.TaxAmount, line.TotalAmount)
	}

	// Finalizing twice is rejected.
	_, err = env.svc.Finalize(env.ctx, created.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotDraft)
}

func TestFinalizeInvoice_RequiresNumberingSystem(t *testing.T) {
	env := newTestEnv(t)
	customerID := env.node.Generate().String()

	created, err := env.svc.Create(env.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID: customerID,
		Currency:   "USD",
		Lines:      []invoicedomain.LineInput{{Quantity: 1, UnitAmount: int64Ptr(100)}},
	})
	require.NoError(t, err)

	_, err = env.svc.Finalize(env.ctx, created.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrMissingNumberingSystem)
}

func TestVoidInvoice_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	customerID := env.node.Generate().String()
	systemID := env.node.Generate().String()

	created, err := env.svc.Create(env.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID:        customerID,
		Currency:          "USD",
		NumberingSystemID: strPtr(systemID),
		Lines:             []invoicedomain.LineInput{{Quantity: 1, UnitAmount: int64Ptr(100)}},
	})
	require.NoError(t, err)

	// Draft invoices cannot be voided.
	_, err = env.svc.Void(env.ctx, created.ID, "mistake")
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFinalized)

	env.calc.On("CalculateInvoiceTaxes", mock.Anything, mock.Anything).
		Return(taxdomain.CalculateInvoiceTaxesResponse{
			Currency: "USD",
			Lines: []taxdomain.TaxedLine{
				{LineID: created.Lines[0].ID, TaxableAmount: 100},
			},
			TotalTaxableAmount:  100,
			TotalExcludingTaxes: 100,
		}, nil)
	env.issuer.On("NextNumber", mock.Anything, mock.Anything).
		Return(numberingdomain.NextNumberResponse{Number: "INV-01", Sequence: 1}, nil)

	_, err = env.svc.Finalize(env.ctx, created.ID)
	require.NoError(t, err)

	voided, err := env.svc.Void(env.ctx, created.ID, "duplicate billing")
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusVoid, voided.Status)
	require.NotNil(t, voided.VoidedAt)

	_, err = env.svc.Void(env.ctx, created.ID, "again")
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFinalized)
}

func TestGetByID_ScopedToOrg(t *testing.T) {
	env := newTestEnv(t)
	customerID := env.node.Generate().String()

	created, err := env.svc.Create(env.ctx, invoicedomain.CreateInvoiceRequest{
		CustomerID: customerID,
		Currency:   "USD",
		Lines:      []invoicedomain.LineInput{{Quantity: 1, UnitAmount: int64Ptr(100)}},
	})
	require.NoError(t, err)

	found, err := env.svc.GetByID(env.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	otherOrg := orgcontext.WithOrgID(context.Background(), env.node.Generate().Int64())
	_, err = env.svc.GetByID(otherOrg, created.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
}

func TestListInvoices_CursorPagination(t *testing.T) {
	env := newTestEnv(t)
	customerID := env.node.Generate().String()

	ids := make(map[string]bool)
	for i := 0; i < 3; i++ {
		created, err := env.svc.Create(env.ctx, invoicedomain.CreateInvoiceRequest{
			CustomerID: customerID,
			Currency:   "USD",
			Lines:      []invoicedomain.LineInput{{Quantity: 1, UnitAmount: int64Ptr(100)}},
		})
		require.NoError(t, err)
		ids[created.ID] = true
	}

	first, err := env.svc.List(env.ctx, invoicedomain.ListInvoiceRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Invoices, 2)
	assert.True(t, first.PageInfo.HasMore)
	require.NotEmpty(t, first.PageInfo.NextPageToken)

	second, err := env.svc.List(env.ctx, invoicedomain.ListInvoiceRequest{
		PageSize:  2,
		PageToken: first.PageInfo.NextPageToken,
	})
	require.NoError(t, err)
	require.Len(t, second.Invoices, 1)
	assert.False(t, second.PageInfo.HasMore)

	seen := make(map[string]bool)
	for _, invoice := range append(first.Invoices, second.Invoices...) {
		seen[invoice.ID] = true
	}
	assert.Equal(t, ids, seen)
}
