package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	numberingdomain "github.com/smallbiznis/facture/internal/numbering/domain"
	"github.com/smallbiznis/facture/internal/numbering/repository"
	"github.com/smallbiznis/facture/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (numberingdomain.Service, context.Context) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&numberingdomain.NumberingSystem{},
		&numberingdomain.IssuedNumber{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(serviceParams{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.NewRepository(db),
	})

	ctx := orgcontext.WithOrgID(context.Background(), node.Generate().Int64())
	return svc, ctx
}

func createSystem(t *testing.T, svc numberingdomain.Service, ctx context.Context, req numberingdomain.CreateRequest) string {
	t.Helper()
	resp, err := svc.Create(ctx, req)
	require.NoError(t, err)
	return resp.ID
}

func at(value string) *time.Time {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return &parsed
}

func TestCreate_TemplateValidation(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.Create(ctx, numberingdomain.CreateRequest{
		Name:         "Broken",
		DocumentType: numberingdomain.DocumentTypeInvoice,
		Template:     "INV-{bogus}-{nn}",
	})
	assert.ErrorIs(t, err, numberingdomain.ErrInvalidTemplate)

	_, err = svc.Create(ctx, numberingdomain.CreateRequest{
		Name:         "Stray brace",
		DocumentType: numberingdomain.DocumentTypeInvoice,
		Template:     "INV-}{nn}",
	})
	assert.ErrorIs(t, err, numberingdomain.ErrInvalidTemplate)

	resp, err := svc.Create(ctx, numberingdomain.CreateRequest{
		Name:         "Default",
		DocumentType: numberingdomain.DocumentTypeInvoice,
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-{yyyy}-{nnnn}", resp.Template)
	assert.Equal(t, "NEVER", resp.ResetInterval)
}

func TestNextNumber_SequencesWithinWindow(t *testing.T) {
	svc, ctx := newTestService(t)

	id := createSystem(t, svc, ctx, numberingdomain.CreateRequest{
		Name:          "Invoices",
		DocumentType:  numberingdomain.DocumentTypeInvoice,
		Template:      "INV-{yyyy}{mm}-{nnn}",
		ResetInterval: "monthly",
	})

	first, err := svc.NextNumber(ctx, numberingdomain.NextNumberRequest{
		SystemID:    id,
		EffectiveAt: at("2024-03-05T10:00:00Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-202403-001", first.Number)
	assert.Equal(t, int64(1), first.Sequence)

	second, err := svc.NextNumber(ctx, numberingdomain.NextNumberRequest{
		SystemID:    id,
		EffectiveAt: at("2024-03-20T10:00:00Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-202403-002", second.Number)

	// A new month starts counting from scratch.
	april, err := svc.NextNumber(ctx, numberingdomain.NextNumberRequest{
		SystemID:    id,
		EffectiveAt: at("2024-04-01T00:00:00Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-202404-001", april.Number)
	assert.Equal(t, int64(1), april.Sequence)
}

func TestNextNumber_NeverResetCountsForever(t *testing.T) {
	svc, ctx := newTestService(t)

	id := createSystem(t, svc, ctx, numberingdomain.CreateRequest{
		Name:         "Credit notes",
		DocumentType: numberingdomain.DocumentTypeCreditNote,
		Template:     "CN-{nn}",
	})

	_, err := svc.NextNumber(ctx, numberingdomain.NextNumberRequest{SystemID: id, EffectiveAt: at("2023-12-31T23:59:00Z")})
	require.NoError(t, err)

	next, err := svc.NextNumber(ctx, numberingdomain.NextNumberRequest{SystemID: id, EffectiveAt: at("2024-01-01T00:01:00Z")})
	require.NoError(t, err)
	assert.Equal(t, "CN-02", next.Number)
}

func TestPreview_DoesNotConsume(t *testing.T) {
	svc, ctx := newTestService(t)

	id := createSystem(t, svc, ctx, numberingdomain.CreateRequest{
		Name:         "Invoices",
		DocumentType: numberingdomain.DocumentTypeInvoice,
		Template:     "INV-{nnn}",
	})

	preview, err := svc.Preview(ctx, numberingdomain.NextNumberRequest{SystemID: id})
	require.NoError(t, err)
	assert.Equal(t, "INV-001", preview.Number)

	again, err := svc.Preview(ctx, numberingdomain.NextNumberRequest{SystemID: id})
	require.NoError(t, err)
	assert.Equal(t, "INV-001", again.Number)

	issued, err := svc.NextNumber(ctx, numberingdomain.NextNumberRequest{SystemID: id})
	require.NoError(t, err)
	assert.Equal(t, "INV-001", issued.Number)
}

func TestNextNumber_LockedSystemFetch(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&numberingdomain.NumberingSystem{},
		&numberingdomain.IssuedNumber{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(serviceParams{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.NewRepository(db),
	}).(*Service)

	orgID := node.Generate()
	ctx := orgcontext.WithOrgID(context.Background(), orgID.Int64())

	created, err := svc.Create(ctx, numberingdomain.CreateRequest{
		Name:         "Invoices",
		DocumentType: numberingdomain.DocumentTypeInvoice,
		Template:     "INV-{nn}",
	})
	require.NoError(t, err)
	systemID, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		locked, err := svc.lockSystem(ctx, tx, orgID, systemID)
		require.NoError(t, err)
		assert.Equal(t, systemID, locked.ID)

		_, err = svc.lockSystem(ctx, tx, orgID, node.Generate())
		assert.ErrorIs(t, err, numberingdomain.ErrNotFound)
		return nil
	}))

	// A disable written straight to the row is honored on the next
	// issue even though the row was readable moments before.
	require.NoError(t, db.Exec(
		`UPDATE numbering_systems SET is_enabled = ? WHERE id = ?`,
		false, systemID,
	).Error)
	_, err = svc.NextNumber(ctx, numberingdomain.NextNumberRequest{SystemID: created.ID})
	assert.ErrorIs(t, err, numberingdomain.ErrSystemDisabled)
}

func TestNextNumber_Guards(t *testing.T) {
	svc, ctx := newTestService(t)

	id := createSystem(t, svc, ctx, numberingdomain.CreateRequest{
		Name:         "Invoices",
		DocumentType: numberingdomain.DocumentTypeInvoice,
		Template:     "INV-{nn}",
	})

	_, err := svc.Disable(ctx, id)
	require.NoError(t, err)

	_, err = svc.NextNumber(ctx, numberingdomain.NextNumberRequest{SystemID: id})
	assert.ErrorIs(t, err, numberingdomain.ErrSystemDisabled)

	_, err = svc.NextNumber(ctx, numberingdomain.NextNumberRequest{SystemID: "garbage"})
	assert.ErrorIs(t, err, numberingdomain.ErrInvalidID)

	otherOrg := orgcontext.WithOrgID(context.Background(), 4242)
	_, err = svc.NextNumber(otherOrg, numberingdomain.NextNumberRequest{SystemID: id})
	assert.ErrorIs(t, err, numberingdomain.ErrNotFound)
}

func TestUpdate_TemplateAndInterval(t *testing.T) {
	svc, ctx := newTestService(t)

	id := createSystem(t, svc, ctx, numberingdomain.CreateRequest{
		Name:         "Invoices",
		DocumentType: numberingdomain.DocumentTypeInvoice,
		Template:     "INV-{nn}",
	})

	template := "INV/{yy}/{nnnn}"
	interval := "yearly"
	resp, err := svc.Update(ctx, numberingdomain.UpdateRequest{
		ID:            id,
		Template:      &template,
		ResetInterval: &interval,
	})
	require.NoError(t, err)
	assert.Equal(t, template, resp.Template)
	assert.Equal(t, "YEARLY", resp.ResetInterval)

	bad := "INV-{oops}"
	_, err = svc.Update(ctx, numberingdomain.UpdateRequest{ID: id, Template: &bad})
	assert.ErrorIs(t, err, numberingdomain.ErrInvalidTemplate)
}
