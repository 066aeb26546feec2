package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	creditnotedomain "github.com/smallbiznis/facture/internal/creditnote/domain"
	"github.com/smallbiznis/facture/internal/creditnote/prorate"
	invoicedomain "github.com/smallbiznis/facture/internal/invoice/domain"
	"github.com/smallbiznis/facture/internal/money"
	numberingdomain "github.com/smallbiznis/facture/internal/numbering/domain"
	"github.com/smallbiznis/facture/internal/observability/metrics"
	"github.com/smallbiznis/facture/internal/orgcontext"
	"github.com/smallbiznis/facture/pkg/db/option"
	"github.com/smallbiznis/facture/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Numbering numberingdomain.Issuer
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID     *snowflake.Node
	numbering numberingdomain.Issuer
	metrics   *metrics.Metrics

	noterepo     repository.Repository[creditnotedomain.CreditNote]
	notelinerepo repository.Repository[creditnotedomain.CreditNoteLine]
	invoicerepo  repository.Repository[invoicedomain.Invoice]
	linerepo     repository.Repository[invoicedomain.InvoiceLine]
}

func NewService(p ServiceParam) creditnotedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("creditnote.service"),
		genID:     p.GenID,
		numbering: p.Numbering,
		metrics:   p.Metrics,

		noterepo:     repository.ProvideStore[creditnotedomain.CreditNote](p.DB),
		notelinerepo: repository.ProvideStore[creditnotedomain.CreditNoteLine](p.DB),
		invoicerepo:  repository.ProvideStore[invoicedomain.Invoice](p.DB),
		linerepo:     repository.ProvideStore[invoicedomain.InvoiceLine](p.DB),
	}
}

func (s *Service) Issue(ctx context.Context, req creditnotedomain.IssueRequest) (*creditnotedomain.Response, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil {
		return nil, creditnotedomain.ErrInvalidID
	}
	if len(req.Lines) == 0 {
		return nil, creditnotedomain.ErrMissingLines
	}

	invoice, err := s.invoicerepo.FindOne(ctx, &invoicedomain.Invoice{ID: invoiceID, OrgID: orgID})
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, creditnotedomain.ErrInvoiceNotFound
	}
	if invoice.Status != invoicedomain.InvoiceStatusFinalized {
		return nil, creditnotedomain.ErrInvoiceNotFinalized
	}

	invoiceLines, err := s.linerepo.Find(ctx, &invoicedomain.InvoiceLine{InvoiceID: invoice.ID})
	if err != nil {
		return nil, err
	}
	linesByID := make(map[snowflake.ID]*invoicedomain.InvoiceLine, len(invoiceLines))
	for _, line := range invoiceLines {
		if line != nil {
			linesByID[line.ID] = line
		}
	}

	now := time.Now().UTC()

	var number *string
	var systemID *snowflake.ID
	if req.NumberingSystemID != nil {
		parsed, err := snowflake.ParseString(strings.TrimSpace(*req.NumberingSystemID))
		if err != nil {
			return nil, creditnotedomain.ErrInvalidID
		}
		systemID = &parsed

		issued, err := s.numbering.NextNumber(ctx, numberingdomain.NextNumberRequest{
			SystemID:    parsed.String(),
			EffectiveAt: &now,
		})
		if err != nil {
			return nil, err
		}
		number = &issued.Number
	}

	note := &creditnotedomain.CreditNote{
		ID:                s.genID.Generate(),
		OrgID:             orgID,
		InvoiceID:         invoice.ID,
		CustomerID:        invoice.CustomerID,
		NumberingSystemID: systemID,
		Number:            number,
		Status:            creditnotedomain.CreditNoteStatusIssued,
		Currency:          invoice.Currency,
		Metadata:          datatypes.JSONMap{},
		IssuedAt:          &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.Reason != nil {
		reason := strings.TrimSpace(*req.Reason)
		if reason != "" {
			note.Reason = &reason
		}
	}

	noteLines := make([]*creditnotedomain.CreditNoteLine, 0, len(req.Lines))
	for _, input := range req.Lines {
		lineID, err := snowflake.ParseString(strings.TrimSpace(input.InvoiceLineID))
		if err != nil {
			return nil, creditnotedomain.ErrInvalidID
		}
		line, ok := linesByID[lineID]
		if !ok {
			return nil, creditnotedomain.ErrLineNotFound
		}

		var amount *money.Money
		if input.Amount != nil {
			value := money.FromCents(*input.Amount, invoice.Currency)
			amount = &value
		}
		result := prorate.Prorate(prorate.LineState{
			Quantity:                line.Quantity,
			OutstandingQuantity:     line.OutstandingQuantity,
			Amount:                  money.FromCents(line.Amount, invoice.Currency),
			OutstandingAmount:       money.FromCents(line.OutstandingAmount, invoice.Currency),
			TotalAmount:             money.FromCents(line.TotalAmount, invoice.Currency),
			TotalExcludingTaxAmount: money.FromCents(line.TotalExcludingTaxAmount, invoice.Currency),
			TotalTaxAmount:          money.FromCents(line.TaxAmount, invoice.Currency),
		}, input.Quantity, amount)

		if result.Ratio.IsZero() {
			return nil, creditnotedomain.ErrNothingOutstanding
		}

		creditedQuantity := result.Ratio.
			Mul(decimal.NewFromInt(line.Quantity)).
			Round(0).
			IntPart()

		noteLine := &creditnotedomain.CreditNoteLine{
			ID:                      s.genID.Generate(),
			OrgID:                   orgID,
			CreditNoteID:            note.ID,
			InvoiceLineID:           line.ID,
			Description:             line.Description,
			CreditedQuantity:        creditedQuantity,
			Ratio:                   result.Ratio,
			TotalExcludingTaxAmount: result.TotalExcludingTax.Cents(),
			TaxAmount:               result.TotalTax.Cents(),
			TotalAmount:             result.TotalAmount.Cents(),
			CreatedAt:               now,
		}
		noteLines = append(noteLines, noteLine)

		// Consume the in-memory outstanding state so a later entry for
		// the same line prorates against what this one left behind.
		line.OutstandingQuantity -= creditedQuantity
		if line.OutstandingQuantity < 0 {
			line.OutstandingQuantity = 0
		}
		line.OutstandingAmount -= noteLine.TotalAmount
		if line.OutstandingAmount < 0 {
			line.OutstandingAmount = 0
		}

		note.TotalExcludingTaxesAmount += noteLine.TotalExcludingTaxAmount
		note.TaxesAmount += noteLine.TaxAmount
		note.TotalAmount += noteLine.TotalAmount
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.noterepo.WithTrx(tx).Create(ctx, note); err != nil {
			return err
		}
		if err := s.notelinerepo.WithTrx(tx).BatchCreate(ctx, noteLines); err != nil {
			return err
		}

		// Guarded decrements: a concurrent issue that already consumed
		// the outstanding balance makes the WHERE clause miss, and the
		// whole note rolls back instead of over-crediting.
		for _, noteLine := range noteLines {
			result := tx.WithContext(ctx).Exec(
				`UPDATE invoice_lines
				 SET outstanding_quantity = outstanding_quantity - ?,
				     outstanding_amount = outstanding_amount - ?,
				     updated_at = ?
				 WHERE id = ? AND outstanding_quantity >= ? AND outstanding_amount >= ?`,
				noteLine.CreditedQuantity,
				noteLine.TotalAmount,
				now,
				noteLine.InvoiceLineID,
				noteLine.CreditedQuantity,
				noteLine.TotalAmount,
			)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return creditnotedomain.ErrOutstandingChanged
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordCreditNoteIssued(ctx, note.Currency)
	}
	s.log.Info("issued credit note",
		zap.String("credit_note_id", note.ID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.Int64("total_amount", note.TotalAmount),
	)

	resp := toResponse(note, noteLines)
	return &resp, nil
}

func (s *Service) Void(ctx context.Context, id string) (*creditnotedomain.Response, error) {
	note, noteLines, err := s.findForOrg(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.Status != creditnotedomain.CreditNoteStatusIssued {
		return nil, creditnotedomain.ErrNoteNotIssued
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Exec(
			`UPDATE credit_notes
			 SET status = ?, voided_at = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			creditnotedomain.CreditNoteStatusVoid,
			now,
			now,
			note.ID,
			creditnotedomain.CreditNoteStatusIssued,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return creditnotedomain.ErrNoteNotIssued
		}

		// Restore exactly what Issue removed.
		for _, noteLine := range noteLines {
			if err := tx.WithContext(ctx).Exec(
				`UPDATE invoice_lines
				 SET outstanding_quantity = outstanding_quantity + ?,
				     outstanding_amount = outstanding_amount + ?,
				     updated_at = ?
				 WHERE id = ?`,
				noteLine.CreditedQuantity,
				noteLine.TotalAmount,
				now,
				noteLine.InvoiceLineID,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	note.Status = creditnotedomain.CreditNoteStatusVoid
	note.VoidedAt = &now
	note.UpdatedAt = now

	s.log.Info("voided credit note",
		zap.String("credit_note_id", note.ID.String()),
	)

	resp := toResponse(note, noteLines)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req creditnotedomain.ListRequest) ([]creditnotedomain.Response, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	filter := &creditnotedomain.CreditNote{OrgID: orgID}
	if req.InvoiceID != nil {
		invoiceID, err := snowflake.ParseString(strings.TrimSpace(*req.InvoiceID))
		if err != nil {
			return nil, creditnotedomain.ErrInvalidID
		}
		filter.InvoiceID = invoiceID
	}
	if req.Status != nil {
		filter.Status = *req.Status
	}

	items, err := s.noterepo.Find(ctx, filter,
		option.WithSortBy(option.WithQuerySortBy(req.SortBy, req.OrderBy, map[string]bool{
			"created_at": true,
			"updated_at": true,
		})),
	)
	if err != nil {
		return nil, err
	}

	responses := make([]creditnotedomain.Response, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		noteLines, err := s.notelinerepo.Find(ctx, &creditnotedomain.CreditNoteLine{CreditNoteID: item.ID})
		if err != nil {
			return nil, err
		}
		responses = append(responses, toResponse(item, noteLines))
	}
	return responses, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*creditnotedomain.Response, error) {
	note, noteLines, err := s.findForOrg(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := toResponse(note, noteLines)
	return &resp, nil
}

func (s *Service) findForOrg(ctx context.Context, id string) (*creditnotedomain.CreditNote, []*creditnotedomain.CreditNoteLine, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, nil, err
	}

	noteID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, nil, creditnotedomain.ErrInvalidID
	}

	note, err := s.noterepo.FindOne(ctx, &creditnotedomain.CreditNote{ID: noteID, OrgID: orgID})
	if err != nil {
		return nil, nil, err
	}
	if note == nil {
		return nil, nil, creditnotedomain.ErrNotFound
	}

	noteLines, err := s.notelinerepo.Find(ctx, &creditnotedomain.CreditNoteLine{CreditNoteID: note.ID})
	if err != nil {
		return nil, nil, err
	}
	return note, noteLines, nil
}

func (s *Service) orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, creditnotedomain.ErrInvalidOrganization
	}
	return orgID, nil
}

func toResponse(note *creditnotedomain.CreditNote, noteLines []*creditnotedomain.CreditNoteLine) creditnotedomain.Response {
	resp := creditnotedomain.Response{
		ID:                        note.ID.String(),
		OrganizationID:            note.OrgID.String(),
		InvoiceID:                 note.InvoiceID.String(),
		CustomerID:                note.CustomerID.String(),
		Number:                    note.Number,
		Status:                    note.Status,
		Currency:                  note.Currency,
		Reason:                    note.Reason,
		TotalExcludingTaxesAmount: note.TotalExcludingTaxesAmount,
		TaxesAmount:               note.TaxesAmount,
		TotalAmount:               note.TotalAmount,
		IssuedAt:                  note.IssuedAt,
		VoidedAt:                  note.VoidedAt,
		CreatedAt:                 note.CreatedAt,
		UpdatedAt:                 note.UpdatedAt,
	}
	resp.Lines = lo.FilterMap(noteLines, func(line *creditnotedomain.CreditNoteLine, _ int) (creditnotedomain.LineResponse, bool) {
		if line == nil {
			return creditnotedomain.LineResponse{}, false
		}
		return creditnotedomain.LineResponse{
			ID:                      line.ID.String(),
			InvoiceLineID:           line.InvoiceLineID.String(),
			Description:             line.Description,
			CreditedQuantity:        line.CreditedQuantity,
			Ratio:                   line.Ratio,
			TotalExcludingTaxAmount: line.TotalExcludingTaxAmount,
			TaxAmount:               line.TaxAmount,
			TotalAmount:             line.TotalAmount,
		}, true
	})
	return resp
}
