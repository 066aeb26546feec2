package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	invoicedomain "github.com/smallbiznis/facture/internal/invoice/domain"
	numberingdomain "github.com/smallbiznis/facture/internal/numbering/domain"
	"github.com/smallbiznis/facture/internal/observability/metrics"
	"github.com/smallbiznis/facture/internal/orgcontext"
	pricingdomain "github.com/smallbiznis/facture/internal/pricing/domain"
	taxdomain "github.com/smallbiznis/facture/internal/tax/domain"
	"github.com/smallbiznis/facture/pkg/db/option"
	"github.com/smallbiznis/facture/pkg/db/pagination"
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
	TaxCalc   taxdomain.Calculator
	Numbering numberingdomain.Issuer
	Quoter    pricingdomain.Quoter
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID     *snowflake.Node
	taxCalc   taxdomain.Calculator
	numbering numberingdomain.Issuer
	quoter    pricingdomain.Quoter
	metrics   *metrics.Metrics

	invoicerepo repository.Repository[invoicedomain.Invoice]
	linerepo    repository.Repository[invoicedomain.InvoiceLine]
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invoice.service"),
		genID:     p.GenID,
		taxCalc:   p.TaxCalc,
		numbering: p.Numbering,
		quoter:    p.Quoter,
		metrics:   p.Metrics,

		invoicerepo: repository.ProvideStore[invoicedomain.Invoice](p.DB),
		linerepo:    repository.ProvideStore[invoicedomain.InvoiceLine](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.Response, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil {
		return nil, invoicedomain.ErrInvalidCustomer
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		return nil, invoicedomain.ErrInvalidCurrency
	}
	if len(req.Lines) == 0 {
		return nil, invoicedomain.ErrMissingLines
	}

	var systemID *snowflake.ID
	if req.NumberingSystemID != nil {
		parsed, err := snowflake.ParseString(strings.TrimSpace(*req.NumberingSystemID))
		if err != nil {
			return nil, invoicedomain.ErrInvalidID
		}
		systemID = &parsed
	}

	discount := req.DiscountAmount
	if discount < 0 {
		discount = 0
	}

	now := time.Now().UTC()
	invoiceID := s.genID.Generate()
	invoice := &invoicedomain.Invoice{
		ID:                invoiceID,
		OrgID:             orgID,
		CustomerID:        customerID,
		NumberingSystemID: systemID,
		Status:            invoicedomain.InvoiceStatusDraft,
		Currency:          currency,
		TaxRateIDs:        datatypes.NewJSONSlice(req.TaxRateIDs),
		DiscountAmount:    discount,
		Metadata:          datatypes.JSONMap{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	lines := make([]*invoicedomain.InvoiceLine, 0, len(req.Lines))
	for _, input := range req.Lines {
		line, err := s.buildLine(ctx, invoice, input, now)
		if err != nil {
			return nil, err
		}
		invoice.SubtotalAmount += line.Amount
		lines = append(lines, line)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.invoicerepo.WithTrx(tx).Create(ctx, invoice); err != nil {
			return err
		}
		return s.linerepo.WithTrx(tx).BatchCreate(ctx, lines)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("created invoice",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("currency", currency),
		zap.Int("lines", len(lines)),
	)
	resp := s.toResponse(invoice, lines)
	return &resp, nil
}

func (s *Service) buildLine(ctx context.Context, invoice *invoicedomain.Invoice, input invoicedomain.LineInput, now time.Time) (*invoicedomain.InvoiceLine, error) {
	if input.Quantity <= 0 {
		return nil, invoicedomain.ErrInvalidLine
	}

	line := &invoicedomain.InvoiceLine{
		ID:          s.genID.Generate(),
		OrgID:       invoice.OrgID,
		InvoiceID:   invoice.ID,
		Description: strings.TrimSpace(input.Description),
		Quantity:    input.Quantity,
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch {
	case input.PriceID != nil:
		quote, err := s.quoter.Quote(ctx, pricingdomain.QuoteRequest{
			PriceID:  strings.TrimSpace(*input.PriceID),
			Quantity: input.Quantity,
		})
		if err != nil {
			return nil, err
		}
		if quote.Currency != invoice.Currency {
			return nil, invoicedomain.ErrInvalidCurrency
		}
		priceID, err := snowflake.ParseString(quote.PriceID)
		if err != nil {
			return nil, invoicedomain.ErrInvalidID
		}
		line.PriceID = &priceID
		line.UnitAmount = quote.UnitAmount
		line.Amount = quote.TotalAmount
	case input.UnitAmount != nil && *input.UnitAmount >= 0:
		line.UnitAmount = *input.UnitAmount
		line.Amount = *input.UnitAmount * input.Quantity
	default:
		return nil, invoicedomain.ErrInvalidLine
	}

	return line, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	filter := &invoicedomain.Invoice{OrgID: orgID}
	if req.Status != nil {
		filter.Status = *req.Status
	}
	if req.CustomerID != nil {
		customerID, err := snowflake.ParseString(strings.TrimSpace(*req.CustomerID))
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidCustomer
		}
		filter.CustomerID = customerID
	}
	if req.InvoiceNumber != nil {
		filter.InvoiceNumber = req.InvoiceNumber
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	options := []option.QueryOption{
		option.WithSortBy(option.WithQuerySortBy(req.SortBy, req.OrderBy, map[string]bool{
			"created_at": true,
			"updated_at": true,
		})),
		option.ApplyPagination(pagination.Pagination{
			PageToken: req.PageToken,
			PageSize:  int(pageSize),
		}),
	}
	if req.CreatedFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.GTE,
			Value:    *req.CreatedFrom,
		}))
	}
	if req.CreatedTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.LTE,
			Value:    *req.CreatedTo,
		}))
	}

	items, err := s.invoicerepo.Find(ctx, filter, options...)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(invoice *invoicedomain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        invoice.ID.String(),
			CreatedAt: invoice.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	invoices := make([]invoicedomain.Response, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		lines, err := s.loadLines(ctx, item.ID)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, err
		}
		invoices = append(invoices, s.toResponse(item, lines))
	}

	resp := invoicedomain.ListInvoiceResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*invoicedomain.Response, error) {
	invoice, lines, err := s.findForOrg(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(invoice, lines)
	return &resp, nil
}

// Finalize computes totals and opens the invoice for crediting. The
// number is issued before the guarded status flip; a lost race leaves a
// gap in the sequence rather than a duplicate number.
func (s *Service) Finalize(ctx context.Context, id string) (*invoicedomain.Response, error) {
	invoice, lines, err := s.findForOrg(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != invoicedomain.InvoiceStatusDraft {
		return nil, invoicedomain.ErrInvoiceNotDraft
	}
	if invoice.NumberingSystemID == nil {
		return nil, invoicedomain.ErrMissingNumberingSystem
	}

	taxResp, err := s.taxCalc.CalculateInvoiceTaxes(ctx, taxdomain.CalculateInvoiceTaxesRequest{
		Currency:       invoice.Currency,
		TaxRateIDs:     []string(invoice.TaxRateIDs),
		DiscountAmount: invoice.DiscountAmount,
		Lines: lo.Map(lines, func(line *invoicedomain.InvoiceLine, _ int) taxdomain.TaxableLine {
			return taxdomain.TaxableLine{LineID: line.ID.String(), Amount: line.Amount}
		}),
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	issued, err := s.numbering.NextNumber(ctx, numberingdomain.NextNumberRequest{
		SystemID:    invoice.NumberingSystemID.String(),
		EffectiveAt: &now,
	})
	if err != nil {
		return nil, err
	}

	taxedByLine := lo.KeyBy(taxResp.Lines, func(line taxdomain.TaxedLine) string { return line.LineID })
	inclusive := taxResp.TotalExcludingTaxes != taxResp.TotalTaxableAmount

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Exec(
			`UPDATE invoices
			 SET status = ?, invoice_number = ?, subtotal_amount = ?, taxes_amount = ?,
			     total_excluding_taxes_amount = ?, total_amount = ?,
			     issued_at = ?, finalized_at = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			invoicedomain.InvoiceStatusFinalized,
			issued.Number,
			invoice.SubtotalAmount,
			taxResp.TotalTaxAmount,
			taxResp.TotalExcludingTaxes,
			invoiceTotal(taxResp, inclusive),
			now,
			now,
			now,
			invoice.ID,
			invoicedomain.InvoiceStatusDraft,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return invoicedomain.ErrInvoiceNotDraft
		}

		for _, line := range lines {
			taxed, ok := taxedByLine[line.ID.String()]
			if !ok {
				return invoicedomain.ErrInvalidLine
			}

			line.TaxableAmount = taxed.TaxableAmount
			line.TaxAmount = taxed.TaxAmount
			if inclusive {
				line.TotalExcludingTaxAmount = taxed.TaxableAmount - taxed.TaxAmount
				line.TotalAmount = taxed.TaxableAmount
			} else {
				line.TotalExcludingTaxAmount = taxed.TaxableAmount
				line.TotalAmount = taxed.TaxableAmount + taxed.TaxAmount
			}
			line.OutstandingQuantity = line.Quantity
			line.OutstandingAmount = line.TotalAmount
			line.UpdatedAt = now

			if err := tx.WithContext(ctx).Exec(
				`UPDATE invoice_lines
				 SET taxable_amount = ?, tax_amount = ?, total_excluding_tax_amount = ?,
				     total_amount = ?, outstanding_quantity = ?, outstanding_amount = ?, updated_at = ?
				 WHERE id = ?`,
				line.TaxableAmount,
				line.TaxAmount,
				line.TotalExcludingTaxAmount,
				line.TotalAmount,
				line.OutstandingQuantity,
				line.OutstandingAmount,
				line.UpdatedAt,
				line.ID,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invoice.Status = invoicedomain.InvoiceStatusFinalized
	invoice.InvoiceNumber = &issued.Number
	invoice.TaxesAmount = taxResp.TotalTaxAmount
	invoice.TotalExcludingTaxesAmount = taxResp.TotalExcludingTaxes
	invoice.TotalAmount = invoiceTotal(taxResp, inclusive)
	invoice.IssuedAt = &now
	invoice.FinalizedAt = &now
	invoice.UpdatedAt = now

	if s.metrics != nil {
		s.metrics.RecordInvoiceFinalized(ctx, invoice.Currency)
	}
	s.log.Info("finalized invoice",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", issued.Number),
		zap.Int64("total_amount", invoice.TotalAmount),
	)

	resp := s.toResponse(invoice, lines)
	return &resp, nil
}

func (s *Service) Void(ctx context.Context, id string, reason string) (*invoicedomain.Response, error) {
	invoice, lines, err := s.findForOrg(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != invoicedomain.InvoiceStatusFinalized {
		return nil, invoicedomain.ErrInvoiceNotFinalized
	}

	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET status = ?, voided_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		invoicedomain.InvoiceStatusVoid,
		now,
		now,
		invoice.ID,
		invoicedomain.InvoiceStatusFinalized,
	)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, invoicedomain.ErrInvoiceNotFinalized
	}

	invoice.Status = invoicedomain.InvoiceStatusVoid
	invoice.VoidedAt = &now
	invoice.UpdatedAt = now

	reason = strings.TrimSpace(reason)
	if reason != "" {
		s.log.Info("voided invoice",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("reason", reason),
		)
	}

	resp := s.toResponse(invoice, lines)
	return &resp, nil
}

func (s *Service) findForOrg(ctx context.Context, id string) (*invoicedomain.Invoice, []*invoicedomain.InvoiceLine, error) {
	orgID, err := s.orgIDFromContext(ctx)
	if err != nil {
		return nil, nil, err
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, nil, invoicedomain.ErrInvalidID
	}

	invoice, err := s.invoicerepo.FindOne(ctx, &invoicedomain.Invoice{ID: invoiceID, OrgID: orgID})
	if err != nil {
		return nil, nil, err
	}
	if invoice == nil {
		return nil, nil, invoicedomain.ErrNotFound
	}

	lines, err := s.loadLines(ctx, invoice.ID)
	if err != nil {
		return nil, nil, err
	}
	return invoice, lines, nil
}

func (s *Service) loadLines(ctx context.Context, invoiceID snowflake.ID) ([]*invoicedomain.InvoiceLine, error) {
	return s.linerepo.Find(ctx, &invoicedomain.InvoiceLine{InvoiceID: invoiceID})
}

func (s *Service) orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, invoicedomain.ErrInvalidOrganization
	}
	return orgID, nil
}

func (s *Service) toResponse(invoice *invoicedomain.Invoice, lines []*invoicedomain.InvoiceLine) invoicedomain.Response {
	resp := invoicedomain.Response{
		ID:                        invoice.ID.String(),
		OrganizationID:            invoice.OrgID.String(),
		CustomerID:                invoice.CustomerID.String(),
		InvoiceNumber:             invoice.InvoiceNumber,
		Status:                    invoice.Status,
		Currency:                  invoice.Currency,
		TaxRateIDs:                []string(invoice.TaxRateIDs),
		DiscountAmount:            invoice.DiscountAmount,
		SubtotalAmount:            invoice.SubtotalAmount,
		TaxesAmount:               invoice.TaxesAmount,
		TotalExcludingTaxesAmount: invoice.TotalExcludingTaxesAmount,
		TotalAmount:               invoice.TotalAmount,
		IssuedAt:                  invoice.IssuedAt,
		FinalizedAt:               invoice.FinalizedAt,
		VoidedAt:                  invoice.VoidedAt,
		CreatedAt:                 invoice.CreatedAt,
		UpdatedAt:                 invoice.UpdatedAt,
	}
	if invoice.NumberingSystemID != nil {
		systemID := invoice.NumberingSystemID.String()
		resp.NumberingSystemID = &systemID
	}
	for _, line := range lines {
		if line == nil {
			continue
		}
		lineResp := invoicedomain.LineResponse{
			ID:                      line.ID.String(),
			Description:             line.Description,
			Quantity:                line.Quantity,
			UnitAmount:              line.UnitAmount,
			Amount:                  line.Amount,
			TaxableAmount:           line.TaxableAmount,
			TaxAmount:               line.TaxAmount,
			TotalExcludingTaxAmount: line.TotalExcludingTaxAmount,
			TotalAmount:             line.TotalAmount,
			OutstandingQuantity:     line.OutstandingQuantity,
			OutstandingAmount:       line.OutstandingAmount,
		}
		if line.PriceID != nil {
			priceID := line.PriceID.String()
			lineResp.PriceID = &priceID
		}
		resp.Lines = append(resp.Lines, lineResp)
	}
	return resp
}

func invoiceTotal(taxResp taxdomain.CalculateInvoiceTaxesResponse, inclusive bool) int64 {
	if inclusive {
		return taxResp.TotalTaxableAmount
	}
	return taxResp.TotalTaxableAmount + taxResp.TotalTaxAmount
}
