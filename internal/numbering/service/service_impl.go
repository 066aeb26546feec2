package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	numberingdomain "github.com/smallbiznis/facture/internal/numbering/domain"
	"github.com/smallbiznis/facture/internal/numbering/format"
	"github.com/smallbiznis/facture/internal/observability/metrics"
	"github.com/smallbiznis/facture/internal/orgcontext"
	"github.com/smallbiznis/facture/pkg/db/option"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type serviceParams struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    numberingdomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    numberingdomain.Repository
	metrics *metrics.Metrics
}

func NewService(p serviceParams) numberingdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("numbering.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req numberingdomain.CreateRequest) (*numberingdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, numberingdomain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, numberingdomain.ErrInvalidName
	}

	docType := numberingdomain.DocumentType(strings.ToUpper(strings.TrimSpace(string(req.DocumentType))))
	if docType != numberingdomain.DocumentTypeInvoice && docType != numberingdomain.DocumentTypeCreditNote {
		return nil, numberingdomain.ErrInvalidDocumentType
	}

	template := strings.TrimSpace(req.Template)
	if template == "" {
		template = format.DefaultTemplate
	}
	if err := format.ValidateTemplate(template); err != nil {
		return nil, numberingdomain.ErrInvalidTemplate
	}

	interval := format.ResetNever
	if req.ResetInterval != "" {
		parsed, err := format.ParseResetInterval(req.ResetInterval)
		if err != nil {
			return nil, err
		}
		interval = parsed
	}

	isEnabled := true
	if req.IsEnabled != nil {
		isEnabled = *req.IsEnabled
	}

	now := time.Now().UTC()
	record := &numberingdomain.NumberingSystem{
		ID:            s.genID.Generate(),
		OrgID:         orgID,
		Name:          name,
		DocumentType:  docType,
		Template:      template,
		ResetInterval: interval,
		IsEnabled:     isEnabled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req numberingdomain.ListRequest) ([]numberingdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, numberingdomain.ErrInvalidOrganization
	}

	systems, err := s.repo.List(ctx, orgID, numberingdomain.ListRequest{
		DocumentType: strings.ToUpper(strings.TrimSpace(req.DocumentType)),
		IsEnabled:    req.IsEnabled,
		SortBy:       strings.TrimSpace(req.SortBy),
		OrderBy:      strings.TrimSpace(req.OrderBy),
	})
	if err != nil {
		return nil, err
	}

	return lo.Map(systems, func(system numberingdomain.NumberingSystem, _ int) numberingdomain.Response {
		return toResponse(&system)
	}), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*numberingdomain.Response, error) {
	system, err := s.findForOrg(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := toResponse(system)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req numberingdomain.UpdateRequest) (*numberingdomain.Response, error) {
	system, err := s.findForOrg(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, numberingdomain.ErrInvalidName
		}
		system.Name = name
	}
	if req.Template != nil {
		template := strings.TrimSpace(*req.Template)
		if err := format.ValidateTemplate(template); err != nil {
			return nil, numberingdomain.ErrInvalidTemplate
		}
		system.Template = template
	}
	if req.ResetInterval != nil {
		interval, err := format.ParseResetInterval(*req.ResetInterval)
		if err != nil {
			return nil, err
		}
		system.ResetInterval = interval
	}

	system.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, system); err != nil {
		return nil, err
	}

	resp := toResponse(system)
	return &resp, nil
}

func (s *Service) Disable(ctx context.Context, id string) (*numberingdomain.Response, error) {
	system, err := s.findForOrg(ctx, id)
	if err != nil {
		return nil, err
	}

	system.IsEnabled = false
	system.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, system); err != nil {
		return nil, err
	}

	resp := toResponse(system)
	return &resp, nil
}

// NextNumber renders and records the next number for the system inside
// one transaction. The numbering-system row is locked for the duration
// of the transaction so concurrent issuers serialize on it and cannot
// count the same window twice.
func (s *Service) NextNumber(ctx context.Context, req numberingdomain.NextNumberRequest) (numberingdomain.NextNumberResponse, error) {
	system, err := s.findForOrg(ctx, req.SystemID)
	if err != nil {
		return numberingdomain.NextNumberResponse{}, err
	}
	if !system.IsEnabled {
		return numberingdomain.NextNumberResponse{}, numberingdomain.ErrSystemDisabled
	}

	effectiveAt := time.Now().UTC()
	if req.EffectiveAt != nil {
		effectiveAt = req.EffectiveAt.UTC()
	}

	var resp numberingdomain.NextNumberResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.lockSystem(ctx, tx, system.OrgID, system.ID)
		if err != nil {
			return err
		}
		if !locked.IsEnabled {
			return numberingdomain.ErrSystemDisabled
		}

		count, err := s.countIssued(ctx, tx, locked, effectiveAt)
		if err != nil {
			return err
		}

		number := format.Render(locked.Template, count, effectiveAt)
		if err := s.recordIssued(ctx, tx, locked, number, count+1, effectiveAt); err != nil {
			return err
		}

		resp = numberingdomain.NextNumberResponse{
			Number:      number,
			Sequence:    count + 1,
			EffectiveAt: effectiveAt,
		}
		return nil
	})
	if err != nil {
		return numberingdomain.NextNumberResponse{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordNumberRendered(ctx, string(system.ResetInterval))
	}
	s.log.Debug("issued document number",
		zap.String("system_id", system.ID.String()),
		zap.String("number", resp.Number),
		zap.Int64("sequence", resp.Sequence),
	)
	return resp, nil
}

func (s *Service) Preview(ctx context.Context, req numberingdomain.NextNumberRequest) (numberingdomain.NextNumberResponse, error) {
	system, err := s.findForOrg(ctx, req.SystemID)
	if err != nil {
		return numberingdomain.NextNumberResponse{}, err
	}

	effectiveAt := time.Now().UTC()
	if req.EffectiveAt != nil {
		effectiveAt = req.EffectiveAt.UTC()
	}

	count, err := s.countIssued(ctx, s.db, system, effectiveAt)
	if err != nil {
		return numberingdomain.NextNumberResponse{}, err
	}

	return numberingdomain.NextNumberResponse{
		Number:      format.Render(system.Template, count, effectiveAt),
		Sequence:    count + 1,
		EffectiveAt: effectiveAt,
	}, nil
}

// lockSystem re-fetches the numbering system inside the transaction with
// a row lock, serializing issuers that share the system.
func (s *Service) lockSystem(ctx context.Context, tx *gorm.DB, orgID, id snowflake.ID) (*numberingdomain.NumberingSystem, error) {
	var system numberingdomain.NumberingSystem
	stmt := option.WithLockForUpdate().Apply(
		tx.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id),
	)
	if err := stmt.First(&system).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, numberingdomain.ErrNotFound
		}
		return nil, err
	}
	return &system, nil
}

func (s *Service) countIssued(ctx context.Context, tx *gorm.DB, system *numberingdomain.NumberingSystem, effectiveAt time.Time) (int64, error) {
	start, end := format.CalculateBounds(system.ResetInterval, effectiveAt)

	var count int64
	stmt := tx.WithContext(ctx).
		Model(&numberingdomain.IssuedNumber{}).
		Where("system_id = ?", system.ID)
	if start != nil {
		stmt = stmt.Where("effective_at >= ? AND effective_at < ?", *start, *end)
	}
	if err := stmt.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Service) recordIssued(ctx context.Context, tx *gorm.DB, system *numberingdomain.NumberingSystem, number string, sequence int64, effectiveAt time.Time) error {
	return tx.WithContext(ctx).Create(&numberingdomain.IssuedNumber{
		ID:          s.genID.Generate(),
		OrgID:       system.OrgID,
		SystemID:    system.ID,
		Number:      number,
		Sequence:    sequence,
		EffectiveAt: effectiveAt,
	}).Error
}

func (s *Service) findForOrg(ctx context.Context, id string) (*numberingdomain.NumberingSystem, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, numberingdomain.ErrInvalidOrganization
	}

	systemID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, numberingdomain.ErrInvalidID
	}

	system, err := s.repo.FindByID(ctx, orgID, systemID)
	if err != nil {
		return nil, err
	}
	if system == nil {
		return nil, numberingdomain.ErrNotFound
	}
	return system, nil
}

func toResponse(system *numberingdomain.NumberingSystem) numberingdomain.Response {
	return numberingdomain.Response{
		ID:             system.ID.String(),
		OrganizationID: system.OrgID.String(),
		Name:           system.Name,
		DocumentType:   system.DocumentType,
		Template:       system.Template,
		ResetInterval:  string(system.ResetInterval),
		IsEnabled:      system.IsEnabled,
		CreatedAt:      system.CreatedAt,
		UpdatedAt:      system.UpdatedAt,
	}
}
