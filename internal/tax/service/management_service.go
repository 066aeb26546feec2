package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/smallbiznis/facture/internal/orgcontext"
	taxdomain "github.com/smallbiznis/facture/internal/tax/domain"
	"gorm.io/datatypes"
)

func (s *Service) Create(ctx context.Context, req taxdomain.CreateRequest) (*taxdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, taxdomain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, taxdomain.ErrInvalidName
	}

	description := strings.TrimSpace(ptrToString(req.Description))
	var descriptionPtr *string
	if description != "" {
		descriptionPtr = &description
	}

	isEnabled := true
	if req.IsEnabled != nil {
		isEnabled = *req.IsEnabled
	}

	now := time.Now().UTC()
	record := &taxdomain.TaxRate{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Name:        name,
		Description: descriptionPtr,
		RateType:    taxdomain.RateType(strings.ToUpper(strings.TrimSpace(string(req.RateType)))),
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
		Inclusive:   req.Inclusive,
		IsEnabled:   isEnabled,
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Percentage != nil {
		record.Percentage = *req.Percentage
	}
	if req.FixedAmount != nil {
		record.FixedAmount = *req.FixedAmount
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req taxdomain.ListRequest) ([]taxdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, taxdomain.ErrInvalidOrganization
	}

	filter := taxdomain.ListRequest{
		Name:      strings.TrimSpace(req.Name),
		IsEnabled: req.IsEnabled,
		SortBy:    strings.TrimSpace(req.SortBy),
		OrderBy:   strings.TrimSpace(req.OrderBy),
	}

	rates, err := s.repo.List(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}

	return lo.Map(rates, func(rate taxdomain.TaxRate, _ int) taxdomain.Response {
		return toResponse(&rate)
	}), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*taxdomain.Response, error) {
	rate, err := s.findForOrg(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := toResponse(rate)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req taxdomain.UpdateRequest) (*taxdomain.Response, error) {
	rate, err := s.findForOrg(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, taxdomain.ErrInvalidName
		}
		rate.Name = name
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			rate.Description = nil
		} else {
			rate.Description = &description
		}
	}
	if req.Percentage != nil {
		rate.Percentage = *req.Percentage
	}
	if req.FixedAmount != nil {
		rate.FixedAmount = *req.FixedAmount
	}

	rate.UpdatedAt = time.Now().UTC()
	if err := rate.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, rate); err != nil {
		return nil, err
	}

	resp := toResponse(rate)
	return &resp, nil
}

func (s *Service) Disable(ctx context.Context, id string) (*taxdomain.Response, error) {
	rate, err := s.findForOrg(ctx, id)
	if err != nil {
		return nil, err
	}

	rate.IsEnabled = false
	rate.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, rate); err != nil {
		return nil, err
	}

	resp := toResponse(rate)
	return &resp, nil
}

func (s *Service) findForOrg(ctx context.Context, id string) (*taxdomain.TaxRate, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, taxdomain.ErrInvalidOrganization
	}

	rateID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, taxdomain.ErrInvalidID
	}

	rate, err := s.repo.FindByID(ctx, orgID, rateID)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, taxdomain.ErrNotFound
	}
	return rate, nil
}

func toResponse(rate *taxdomain.TaxRate) taxdomain.Response {
	resp := taxdomain.Response{
		ID:             rate.ID.String(),
		OrganizationID: rate.OrgID.String(),
		Name:           rate.Name,
		Description:    rate.Description,
		RateType:       rate.RateType,
		Percentage:     rate.Percentage,
		FixedAmount:    rate.FixedAmount,
		Currency:       rate.Currency,
		Inclusive:      rate.Inclusive,
		IsEnabled:      rate.IsEnabled,
		CreatedAt:      rate.CreatedAt,
		UpdatedAt:      rate.UpdatedAt,
	}
	if len(rate.Metadata) > 0 {
		resp.Metadata = map[string]any(rate.Metadata)
	}
	return resp
}

func ptrToString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
