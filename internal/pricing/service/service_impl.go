package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/facture/internal/money"
	"github.com/smallbiznis/facture/internal/observability/metrics"
	"github.com/smallbiznis/facture/internal/orgcontext"
	pricingdomain "github.com/smallbiznis/facture/internal/pricing/domain"
	"github.com/smallbiznis/facture/internal/pricing/tiers"
	"github.com/smallbiznis/facture/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type serviceParams struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    pricingdomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	repo    pricingdomain.Repository
	metrics *metrics.Metrics
}

func NewService(p serviceParams) pricingdomain.Service {
	return &Service{
		log:     p.Log.Named("pricing.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req pricingdomain.CreateRequest) (*pricingdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, pricingdomain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pricingdomain.ErrInvalidName
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		return nil, pricingdomain.ErrInvalidCurrency
	}

	model := pricingdomain.PricingModel(strings.ToUpper(strings.TrimSpace(string(req.PricingModel))))

	now := time.Now().UTC()
	record := &pricingdomain.Price{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		Name:         name,
		Currency:     currency,
		PricingModel: model,
		IsEnabled:    true,
		Metadata:     datatypes.JSONMap{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.LookupKey != nil {
		key := strings.TrimSpace(*req.LookupKey)
		if key != "" {
			record.LookupKey = &key
		}
	}

	switch model {
	case pricingdomain.PricingModelFlat, pricingdomain.PricingModelPerUnit:
		if len(req.Tiers) > 0 {
			return nil, pricingdomain.ErrUnexpectedTiers
		}
		if req.UnitAmount == nil || *req.UnitAmount < 0 {
			return nil, pricingdomain.ErrInvalidUnitAmount
		}
		record.UnitAmount = *req.UnitAmount
	case pricingdomain.PricingModelTieredVolume, pricingdomain.PricingModelTieredGraduated:
		if len(req.Tiers) == 0 {
			return nil, pricingdomain.ErrMissingTiers
		}
		inputs := append([]pricingdomain.TierInput(nil), req.Tiers...)
		sort.SliceStable(inputs, func(i, j int) bool { return inputs[i].FromValue < inputs[j].FromValue })

		record.Tiers = make([]pricingdomain.PriceTier, 0, len(inputs))
		for i, input := range inputs {
			record.Tiers = append(record.Tiers, pricingdomain.PriceTier{
				ID:         s.genID.Generate(),
				OrgID:      orgID,
				PriceID:    record.ID,
				FromValue:  input.FromValue,
				ToValue:    input.ToValue,
				UnitAmount: input.UnitAmount,
				Position:   i,
				CreatedAt:  now,
			})
		}
		if err := scheduleFor(record).Validate(); err != nil {
			return nil, err
		}
	default:
		return nil, pricingdomain.ErrInvalidModel
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, pricingdomain.ErrDuplicateLookupKey
		}
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req pricingdomain.ListRequest) ([]pricingdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, pricingdomain.ErrInvalidOrganization
	}

	prices, err := s.repo.List(ctx, orgID, pricingdomain.ListRequest{
		Currency:     strings.ToUpper(strings.TrimSpace(req.Currency)),
		PricingModel: strings.ToUpper(strings.TrimSpace(req.PricingModel)),
		LookupKey:    strings.TrimSpace(req.LookupKey),
		IsEnabled:    req.IsEnabled,
		SortBy:       strings.TrimSpace(req.SortBy),
		OrderBy:      strings.TrimSpace(req.OrderBy),
	})
	if err != nil {
		return nil, err
	}

	return lo.Map(prices, func(price pricingdomain.Price, _ int) pricingdomain.Response {
		return toResponse(&price)
	}), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*pricingdomain.Response, error) {
	price, err := s.findForOrg(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := toResponse(price)
	return &resp, nil
}

func (s *Service) Disable(ctx context.Context, id string) (*pricingdomain.Response, error) {
	price, err := s.findForOrg(ctx, id)
	if err != nil {
		return nil, err
	}

	price.IsEnabled = false
	price.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, price); err != nil {
		return nil, err
	}

	resp := toResponse(price)
	return &resp, nil
}

func (s *Service) Quote(ctx context.Context, req pricingdomain.QuoteRequest) (pricingdomain.QuoteResponse, error) {
	price, err := s.findForOrg(ctx, req.PriceID)
	if err != nil {
		return pricingdomain.QuoteResponse{}, err
	}
	if !price.IsEnabled {
		return pricingdomain.QuoteResponse{}, pricingdomain.ErrPriceDisabled
	}
	if req.Quantity < 0 {
		return pricingdomain.QuoteResponse{}, pricingdomain.ErrInvalidQuantity
	}

	var total, unit money.Money
	switch price.PricingModel {
	case pricingdomain.PricingModelFlat:
		total = money.FromCents(price.UnitAmount, price.Currency)
		unit = total
	case pricingdomain.PricingModelPerUnit:
		unit = money.FromCents(price.UnitAmount, price.Currency)
		total = unit.Mul(decimal.NewFromInt(req.Quantity)).Round()
	case pricingdomain.PricingModelTieredVolume, pricingdomain.PricingModelTieredGraduated:
		schedule := scheduleFor(price)
		total = schedule.CalculateAmount(req.Quantity)
		unit = schedule.CalculateUnitAmount(req.Quantity)
	default:
		return pricingdomain.QuoteResponse{}, pricingdomain.ErrInvalidModel
	}

	if s.metrics != nil {
		s.metrics.RecordQuoteComputed(ctx, string(price.PricingModel))
	}

	return pricingdomain.QuoteResponse{
		PriceID:      price.ID.String(),
		PricingModel: price.PricingModel,
		Currency:     price.Currency,
		Quantity:     req.Quantity,
		UnitAmount:   unit.Cents(),
		TotalAmount:  total.Cents(),
	}, nil
}

func (s *Service) findForOrg(ctx context.Context, id string) (*pricingdomain.Price, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, pricingdomain.ErrInvalidOrganization
	}

	priceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, pricingdomain.ErrInvalidID
	}

	price, err := s.repo.FindByID(ctx, orgID, priceID)
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, pricingdomain.ErrNotFound
	}
	return price, nil
}

func scheduleFor(price *pricingdomain.Price) tiers.Schedule {
	mode := tiers.ModeVolume
	if price.PricingModel == pricingdomain.PricingModelTieredGraduated {
		mode = tiers.ModeGraduated
	}
	return tiers.Schedule{
		Mode:     mode,
		Currency: price.Currency,
		Tiers: lo.Map(price.Tiers, func(tier pricingdomain.PriceTier, _ int) tiers.Tier {
			return tiers.Tier{
				UnitAmount: money.FromCents(tier.UnitAmount, price.Currency),
				FromValue:  tier.FromValue,
				ToValue:    tier.ToValue,
			}
		}),
	}
}

func toResponse(price *pricingdomain.Price) pricingdomain.Response {
	return pricingdomain.Response{
		ID:             price.ID.String(),
		OrganizationID: price.OrgID.String(),
		Name:           price.Name,
		LookupKey:      price.LookupKey,
		Currency:       price.Currency,
		PricingModel:   price.PricingModel,
		UnitAmount:     price.UnitAmount,
		Tiers: lo.Map(price.Tiers, func(tier pricingdomain.PriceTier, _ int) pricingdomain.TierResponse {
			return pricingdomain.TierResponse{
				FromValue:  tier.FromValue,
				ToValue:    tier.ToValue,
				UnitAmount: tier.UnitAmount,
			}
		}),
		IsEnabled: price.IsEnabled,
		CreatedAt: price.CreatedAt,
		UpdatedAt: price.UpdatedAt,
	}
}
