package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/facture/internal/allocation"
	"github.com/smallbiznis/facture/internal/money"
	"github.com/smallbiznis/facture/internal/orgcontext"
	"github.com/smallbiznis/facture/internal/tax/calc"
	taxdomain "github.com/smallbiznis/facture/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  taxdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  taxdomain.Repository
}

func NewService(p serviceParams) taxdomain.Service {
	return &Service{
		log:   p.Log.Named("tax.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// CalculateInvoiceTaxes applies the invoice's tax rates to its lines.
//
// The invoice-level discount is subtracted from the line total first,
// and the remaining taxable amount is distributed back across lines in
// proportion to their amounts. Percentage rates are computed per line;
// fixed rates are distributed across lines the same way, so both paths
// stay cent-exact at the invoice level.
func (s *Service) CalculateInvoiceTaxes(ctx context.Context, req taxdomain.CalculateInvoiceTaxesRequest) (taxdomain.CalculateInvoiceTaxesResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return taxdomain.CalculateInvoiceTaxesResponse{}, taxdomain.ErrInvalidOrganization
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		return taxdomain.CalculateInvoiceTaxesResponse{}, taxdomain.ErrInvalidCurrency
	}

	rates, err := s.loadRates(ctx, orgID, currency, req.TaxRateIDs)
	if err != nil {
		return taxdomain.CalculateInvoiceTaxesResponse{}, err
	}

	resp := taxdomain.CalculateInvoiceTaxesResponse{
		Currency: currency,
		Lines:    make([]taxdomain.TaxedLine, 0, len(req.Lines)),
	}
	if len(req.Lines) == 0 {
		return resp, nil
	}

	lineAmounts := lo.Map(req.Lines, func(line taxdomain.TaxableLine, _ int) money.Money {
		return money.FromCents(line.Amount, currency)
	})
	total := money.Zero(currency)
	for _, amount := range lineAmounts {
		total = total.Add(amount)
	}

	discount := money.FromCents(req.DiscountAmount, currency)
	if discount.IsNegative() {
		discount = money.Zero(currency)
	}
	if discount.Cmp(total) > 0 {
		discount = total
	}
	taxableTotal := total.Sub(discount)
	shares := allocation.Allocate(taxableTotal, lineAmounts)

	percentage := lo.Filter(rates, func(r taxdomain.TaxRate, _ int) bool {
		return r.RateType == taxdomain.RateTypePercentage
	})
	fixed := lo.Filter(rates, func(r taxdomain.TaxRate, _ int) bool {
		return r.RateType == taxdomain.RateTypeFixed
	})

	inclusive := len(rates) > 0 && rates[0].Inclusive
	multiplier := decimal.NewFromInt(1)
	for _, rate := range percentage {
		multiplier = multiplier.Add(rate.Percentage)
	}

	percRates := lo.Map(percentage, func(r taxdomain.TaxRate, _ int) calc.Rate {
		return calc.PercentageRate{Fraction: r.Percentage}
	})

	// One allocation per fixed rate, indexed like the lines.
	fixedShares := make([][]money.Money, len(fixed))
	for i, rate := range fixed {
		fixedShares[i] = allocation.Allocate(money.FromCents(rate.FixedAmount, currency), lineAmounts)
	}

	for i, line := range req.Lines {
		share := shares[i]

		net := share
		if inclusive && multiplier.GreaterThan(decimal.NewFromInt(1)) {
			net = share.Div(multiplier).Round()
		}

		amounts := calc.CalculateTaxAmounts(net, share, taxMultiplierFor(inclusive, multiplier), percRates)

		taxed := taxdomain.TaxedLine{
			LineID:        line.LineID,
			TaxableAmount: share.Cents(),
			Taxes:         make([]taxdomain.LineTax, 0, len(rates)),
		}
		for j, rate := range percentage {
			taxed.Taxes = append(taxed.Taxes, taxdomain.LineTax{
				TaxRateID:  rate.ID.String(),
				Name:       rate.Name,
				Percentage: rate.Percentage,
				Amount:     amounts[j].Cents(),
			})
			taxed.TaxAmount += amounts[j].Cents()
		}
		for j, rate := range fixed {
			amount := fixedShares[j][i].Cents()
			taxed.Taxes = append(taxed.Taxes, taxdomain.LineTax{
				TaxRateID: rate.ID.String(),
				Name:      rate.Name,
				Amount:    amount,
			})
			taxed.TaxAmount += amount
		}

		resp.Lines = append(resp.Lines, taxed)
		resp.TotalTaxableAmount += share.Cents()
		resp.TotalTaxAmount += taxed.TaxAmount
		if inclusive {
			resp.TotalExcludingTaxes += share.Cents() - taxed.TaxAmount
		} else {
			resp.TotalExcludingTaxes += share.Cents()
		}
	}

	s.log.Debug("calculated invoice taxes",
		zap.String("currency", currency),
		zap.Int("lines", len(resp.Lines)),
		zap.Int64("total_tax_amount", resp.TotalTaxAmount),
	)
	return resp, nil
}

func (s *Service) loadRates(ctx context.Context, orgID snowflake.ID, currency string, rawIDs []string) ([]taxdomain.TaxRate, error) {
	ids := make([]snowflake.ID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil {
			return nil, taxdomain.ErrInvalidID
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	rates, err := s.repo.FindByIDs(ctx, orgID, ids)
	if err != nil {
		return nil, err
	}
	if len(rates) != len(ids) {
		return nil, taxdomain.ErrNotFound
	}

	for _, rate := range rates {
		if !rate.IsEnabled {
			return nil, taxdomain.ErrRateDisabled
		}
		if rate.RateType == taxdomain.RateTypeFixed && rate.Currency != currency {
			return nil, taxdomain.ErrCurrencyMismatch
		}
		if rate.Inclusive != rates[0].Inclusive {
			return nil, taxdomain.ErrMixedInclusion
		}
	}
	return rates, nil
}

func taxMultiplierFor(inclusive bool, multiplier decimal.Decimal) decimal.Decimal {
	if inclusive {
		return multiplier
	}
	return decimal.NewFromInt(1)
}
