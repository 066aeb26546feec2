package invoice

import (
	"github.com/smallbiznis/facture/internal/invoice/service"
	"github.com/smallbiznis/facture/internal/numbering"
	"github.com/smallbiznis/facture/internal/pricing"
	"github.com/smallbiznis/facture/internal/tax"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	tax.Module,
	numbering.Module,
	pricing.Module,
	fx.Provide(service.NewService),
)
