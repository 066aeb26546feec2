package pricing

import (
	"github.com/smallbiznis/facture/internal/pricing/domain"
	"github.com/smallbiznis/facture/internal/pricing/repository"
	"github.com/smallbiznis/facture/internal/pricing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(func(s domain.Service) domain.Quoter { return s }),
)
