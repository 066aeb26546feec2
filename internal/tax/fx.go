package tax

import (
	"github.com/smallbiznis/facture/internal/tax/domain"
	"github.com/smallbiznis/facture/internal/tax/repository"
	"github.com/smallbiznis/facture/internal/tax/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tax.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(func(s domain.Service) domain.Calculator { return s }),
)
