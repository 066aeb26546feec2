package numbering

import (
	"github.com/smallbiznis/facture/internal/numbering/domain"
	"github.com/smallbiznis/facture/internal/numbering/repository"
	"github.com/smallbiznis/facture/internal/numbering/service"
	"go.uber.org/fx"
)

var Module = fx.Module("numbering.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(func(s domain.Service) domain.Issuer { return s }),
)
