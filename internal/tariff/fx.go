package tariff

import (
	geodomain "github.com/smallbiznis/recaudo/internal/geo/domain"
	"github.com/smallbiznis/recaudo/internal/tariff/domain"
	"github.com/smallbiznis/recaudo/internal/tariff/repository"
	"github.com/smallbiznis/recaudo/internal/tariff/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tariff.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(geo geodomain.Service) domain.ZoneLookup { return geo }),
	fx.Provide(service.New),
)
