package geo

import (
	"github.com/smallbiznis/recaudo/internal/geo/repository"
	"github.com/smallbiznis/recaudo/internal/geo/service"
	"go.uber.org/fx"
)

var Module = fx.Module("geo.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
