package client

import (
	"github.com/smallbiznis/recaudo/internal/client/domain"
	"github.com/smallbiznis/recaudo/internal/client/repository"
	"github.com/smallbiznis/recaudo/internal/client/service"
	geodomain "github.com/smallbiznis/recaudo/internal/geo/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(geo geodomain.Service) domain.ZoneLookup { return geo }),
	fx.Provide(service.New),
)
