package sede

import (
	"github.com/smallbiznis/recaudo/internal/sede/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sede.service",
	fx.Provide(service.New),
)
