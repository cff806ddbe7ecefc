package billingcycle

import (
	"github.com/smallbiznis/recaudo/internal/billingcycle/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billingcycle.service",
	fx.Provide(service.New),
)
