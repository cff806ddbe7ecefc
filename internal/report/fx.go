package report

import (
	"github.com/smallbiznis/recaudo/internal/report/service"
	"go.uber.org/fx"
)

var Module = fx.Module("report.service",
	fx.Provide(service.New),
)
