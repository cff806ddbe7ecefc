package audit

import (
	"github.com/smallbiznis/recaudo/internal/audit/domain"
	"github.com/smallbiznis/recaudo/internal/audit/repository"
	"github.com/smallbiznis/recaudo/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(func(svc domain.Service) domain.Recorder { return svc }),
)
