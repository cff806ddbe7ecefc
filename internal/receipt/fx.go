package receipt

import (
	"github.com/smallbiznis/recaudo/internal/receipt/pdf"
	"github.com/smallbiznis/recaudo/internal/receipt/service"
	"go.uber.org/fx"
)

var Module = fx.Module("receipt.service",
	fx.Provide(pdf.New),
	fx.Provide(service.New),
)
