// Package seed creates the rows every installation needs before serving
// traffic: the chart of accounts and the default sede.
package seed

import (
	"context"
	"fmt"

	"github.com/smallbiznis/recaudo/internal/actorcontext"
	"github.com/smallbiznis/recaudo/internal/config"
	ledgerdomain "github.com/smallbiznis/recaudo/internal/ledger/domain"
	sededomain "github.com/smallbiznis/recaudo/internal/sede/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("seed",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Config    config.Config
	SedeSvc   sededomain.Service
	LedgerSvc ledgerdomain.Service
}

type Seeder struct {
	log       *zap.Logger
	sedeName  string
	sedeSvc   sededomain.Service
	ledgerSvc ledgerdomain.Service
}

func New(p Params) *Seeder {
	return &Seeder{
		log:       p.Log.Named("seed"),
		sedeName:  p.Config.DefaultSedeName,
		sedeSvc:   p.SedeSvc,
		ledgerSvc: p.LedgerSvc,
	}
}

// Run is idempotent; it is safe on every boot.
func (s *Seeder) Run(ctx context.Context) error {
	ctx = actorcontext.WithActor(ctx, actorcontext.System)

	if err := s.ledgerSvc.EnsureAccounts(ctx); err != nil {
		return fmt.Errorf("seed ledger accounts: %w", err)
	}
	if s.sedeName == "" {
		return nil
	}
	sede, err := s.sedeSvc.Ensure(ctx, sededomain.CreateRequest{Name: s.sedeName})
	if err != nil {
		return fmt.Errorf("seed default sede: %w", err)
	}
	s.log.Info("seed complete", zap.String("sede_code", sede.Code))
	return nil
}
