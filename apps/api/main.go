package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/recaudo/internal/audit"
	"github.com/smallbiznis/recaudo/internal/billingcycle"
	"github.com/smallbiznis/recaudo/internal/client"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/config"
	"github.com/smallbiznis/recaudo/internal/debt"
	"github.com/smallbiznis/recaudo/internal/geo"
	"github.com/smallbiznis/recaudo/internal/ledger"
	"github.com/smallbiznis/recaudo/internal/lock"
	"github.com/smallbiznis/recaudo/internal/migration"
	"github.com/smallbiznis/recaudo/internal/observability"
	"github.com/smallbiznis/recaudo/internal/payment"
	"github.com/smallbiznis/recaudo/internal/receipt"
	"github.com/smallbiznis/recaudo/internal/report"
	"github.com/smallbiznis/recaudo/internal/sede"
	"github.com/smallbiznis/recaudo/internal/seed"
	"github.com/smallbiznis/recaudo/internal/server"
	"github.com/smallbiznis/recaudo/internal/tariff"
	"github.com/smallbiznis/recaudo/internal/visit"
	"github.com/smallbiznis/recaudo/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,

		audit.Module,
		ledger.Module,
		geo.Module,
		sede.Module,
		client.Module,
		tariff.Module,
		debt.Module,
		billingcycle.Module, // manual generation endpoint
		payment.Module,
		visit.Module,
		report.Module,
		receipt.Module,

		seed.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
