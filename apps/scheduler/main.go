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
	"github.com/smallbiznis/recaudo/internal/lock"
	"github.com/smallbiznis/recaudo/internal/observability"
	"github.com/smallbiznis/recaudo/internal/scheduler"
	"github.com/smallbiznis/recaudo/internal/tariff"
	tariffdomain "github.com/smallbiznis/recaudo/internal/tariff/domain"
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

		// Domain services required by the jobs
		audit.Module,
		geo.Module,
		client.Module,
		tariff.Module,
		// Tariffs change in the API process; resolve against the database.
		fx.Supply(tariffdomain.CacheOff),
		debt.Module,
		billingcycle.Module,

		// No server module; the API process owns migrations.
		scheduler.Module,
	)
	app.Run()
}

// Node 2 keeps scheduler ids disjoint from the API process.
func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
