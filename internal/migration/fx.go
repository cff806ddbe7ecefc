package migration

import (
	"context"

	"github.com/smallbiznis/recaudo/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, seeder *seed.Seeder) error {
		if err := Migrate(conn); err != nil {
			return err
		}
		return seeder.Run(context.Background())
	}),
)
