package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	billingcycledomain "github.com/smallbiznis/recaudo/internal/billingcycle/domain"
	clientdomain "github.com/smallbiznis/recaudo/internal/client/domain"
	debtdomain "github.com/smallbiznis/recaudo/internal/debt/domain"
	geodomain "github.com/smallbiznis/recaudo/internal/geo/domain"
	ledgerdomain "github.com/smallbiznis/recaudo/internal/ledger/domain"
	paymentdomain "github.com/smallbiznis/recaudo/internal/payment/domain"
	sededomain "github.com/smallbiznis/recaudo/internal/sede/domain"
	tariffdomain "github.com/smallbiznis/recaudo/internal/tariff/domain"
	visitdomain "github.com/smallbiznis/recaudo/internal/visit/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&geodomain.GeoNode{},
		&sededomain.Sede{},
		&clientdomain.Client{},
		&clientdomain.ClientService{},
		&tariffdomain.Tariff{},
		&debtdomain.Debt{},
		&billingcycledomain.BillingRun{},
		&paymentdomain.Payment{},
		&paymentdomain.PaymentAllocation{},
		&ledgerdomain.LedgerAccount{},
		&ledgerdomain.LedgerEntry{},
		&ledgerdomain.LedgerEntryLine{},
		&auditdomain.AuditEntry{},
		&visitdomain.Visit{},
	}
}

// Migrate applies the versioned SQL migrations on postgres and falls back to
// AutoMigrate for mysql and sqlite.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if conn.Dialector.Name() != "postgres" {
		if err := conn.AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Close would also close the shared *sql.DB.

	return nil
}
