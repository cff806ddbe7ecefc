package migration

import (
	"io/fs"
	"testing"

	"github.com/smallbiznis/recaudo/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAutoMigratesOnSQLite(t *testing.T) {
	db := dbtest.Open(t)

	require.NoError(t, Migrate(db))
	for _, table := range []string{
		"geo_nodes", "sedes", "clients", "services", "tariffs", "debts",
		"billing_runs", "payments", "payment_allocations", "ledger_accounts",
		"ledger_entries", "ledger_entry_lines", "audit_entries", "visits",
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	require.NoError(t, Migrate(db), "second run is a no-op")
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}
