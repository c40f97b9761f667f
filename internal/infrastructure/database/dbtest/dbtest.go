// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/semo-billing/internal/config"
	"github.com/wekeepgrowing/semo-billing/internal/infrastructure/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// New returns a migrated SQLite database that is closed when the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	logger := zap.NewNop()
	db, err := database.NewConnection(&config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Name:   ":memory:",
	}, logger)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, logger))

	t.Cleanup(func() {
		_ = database.Close(db, logger)
	})
	return db
}
