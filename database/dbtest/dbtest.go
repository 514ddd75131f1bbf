// Package dbtest opens a database.DB over go-sqlmock for tests.
package dbtest

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/LittleGragon/coffee-shop-sub000/database"
	"github.com/LittleGragon/coffee-shop-sub000/logging"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a DB backed by sqlmock. Statements are recorded in its query
// log as in a live server. Expectations are verified when the test ends.
func New(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	queries := database.NewQueryLogger(100)
	recorder := &database.RecordingLogger{Interface: logger.Default.LogMode(logger.Silent), Queries: queries}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), database.GormConfig(recorder))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		sqlDB.Close()
	})

	return database.New(gdb, queries, logging.Discard()), mock
}
