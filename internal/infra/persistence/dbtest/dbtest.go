// Package dbtest opens throwaway in-memory databases carrying the enrollment schema.
package dbtest

import (
	"context"
	"testing"

	"enrollment/internal/infra/persistence/postgres"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated database private to the calling test.
func New(tb testing.TB) *gorm.DB {
	tb.Helper()

	// One connection keeps every statement on the same in-memory database and
	// serializes writers the way row locks do on postgres.
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(tb, err)

	sqlDB, err := db.DB()
	require.NoError(tb, err)
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(tb, postgres.Migrate(context.Background(), db))

	return db
}
