// Package testutil provides a SQLite-backed store for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

// NewDB opens a migrated SQLite database in a temporary directory.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")+"?_foreign_keys=on"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps transactions and plain reads on the same SQLite handle.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repositories.AutoMigrate(db))
	return db
}

// NewStore returns a GormStore over NewDB.
func NewStore(t *testing.T) *repositories.GormStore {
	t.Helper()
	return repositories.NewGormStore(NewDB(t))
}

// NewStoreFor wraps an existing database, e.g. one already handed to the router.
func NewStoreFor(db *gorm.DB) *repositories.GormStore {
	return repositories.NewGormStore(db)
}

// CreateUser inserts an active user named name.
func CreateUser(t *testing.T, store repositories.Store, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Active: true}
	require.NoError(t, store.Users().CreateUser(context.Background(), user))
	return user
}
