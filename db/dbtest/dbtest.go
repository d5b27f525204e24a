// Package dbtest opens throwaway in-memory SQLite databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"catalog/db"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated database private to t and closes it when t ends.
func New(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Discard,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	// one connection keeps the shared in-memory database alive and avoids SQLITE_BUSY
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return conn
}

// FailWrites makes every create, update and delete on table fail with err.
func FailWrites(t *testing.T, conn *gorm.DB, table string, err error) {
	t.Helper()
	fail := func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			tx.AddError(err)
		}
	}
	name := "dbtest:fail_" + table
	must(t, conn.Callback().Create().Before("gorm:create").Register(name, fail))
	must(t, conn.Callback().Update().Before("gorm:update").Register(name, fail))
	must(t, conn.Callback().Delete().Before("gorm:delete").Register(name, fail))
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Failed to register callback: %v", err)
	}
}
