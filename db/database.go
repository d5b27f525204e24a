package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"catalog/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to dsn and migrates the schema. DSNs that look like Postgres
// ("postgres://...", "host=...") use the Postgres driver; anything else is
// treated as a SQLite database file.
func Open(dsn string) (*gorm.DB, error) {
	dialector, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		// products and banners may point at deleted categories; nothing guards that
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger: logger.New(gormWriter{}, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := Migrate(conn); err != nil {
		return nil, err
	}
	log.Info().Str("driver", dialector.Name()).Msg("Database connected")
	return conn, nil
}

func dialectorFor(dsn string) (gorm.Dialector, error) {
	if isPostgres(dsn) {
		return postgres.Open(dsn), nil
	}
	if dsn == "" {
		dsn = "catalog.db"
	}
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		// Ensure the directory exists (create if it doesn't)
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}
	return sqlite.Open(dsn), nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.Category{}, &models.Product{}, &models.Banner{},
		&models.Admin{}, &models.User{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// gormWriter sends GORM's log lines to zerolog.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...any) {
	log.Warn().Str("component", "gorm").Msgf(format, args...)
}
