// Package db opens the configured store and migrates the schema.
package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rollcall-admin/rollcall/internal/config"
	"github.com/rollcall-admin/rollcall/internal/db/dsn"
	"github.com/rollcall-admin/rollcall/internal/db/models"
)

// Models lists every table owned by the application.
func Models() []any {
	return []any{
		&models.User{},
		&models.Session{},
		&models.Person{},
	}
}

// Open connects to the configured engine. Unique violations are translated to
// gorm.ErrDuplicatedKey by the dialector.
func Open(cfg *config.DB, devMode bool) (*gorm.DB, error) {
	dialector, err := dsn.Dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Silent
	if devMode {
		level = gormlogger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if cfg.Engine == config.EngineSQLite || cfg.Engine == "" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get sql handle")
		}
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return errors.Wrap(db.AutoMigrate(Models()...), "failed to migrate database")
}
