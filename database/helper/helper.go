// Package helper provides the small pieces every concrete database
// connection package (database/sqlite, database/postgres, database/mysql)
// shares: OTEL plugin installation and transaction/exec passthroughs. There
// is no per-entity Go model to register a table/record pipeline against;
// schema-declared tables are expected to already exist.
package helper

import (
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InitDatabase installs the OTEL tracing plugin on db and every connection
// in dbmap.
func InitDatabase(db *gorm.DB, dbmap map[string]*gorm.DB) error {
	if err := installTracing(db); err != nil {
		zap.S().Warnw("failed to install GORM OpenTelemetry tracing plugin", "error", err)
	}
	for name, customDB := range dbmap {
		if err := installTracing(customDB); err != nil {
			zap.S().Warnw("failed to install GORM OpenTelemetry tracing plugin for custom DB", "connection", name, "error", err)
		}
	}
	return nil
}

// Transaction starts a transaction as a block: returning an error rolls
// back, returning nil commits.
func Transaction(db *gorm.DB, fn func(tx *gorm.DB) error) error { return db.Transaction(fn) }

// Exec executes raw SQL without returning rows.
func Exec(db *gorm.DB, sql string, values any) error { return db.Exec(sql, values).Error }
