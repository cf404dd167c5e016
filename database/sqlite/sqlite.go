package sqlite

import (
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/forbearing/crud6/config"
	dbcore "github.com/forbearing/crud6/database"
	"github.com/forbearing/crud6/database/helper"
	"github.com/forbearing/crud6/logger"
)

var (
	Default *gorm.DB
	db      *sql.DB
	dbmap   = make(map[string]*gorm.DB)
)

// Init initializes the default SQLite connection and, when it is the
// active dialect (config.Database.Type == config.DBSqlite), registers it
// as the Model Binder's default connection.
func Init() (err error) {
	cfg := config.App.Sqlite
	if !cfg.Enable {
		return nil
	}

	if Default, err = New(cfg); err != nil {
		return errors.Wrap(err, "failed to connect to sqlite")
	}
	if db, err = Default.DB(); err != nil {
		return errors.Wrap(err, "failed to get sqlite db")
	}

	// SQLite works best with limited concurrent connections to avoid lock contention.
	db.SetMaxIdleConns(1)
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(config.App.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.App.Database.ConnMaxIdleTime)

	if err = OptimizeDatabase(Default); err != nil {
		zap.S().Warnw("failed to optimize sqlite database", "error", err)
	}

	zap.S().Infow("successfully connect to sqlite", "path", cfg.Path, "database", cfg.Database, "is_memory", cfg.IsMemory)
	if err := helper.InitDatabase(Default, dbmap); err != nil {
		return err
	}
	if config.App.Database.Type == config.DBSqlite {
		dbcore.Default = Default
	}
	return nil
}

// New creates and returns a new SQLite database connection.
func New(cfg config.Sqlite) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(buildDSN(cfg)), &gorm.Config{Logger: logger.Gorm})
}

// OptimizeDatabase runs PRAGMA optimize to refresh the query planner's statistics.
func OptimizeDatabase(db *gorm.DB) error {
	if err := db.Exec("PRAGMA optimize").Error; err != nil {
		return errors.Wrap(err, "failed to execute PRAGMA optimize")
	}
	zap.S().Debug("sqlite database optimization completed")
	return nil
}

func buildDSN(cfg config.Sqlite) string {
	dsn := cfg.Path
	if cfg.IsMemory || len(cfg.Path) == 0 {
		if len(cfg.Path) == 0 {
			zap.S().Warn("sqlite path is empty, using in-memory database")
		}
		return "file::memory:?cache=shared"
	}
	params := []string{
		"_journal_mode=WAL",
		"_busy_timeout=5000",
		"_synchronous=NORMAL",
		"_temp_store=MEMORY",
		"_cache_size=-32000",
		"_foreign_keys=ON",
	}
	return dsn + "?" + strings.Join(params, "&")
}

func Transaction(fn func(tx *gorm.DB) error) error { return helper.Transaction(Default, fn) }
func Exec(sql string, values any) error            { return helper.Exec(Default, sql, values) }
