package postgres

import (
	"database/sql"
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
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

// Init initializes the default PostgreSQL connection and, when it is the
// active dialect, registers it as the Model Binder's default connection.
func Init() (err error) {
	cfg := config.App.Postgres
	if !cfg.Enable {
		return nil
	}

	if Default, err = New(cfg); err != nil {
		return errors.Wrap(err, "failed to connect to postgres")
	}
	if db, err = Default.DB(); err != nil {
		return errors.Wrap(err, "failed to get postgres db")
	}
	db.SetMaxIdleConns(config.App.Database.MaxIdleConns)
	db.SetMaxOpenConns(config.App.Database.MaxOpenConns)
	db.SetConnMaxLifetime(config.App.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.App.Database.ConnMaxIdleTime)

	zap.S().Infow("successfully connect to postgres", "host", cfg.Host, "port", cfg.Port, "database", cfg.Database, "sslmode", cfg.SSLMode, "timezone", cfg.TimeZone)
	if err := helper.InitDatabase(Default, dbmap); err != nil {
		return err
	}
	if config.App.Database.Type == config.DBPostgres {
		dbcore.Default = Default
	}
	return nil
}

// New creates and returns a new PostgreSQL database connection.
func New(cfg config.Postgres) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(buildDSN(cfg)), &gorm.Config{Logger: logger.Gorm})
}

func buildDSN(cfg config.Postgres) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s connect_timeout=5",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port, cfg.SSLMode, cfg.TimeZone,
	)
}

func Transaction(fn func(tx *gorm.DB) error) error { return helper.Transaction(Default, fn) }
func Exec(sql string, values any) error            { return helper.Exec(Default, sql, values) }
