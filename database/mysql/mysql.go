package mysql

import (
	"database/sql"
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
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

// Init initializes the default MySQL connection and, when it is the
// active dialect, registers it as the Model Binder's default connection.
func Init() (err error) {
	cfg := config.App.MySQL
	if !cfg.Enable {
		return nil
	}

	if Default, err = New(cfg); err != nil {
		return errors.Wrap(err, "failed to connect to mysql")
	}
	if db, err = Default.DB(); err != nil {
		return errors.Wrap(err, "failed to get mysql db")
	}
	db.SetMaxIdleConns(config.App.Database.MaxIdleConns)
	db.SetMaxOpenConns(config.App.Database.MaxOpenConns)
	db.SetConnMaxLifetime(config.App.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.App.Database.ConnMaxIdleTime)

	zap.S().Infow("successfully connect to mysql", "host", cfg.Host, "port", cfg.Port, "database", cfg.Database, "charset", cfg.Charset)
	if err := helper.InitDatabase(Default, dbmap); err != nil {
		return err
	}
	if config.App.Database.Type == config.DBMySQL {
		dbcore.Default = Default
	}
	return nil
}

// New creates and returns a new MySQL database connection.
func New(cfg config.MySQL) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(buildDSN(cfg)), &gorm.Config{Logger: logger.Gorm})
}

func buildDSN(cfg config.MySQL) string {
	charset := cfg.Charset
	if len(charset) == 0 {
		charset = "utf8mb4"
	}
	loc := cfg.Loc
	if len(loc) == 0 {
		loc = "Local"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, charset, cfg.ParseTime, loc,
	)
}

func Transaction(fn func(tx *gorm.DB) error) error { return helper.Transaction(Default, fn) }
func Exec(sql string, values any) error            { return helper.Exec(Default, sql, values) }
