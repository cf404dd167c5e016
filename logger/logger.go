// Package logger declares the process-wide logger handles every subsystem
// writes through, one *Logger per subsystem log file, trimmed to the
// concerns this module's subsystems actually have.
package logger

import (
	"io"

	gorml "gorm.io/gorm/logger"

	"github.com/forbearing/crud6/types"
)

var (
	// App is the general-purpose process logger.
	App types.Logger
	// Server logs HTTP request/response lifecycle (middleware/logger.go).
	Server types.Logger
	// Database is the database subsystem's logger; database/database.go's
	// trace() logs through zap.S() rather than this handle.
	Database types.Logger
	// Audit logs the audit sink's own failures (pkg/auditmanager).
	Audit types.Logger
	// Authz logs casbin policy decisions.
	Authz types.Logger

	// Gin is an io.Writer set by logger/zap's Init; nothing reads it, and
	// middleware/logger.go writes its access-log lines through Server.
	Gin io.Writer
	// Gorm is the gorm.Config.Logger implementation every database
	// connection package (sqlite/postgres/mysql) passes to gorm.Open.
	Gorm gorml.Interface
)
