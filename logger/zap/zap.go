// Package zap is the types.Logger implementation every subsystem logs
// through: JSON/console encoder selection, lumberjack file rotation, and
// one *zap.Logger per concern, wired into the top-level logger package's
// var slots.
package zap

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/forbearing/crud6/config"
	"github.com/forbearing/crud6/logger"
)

var (
	logFile       string
	logLevel      string
	logFormat     string
	logMaxAge     int
	logMaxSize    int
	logMaxBackups int
	compress      bool
)

// Option configures encoder behavior for constructors.
type Option struct {
	DisableMsg   bool
	DisableLevel bool
}

// Init wires every logger/*.go var from config.App.Logger.
func Init() error {
	readConf()
	zap.ReplaceGlobals(zap.New(
		zapcore.NewCore(newLogEncoder(), newLogWriter(), newLogLevel()),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.FatalLevel),
	))

	logger.App = New("app.log")
	logger.Server = New("server.log")
	logger.Database = New("database.log")
	logger.Audit = New("audit.log")
	logger.Authz = New("authz.log", Option{DisableMsg: true})

	logger.Gin = NewGinWriter("access.log")
	logger.Gorm = NewGorm("gorm.log")
	return nil
}

// Clean flushes every wired logger's underlying *zap.Logger.
func Clean() {
	_ = zap.L().Sync()
	for _, l := range []*Logger{logger.App.(*Logger), logger.Server.(*Logger), logger.Database.(*Logger), logger.Audit.(*Logger), logger.Authz.(*Logger)} { //nolint:errcheck
		_ = l.zlog.Sync()
	}
}

// New builds a types.Logger backed by *zap.Logger.
func New(filename string, opts ...Option) *Logger {
	readConf()
	if len(filename) > 0 {
		logFile = filename
	}
	return &Logger{zlog: zap.New(
		zapcore.NewCore(newLogEncoder(opts...), newLogWriter(), newLogLevel()),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.FatalLevel),
	)}
}

// NewGorm builds a gorm logger.Interface.
func NewGorm(filename string) *GormLogger {
	readConf()
	if len(filename) > 0 {
		logFile = filename
	}
	l := zap.New(
		zapcore.NewCore(newLogEncoder(), newLogWriter(), newLogLevel()),
		zap.AddCaller(),
		zap.AddCallerSkip(3),
		zap.AddStacktrace(zapcore.FatalLevel),
	)
	return &GormLogger{l: &Logger{zlog: l}}
}

// NewCasbin builds a casbin log.Logger.
func NewCasbin(filename string) *CasbinLogger {
	readConf()
	if len(filename) > 0 {
		logFile = filename
	}
	l := zap.New(
		zapcore.NewCore(newLogEncoder(Option{DisableMsg: true}), newLogWriter(), newLogLevel()),
		zap.AddStacktrace(zapcore.FatalLevel),
	)
	return &CasbinLogger{l: &Logger{zlog: l}}
}

// NewGinWriter builds an io.Writer for gin's access log middleware.
func NewGinWriter(filename string) *ginWriter {
	readConf()
	if len(filename) > 0 {
		logFile = filename
	}
	l := zap.New(zapcore.NewCore(newLogEncoder(Option{DisableMsg: true, DisableLevel: true}), newLogWriter(), newLogLevel()))
	return &ginWriter{zlog: l}
}

type ginWriter struct{ zlog *zap.Logger }

func (w *ginWriter) Write(p []byte) (int, error) {
	w.zlog.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func newLogWriter() zapcore.WriteSyncer {
	switch strings.TrimSpace(logFile) {
	case "/dev/stdout", "":
		return zapcore.AddSync(os.Stdout)
	case "/dev/stderr":
		return zapcore.AddSync(os.Stderr)
	default:
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Clean(logFile),
			MaxAge:     logMaxAge,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackups,
			LocalTime:  true,
			Compress:   compress,
		})
	}
}

func newLogLevel() zapcore.Level {
	if len(logLevel) == 0 {
		return zapcore.InfoLevel
	}
	level := new(zapcore.Level)
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return zapcore.InfoLevel
	}
	return *level
}

func newLogEncoder(opts ...Option) zapcore.Encoder {
	encConfig := zap.NewProductionEncoderConfig()
	encConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	encConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if len(opts) > 0 {
		if opts[0].DisableMsg {
			encConfig.MessageKey = ""
		}
		if opts[0].DisableLevel {
			encConfig.LevelKey = ""
		}
	}
	switch strings.ToLower(logFormat) {
	case "console", "text":
		return zapcore.NewConsoleEncoder(encConfig)
	default:
		return zapcore.NewJSONEncoder(encConfig)
	}
}

func readConf() {
	logFile = config.App.Logger.File
	logLevel = config.App.Logger.Level
	logFormat = config.App.Logger.Format
	logMaxAge = config.App.Logger.MaxAge
	logMaxSize = config.App.Logger.MaxSize
	logMaxBackups = config.App.Logger.MaxBackups
	compress = config.App.Logger.Compress
	if config.App.Logger.Stdout {
		logFile = "/dev/stdout"
	}
}
