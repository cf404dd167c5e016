package zap

import (
	"go.uber.org/zap"

	"github.com/forbearing/crud6/types"
)

// Logger implements types.Logger, wrapping a *zap.Logger.
type Logger struct {
	zlog *zap.Logger
}

var _ types.Logger = (*Logger)(nil)

func (l *Logger) Debug(args ...any) { l.zlog.Sugar().Debug(args...) }
func (l *Logger) Info(args ...any)  { l.zlog.Sugar().Info(args...) }
func (l *Logger) Warn(args ...any)  { l.zlog.Sugar().Warn(args...) }
func (l *Logger) Error(args ...any) { l.zlog.Sugar().Error(args...) }

func (l *Logger) Debugf(format string, args ...any) { l.zlog.Sugar().Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.zlog.Sugar().Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.zlog.Sugar().Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.zlog.Sugar().Errorf(format, args...) }

func (l *Logger) Debugw(msg string, kv ...any) { l.zlog.Sugar().Debugw(msg, kv...) }
func (l *Logger) Infow(msg string, kv ...any)  { l.zlog.Sugar().Infow(msg, kv...) }
func (l *Logger) Warnw(msg string, kv ...any)  { l.zlog.Sugar().Warnw(msg, kv...) }
func (l *Logger) Errorw(msg string, kv ...any) { l.zlog.Sugar().Errorw(msg, kv...) }

// With returns a derived logger carrying kv as structured fields, mirroring
// zap.SugaredLogger.With's "even count of key, value" contract.
func (l *Logger) With(fields ...any) types.Logger {
	if len(fields) == 0 {
		return l
	}
	return &Logger{zlog: l.zlog.Sugar().With(fields...).Desugar()}
}

// ZapLogger exposes the underlying *zap.Logger for callers that need it
// directly (e.g. passing to a third-party constructor expecting one).
func (l *Logger) ZapLogger() *zap.Logger { return l.zlog }
