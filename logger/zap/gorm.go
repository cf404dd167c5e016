package zap

import (
	"context"
	"time"

	gorml "gorm.io/gorm/logger"

	"github.com/forbearing/crud6/types"
)

// GormLogger implements gorm's logger.Interface over types.Logger.
type GormLogger struct{ l types.Logger }

var _ gorml.Interface = (*GormLogger)(nil)

func (g *GormLogger) LogMode(gorml.LogLevel) gorml.Interface           { return g }
func (g *GormLogger) Info(_ context.Context, str string, args ...any)  { g.l.Infow(str, args...) }
func (g *GormLogger) Warn(_ context.Context, str string, args ...any)  { g.l.Warnw(str, args...) }
func (g *GormLogger) Error(_ context.Context, str string, args ...any) { g.l.Errorw(str, args...) }

func (g *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	if err != nil {
		g.l.Errorw("gorm trace", "sql", sql, "rows", rows, "elapsed", elapsed, "error", err)
		return
	}
	g.l.Debugw("gorm trace", "sql", sql, "rows", rows, "elapsed", elapsed)
}
