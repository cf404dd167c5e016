package types

import (
	"context"
	"time"
)

// StandardLogger is the traditional Debug/Info/Warn/Error vocabulary.
type StandardLogger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// StructuredLogger is key-value pair logging, the shape zap.SugaredLogger
// exposes as Infow/Errorw/etc.
type StructuredLogger interface {
	Debugw(msg string, kv ...any)
	Infow(msg string, kv ...any)
	Warnw(msg string, kv ...any)
	Errorw(msg string, kv ...any)
}

// Logger is the leveled plus structured logging interface; the logger
// package's process-wide handles are of this type. logger/zap.New returns
// one backed by zap.
type Logger interface {
	StandardLogger
	StructuredLogger
	With(fields ...any) Logger
}

// Clock abstracts time.Now so tests can freeze "now" for timestamp
// assertions.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, threaded through Deps by cmd/server.
// Tests substitute a fixed-time fake instead.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Principal is the authenticated identity a request runs on behalf of.
// Authentication/session management itself is handled upstream; the core
// only ever reads a Principal handed to it by upstream middleware.
type Principal struct {
	ID    string
	Roles []string
}

// Authorizer is the external authorization collaborator:
// CheckAccess(principal, permission) -> bool. authz/rbac's casbin-backed
// enforcer is the concrete implementation wired into Deps.Auth by
// cmd/server; core code never imports casbin directly.
type Authorizer interface {
	CheckAccess(ctx context.Context, principal *Principal, permission string) (bool, error)
}

// Translator is the external i18n collaborator: Translate(key, params) ->
// string. No implementation ships in this module, and handlers.Deps carries
// no Translator.
type Translator interface {
	Translate(key string, params map[string]any) string
}

// AuditSink is the append-only, thread-safe-by-contract audit log.
// pkg/auditmanager's AuditManager is the concrete implementation.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// AuditEntry is a single human-readable, structured audit record.
type AuditEntry struct {
	Operation   string
	Model       string
	RecordID    string
	PrincipalID string
	Fields      map[string]any
	At          time.Time
}

// Cache backs the optional sprunje page cache (handlers.Deps.PageCache); the
// schema Loader caches through its own sync.Map instead.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
