// Package database is the schema-keyed, non-generic binder between a
// schema.Schema and the rows it describes: the schema supplies everything a
// per-entity Go type used to (table name, column set, soft-delete column),
// so no Go struct is required per model. Find, Insert, Update, Delete and
// SoftDelete are OTEL/zap traced.
package database

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/provider/otel"
	crud6types "github.com/forbearing/crud6/types"
)

// Default is the process-default connection, set by whichever of
// database/sqlite, database/postgres, database/mysql is configured as
// config.Database.Type.
var Default *gorm.DB

var (
	namedMu sync.RWMutex
	named   = map[string]*gorm.DB{}
)

// Register adds a named connection the schema's "connection" attribute may
// reference, e.g. Register("reports", reportDB).
func Register(name string, db *gorm.DB) {
	namedMu.Lock()
	defer namedMu.Unlock()
	named[name] = db
}

// Connection resolves the *gorm.DB for a schema's named connection, falling
// back to Default when name is empty.
func Connection(name string) (*gorm.DB, error) {
	if name == "" {
		if Default == nil {
			return nil, crud6types.NewError(crud6types.KindInternal, "no default database connection configured")
		}
		return Default, nil
	}
	namedMu.RLock()
	db, ok := named[name]
	namedMu.RUnlock()
	if !ok {
		return nil, crud6types.NewError(crud6types.KindInternal, "unknown database connection \""+name+"\"")
	}
	return db, nil
}

// Transaction runs fn inside a transaction on the schema's resolved
// connection; fn receives the *gorm.DB to build handles against. ctx's
// deadline governs the whole transaction: if it elapses during database
// work, the transaction is rolled back.
func Transaction(ctx context.Context, s *schema.Schema, fn func(tx *gorm.DB) error) error {
	conn, err := Connection(s.Connection)
	if err != nil {
		return err
	}
	return conn.WithContext(ctx).Transaction(fn)
}

// Handle is the opaque row-access handle bound to a schema and a
// *gorm.DB, carrying the current field map.
type Handle struct {
	Schema *schema.Schema
	db     *gorm.DB
	values map[string]any
	isNew  bool
}

// New produces a Handle for create/list.
func New(db *gorm.DB, s *schema.Schema) *Handle {
	return &Handle{Schema: s, db: db, values: map[string]any{}, isNew: true}
}

// Find loads the record identified by pkValue, or returns a NotFound error.
func Find(ctx context.Context, db *gorm.DB, s *schema.Schema, pkValue any) (*Handle, error) {
	done, spanCtx, span := trace(ctx, "Find", s)
	var row map[string]any
	q := db.WithContext(spanCtx).Table(s.Table).Where(clause.Eq{Column: clause.Column{Name: s.PrimaryKey}, Value: pkValue})
	if s.SoftDelete {
		q = q.Where(s.PrimaryKey + " IS NOT NULL").Where("deleted_at IS NULL")
	}
	err := q.Take(&row).Error
	done(err)
	_ = span
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, crud6types.NewError(crud6types.KindNotFound, "record not found")
		}
		return nil, crud6types.Wrap(crud6types.KindInternal, err, "failed to load record")
	}
	return &Handle{Schema: s, db: db, values: row}, nil
}

// Get returns the current value of a field and whether it is set.
func (h *Handle) Get(field string) (any, bool) {
	v, ok := h.values[field]
	return v, ok
}

// Values returns the handle's full field map (read-only contract: callers
// must not mutate the returned map directly; use Set).
func (h *Handle) Values() map[string]any { return h.values }

// Set assigns a single field, rejecting fields absent from the schema.
func (h *Handle) Set(field string, value any) error {
	if h.Schema.Field(field) == nil {
		return crud6types.NewError(crud6types.KindBadRequest, "unknown field \""+field+"\"")
	}
	h.values[field] = value
	return nil
}

// SetAll merges values into the handle, field by field, via Set.
func (h *Handle) SetAll(values map[string]any) error {
	for k, v := range values {
		if err := h.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// PKValue returns the handle's primary-key value, if set.
func (h *Handle) PKValue() any { return h.values[h.Schema.PrimaryKey] }

// Insert persists a new row, populating generated columns (e.g. an
// auto-increment primary key) back into the handle's field map via gorm's
// RETURNING clause.
func (h *Handle) Insert(ctx context.Context) error {
	done, spanCtx, _ := trace(ctx, "Insert", h.Schema)
	err := h.db.WithContext(spanCtx).Table(h.Schema.Table).Clauses(clause.Returning{}).Create(h.values).Error
	done(err)
	if err != nil {
		return classifyWriteError(err)
	}
	h.isNew = false
	return nil
}

// Update persists changes to the columns named in fields.
func (h *Handle) Update(ctx context.Context, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	updates := make(map[string]any, len(fields))
	for _, f := range fields {
		updates[f] = h.values[f]
	}
	done, spanCtx, _ := trace(ctx, "Update", h.Schema)
	err := h.db.WithContext(spanCtx).Table(h.Schema.Table).
		Where(clause.Eq{Column: clause.Column{Name: h.Schema.PrimaryKey}, Value: h.PKValue()}).
		Updates(updates).Error
	done(err)
	if err != nil {
		return classifyWriteError(err)
	}
	return nil
}

// Delete removes the row outright, the hard-delete path.
func (h *Handle) Delete(ctx context.Context) error {
	done, spanCtx, _ := trace(ctx, "Delete", h.Schema)
	err := h.db.WithContext(spanCtx).Table(h.Schema.Table).
		Where(clause.Eq{Column: clause.Column{Name: h.Schema.PrimaryKey}, Value: h.PKValue()}).
		Delete(nil).Error
	done(err)
	if err != nil {
		return classifyWriteError(err)
	}
	return nil
}

// SoftDelete sets the tombstone column instead of removing the row. The
// tombstone column is named "deleted_at" and carries the deletion
// timestamp, matching gorm's own soft-delete convention so schema-described
// tables interoperate with any gorm-managed internal tables.
func (h *Handle) SoftDelete(ctx context.Context, now time.Time) error {
	done, spanCtx, _ := trace(ctx, "SoftDelete", h.Schema)
	updates := map[string]any{"deleted_at": now}
	if h.Schema.Timestamps {
		updates["updated_at"] = now
	}
	err := h.db.WithContext(spanCtx).Table(h.Schema.Table).
		Where(clause.Eq{Column: clause.Column{Name: h.Schema.PrimaryKey}, Value: h.PKValue()}).
		Updates(updates).Error
	done(err)
	if err != nil {
		return classifyWriteError(err)
	}
	return nil
}

// Unique probes whether value already exists in field, excluding
// excludePK's row; satisfies validate.UniqueChecker.
func Unique(ctx context.Context, db *gorm.DB, s *schema.Schema, field string, value any, excludePK any) (bool, error) {
	q := db.WithContext(ctx).Table(s.Table).Where(field+" = ?", value)
	if excludePK != nil {
		q = q.Where(s.PrimaryKey+" <> ?", excludePK)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, crud6types.Wrap(crud6types.KindInternal, err, "failed to check uniqueness")
	}
	return count == 0, nil
}

func classifyWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return crud6types.Wrap(crud6types.KindConflict, err, "unique constraint violated")
	}
	return crud6types.Wrap(crud6types.KindInternal, err, "database write failed")
}

func trace(ctx context.Context, op string, s *schema.Schema) (func(error), context.Context, trace.Span) {
	begin := time.Now()
	var spanCtx context.Context
	var span trace.Span
	if otel.IsEnabled() {
		spanCtx, span = otel.StartSpan(ctx, "Database."+op+" "+s.Model)
		span.SetAttributes(
			attribute.String("component", "database"),
			attribute.String("database.operation", op),
			attribute.String("database.model", s.Model),
			attribute.String("database.table", s.Table),
		)
	} else {
		spanCtx = ctx
	}
	return func(err error) {
		duration := time.Since(begin)
		if span != nil {
			span.SetAttributes(attribute.Int64("database.duration_ms", duration.Milliseconds()))
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				otel.RecordError(span, err)
			} else {
				span.SetStatus(codes.Ok, "")
			}
			span.End()
		}
		if err != nil {
			zap.S().Errorw("database operation failed", "op", op, "model", s.Model, "table", s.Table, "cost", duration, "error", err)
		} else {
			zap.S().Debugw("database operation", "op", op, "model", s.Model, "table", s.Table, "cost", duration)
		}
	}, spanCtx, span
}
