// Package auditmanager is the concrete types.AuditSink: an append-only,
// thread-safe-by-contract audit log, config-driven on filtering/batching,
// writing map rows through a *gorm.DB into the audit_logs table rather than
// through a Go model type.
package auditmanager

import (
	"context"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"

	"github.com/forbearing/crud6/config"
	"github.com/forbearing/crud6/ds/queue/circularbuffer"
	"github.com/forbearing/crud6/logger"
	"github.com/forbearing/crud6/types"
	"github.com/forbearing/crud6/types/consts"
)

const auditTable = "audit_logs"

// AuditManager is the types.AuditSink implementation wired into
// internal/crud6/handlers' Deps. Entries excluded by config (operation,
// table, field) are dropped before ever reaching the buffer or the
// database.
type AuditManager struct {
	db     *gorm.DB
	config *config.Audit
	cb     *circularbuffer.CircularBuffer[types.AuditEntry]
}

var _ types.AuditSink = (*AuditManager)(nil)

// New builds an AuditManager writing to db, filtered by auditConfig.
func New(db *gorm.DB, auditConfig *config.Audit) *AuditManager {
	return &AuditManager{
		db:     db,
		config: auditConfig,
		cb:     circularbuffer.New[types.AuditEntry](auditConfig.BatchSize),
	}
}

// Record implements types.AuditSink.
func (am *AuditManager) Record(ctx context.Context, entry types.AuditEntry) error {
	if !am.config.Enable {
		return nil
	}
	if slices.Contains(am.config.ExcludeOperations, consts.OP(entry.Operation)) {
		return nil
	}
	if slices.Contains(am.config.ExcludeTables, entry.Model) {
		return nil
	}
	entry.Fields = am.filterFields(entry.Fields)

	if am.config.AsyncWrite {
		am.cb.Enqueue(entry)
		return nil
	}
	return am.write(ctx, []types.AuditEntry{entry})
}

// filterFields applies ExcludeFields/IncludeFields/MaxFieldLength, masking
// sensitive values rather than ever letting them reach storage.
func (am *AuditManager) filterFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return fields
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if len(am.config.IncludeFields) > 0 && !slices.Contains(am.config.IncludeFields, k) {
			continue
		}
		if slices.Contains(am.config.ExcludeFields, k) {
			continue
		}
		if s, ok := v.(string); ok && am.config.MaxFieldLength > 0 && len(s) > am.config.MaxFieldLength {
			v = s[:am.config.MaxFieldLength]
		}
		out[k] = v
	}
	return out
}

func (am *AuditManager) write(ctx context.Context, entries []types.AuditEntry) error {
	rows := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]any{
			"operation":    e.Operation,
			"model":        e.Model,
			"record_id":    e.RecordID,
			"principal_id": e.PrincipalID,
			"fields":       e.Fields,
			"at":           e.At,
		})
	}
	if err := am.db.WithContext(ctx).Table(auditTable).Create(&rows).Error; err != nil {
		return errors.Wrap(err, "failed to write audit log")
	}
	return nil
}

// Consume periodically drains the async buffer into storage. Run as a
// background goroutine from cmd/server's startup sequence.
func (am *AuditManager) Consume(ctx context.Context) {
	interval, err := time.ParseDuration(am.config.FlushInterval)
	if err != nil || interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			batch := make([]types.AuditEntry, 0, am.cb.Len())
			for !am.cb.IsEmpty() {
				e, ok := am.cb.Dequeue()
				if !ok {
					break
				}
				batch = append(batch, e)
			}
			if len(batch) == 0 {
				continue
			}
			if err := am.write(ctx, batch); err != nil {
				logger.Audit.Errorw("failed to flush audit log batch", "count", len(batch), "error", err)
			}
		}
	}
}
