// Package handlers implements one gin.HandlerFunc per HTTP verb, orchestrating
// the resolved schema and bound record against the field validator/transformer,
// sprunje list query, relationship resolver and database handle. There is no
// Go type parameter here: each handler dispatches purely on the schema the
// request resolved against.
package handlers

import (
	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/internal/crud6/sprunje"
	"github.com/forbearing/crud6/types"
)

// Deps carries the collaborators every handler needs, threaded through
// constructors instead of read from package-level globals.
type Deps struct {
	Loader          *schema.Loader
	Auth            types.Authorizer
	Audit           types.AuditSink
	Clock           types.Clock
	DefaultPageSize int
	MaxPageSize     int

	// PageCache optionally caches List results, keyed by model+query. Nil
	// disables caching; List always falls through to the database on a
	// cache miss or a nil PageCache.
	PageCache types.Cache[*sprunje.Page]
}
