package types

import (
	"context"
	"time"

	"github.com/forbearing/crud6/types/consts"
	"github.com/gin-gonic/gin"
)

// RequestContext carries route, principal and tracing metadata for one
// request as it flows through resolver -> handler -> binder/sprunje ->
// response. There's no per-model hook system here, so one context type
// covers the whole request instead of a controller/service/database trio.
type RequestContext struct {
	Principal *Principal
	Route     string
	RequestID string
	TraceID   string

	ginCtx *gin.Context
	ctx    context.Context
}

// NewRequestContext builds a RequestContext from the gin request in flight.
func NewRequestContext(c *gin.Context) *RequestContext {
	rc := &RequestContext{
		Route:     c.FullPath(),
		RequestID: c.GetString(consts.CTX_REQUEST_ID),
		TraceID:   c.GetString(consts.CTX_TRACE_ID),
		ginCtx:    c,
		ctx:       c.Request.Context(),
	}
	if p, ok := c.Get(consts.CTX_PRINCIPAL); ok {
		rc.Principal, _ = p.(*Principal)
	}
	return rc
}

// Context returns the context.Context to propagate into database/tracing calls.
func (rc *RequestContext) Context() context.Context {
	if rc == nil || rc.ctx == nil {
		return context.Background()
	}
	return rc.ctx
}

// PrincipalID returns the authenticated principal's id, or "" if anonymous.
func (rc *RequestContext) PrincipalID() string {
	if rc == nil || rc.Principal == nil {
		return ""
	}
	return rc.Principal.ID
}

// Deadline returns the request's deadline, for the timeout -> 504 mapping.
func (rc *RequestContext) Deadline() (time.Time, bool) {
	return rc.Context().Deadline()
}
