package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/middleware"
	"github.com/forbearing/crud6/response"
	"github.com/forbearing/crud6/types/consts"
)

// SchemaInfo implements GET /api/crud6/{model}/schema?context=.... Named
// SchemaInfo rather than Schema to avoid colliding with the
// internal/crud6/schema package import.
func SchemaInfo(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := middleware.SchemaFrom(c)
		if s == nil {
			return
		}
		if !checkPermission(c, d, s, schema.ActionRead) {
			return
		}

		ctxs := splitCSV(c.Query(consts.QUERY_CONTEXT))
		filtered := d.Loader.FilterForContext(s, ctxs)
		response.Schema(c, s.Model, displayName(s), filtered, s.Title, s.SingularTitle)
	}
}
