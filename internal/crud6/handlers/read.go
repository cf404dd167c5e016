package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/middleware"
	"github.com/forbearing/crud6/response"
	"github.com/forbearing/crud6/types"
)

// Read implements GET /api/crud6/{model}/{id}.
func Read(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := middleware.SchemaFrom(c)
		h := middleware.HandleFrom(c)
		if s == nil || h == nil {
			response.Error(c, types.NewError(types.KindNotFound, "record not found"))
			return
		}
		if !checkPermission(c, d, s, schema.ActionRead) {
			return
		}

		id := c.Param("id")
		data := sanitizeRecord(s, h.Values())
		response.Read(c, s.Model, displayName(s), id, data, breadcrumb(s, id, h.Values()))
	}
}
