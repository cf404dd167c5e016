package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/forbearing/crud6/database"
	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/internal/crud6/sprunje"
	"github.com/forbearing/crud6/middleware"
	"github.com/forbearing/crud6/response"
)

// List implements GET /api/crud6/{model}. There is no dedicated "list"
// entry in the schema's permissions map, so List reuses the read
// permission — the natural reading of "listing is a variant of reading",
// and the only one the schema's Permission fallback can express.
func List(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := middleware.SchemaFrom(c)
		if s == nil {
			return
		}
		if !checkPermission(c, d, s, schema.ActionRead) {
			return
		}

		conn, err := database.Connection(s.Connection)
		if err != nil {
			response.Error(c, err)
			return
		}

		params, err := sprunje.ParseParams(c.Request.URL.RawQuery, d.DefaultPageSize, d.MaxPageSize)
		if err != nil {
			response.Error(c, err)
			return
		}

		cacheKey := s.Model + "@" + s.Connection + "?" + c.Request.URL.RawQuery
		if d.PageCache != nil {
			if page, ok := d.PageCache.Get(cacheKey); ok {
				response.List(c, page)
				return
			}
		}

		page, err := sprunje.New(conn, s).Run(c.Request.Context(), params)
		if err != nil {
			response.Error(c, err)
			return
		}
		if d.PageCache != nil {
			d.PageCache.Set(cacheKey, page)
		}
		response.List(c, page)
	}
}
