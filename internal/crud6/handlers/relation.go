package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/forbearing/crud6/database"
	"github.com/forbearing/crud6/internal/crud6/relationship"
	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/internal/crud6/sprunje"
	"github.com/forbearing/crud6/middleware"
	"github.com/forbearing/crud6/response"
	"github.com/forbearing/crud6/types"
)

// Relation implements GET /api/crud6/{model}/{id}/{relation}: a nested
// listing of a related entity, scoped to the resolved parent record. Reuses
// the parent schema's read permission, the same reasoning List applies to
// its own missing "list" permission slug.
func Relation(d *Deps) gin.HandlerFunc {
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

		relationName := c.Param("relation")
		res, err := relationship.Resolve(s, relationName)
		if err != nil {
			response.Error(c, err)
			return
		}

		related, err := d.Loader.GetSchema(res.RelatedModel, "")
		if err != nil {
			response.Error(c, err)
			return
		}

		conn, err := database.Connection(related.Connection)
		if err != nil {
			response.Error(c, err)
			return
		}

		sp, err := relationship.Build(conn, related, res, h.PKValue())
		if err != nil {
			response.Error(c, err)
			return
		}

		params, err := sprunje.ParseParams(c.Request.URL.RawQuery, d.DefaultPageSize, d.MaxPageSize)
		if err != nil {
			response.Error(c, err)
			return
		}

		page, err := sp.Run(c.Request.Context(), params)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.List(c, page)
	}
}
