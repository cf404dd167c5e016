package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/forbearing/crud6/database"
	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/response"
	crud6types "github.com/forbearing/crud6/types"
	"github.com/forbearing/crud6/types/consts"
)

// ResolveModel turns the ":model" (and, for record-scoped routes, ":id")
// route parameters into a loaded schema and, where applicable, a bound
// database.Handle, attaching both to the gin context for downstream action
// handlers.
func ResolveModel(loader *schema.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		modelName, connectionName := splitModelParam(c.Param("model"))
		if !schema.ValidModelName(modelName) {
			response.Error(c, crud6types.NewError(crud6types.KindBadRequest, "invalid model name \""+modelName+"\""))
			c.Abort()
			return
		}

		s, err := loader.GetSchema(modelName, connectionName)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(consts.CTX_SCHEMA, s)

		id := c.Param("id")
		if id == "" {
			c.Next()
			return
		}

		conn, err := database.Connection(s.Connection)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		handle, err := database.Find(c.Request.Context(), conn, s, id)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(consts.CTX_HANDLE, handle)

		c.Next()
	}
}

// splitModelParam splits a "model@connection" route value on the first
// '@' into a model name and a connection override; otherwise the whole
// value is the model name and the connection is the schema's own default.
func splitModelParam(raw string) (model, connection string) {
	if idx := strings.IndexByte(raw, '@'); idx >= 0 {
		return raw[:idx], raw[idx+1:]
	}
	return raw, ""
}

// SchemaFrom retrieves the schema attached by ResolveModel.
func SchemaFrom(c *gin.Context) *schema.Schema {
	v, ok := c.Get(consts.CTX_SCHEMA)
	if !ok {
		return nil
	}
	s, _ := v.(*schema.Schema)
	return s
}

// HandleFrom retrieves the database.Handle attached by ResolveModel for
// record-scoped routes. Returns nil when the route carries no ":id".
func HandleFrom(c *gin.Context) *database.Handle {
	v, ok := c.Get(consts.CTX_HANDLE)
	if !ok {
		return nil
	}
	h, _ := v.(*database.Handle)
	return h
}
