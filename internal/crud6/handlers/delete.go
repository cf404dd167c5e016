package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/forbearing/crud6/database"
	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/middleware"
	"github.com/forbearing/crud6/response"
	"github.com/forbearing/crud6/types"
	"github.com/forbearing/crud6/types/consts"
)

// Delete implements DELETE /api/crud6/{model}/{id}: a soft delete when the
// schema declares soft_delete, otherwise a hard delete, then an audit entry.
func Delete(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := middleware.SchemaFrom(c)
		h := middleware.HandleFrom(c)
		if s == nil || h == nil {
			response.Error(c, types.NewError(types.KindNotFound, "record not found"))
			return
		}
		if !checkPermission(c, d, s, schema.ActionDelete) {
			return
		}

		now := d.Clock.Now()
		err := database.Transaction(c.Request.Context(), s, func(tx *gorm.DB) error {
			th := database.New(tx, s)
			if err := th.Set(s.PrimaryKey, h.PKValue()); err != nil {
				return err
			}
			if s.SoftDelete {
				return th.SoftDelete(c.Request.Context(), now)
			}
			return th.Delete(c.Request.Context())
		})
		if err != nil {
			response.Error(c, err)
			return
		}

		id := c.Param("id")
		recordAudit(c, d, consts.OP_DELETE, s, id, nil)
		response.StateChange(c, http.StatusOK, "Deleted", fmt.Sprintf("%s deleted successfully", singularDisplay(s)), gin.H{
			"model": s.Model,
			"id":    id,
		})
	}
}
