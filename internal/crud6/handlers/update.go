package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/forbearing/crud6/database"
	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/internal/crud6/validate"
	"github.com/forbearing/crud6/middleware"
	"github.com/forbearing/crud6/response"
	"github.com/forbearing/crud6/types"
	"github.com/forbearing/crud6/types/consts"
)

// Update implements PUT /api/crud6/{model}/{id}: only editable fields
// present in the request body are assigned.
func Update(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := middleware.SchemaFrom(c)
		h := middleware.HandleFrom(c)
		if s == nil || h == nil {
			response.Error(c, types.NewError(types.KindNotFound, "record not found"))
			return
		}
		if !checkPermission(c, d, s, schema.ActionUpdate) {
			return
		}

		input, err := bindJSONObject(c)
		if err != nil {
			response.Error(c, err)
			return
		}

		values, err := validate.Transform(s.Fields, input, jsonEncode)
		if err != nil {
			response.Error(c, types.Wrap(types.KindBadRequest, err, "invalid field value"))
			return
		}
		validate.StripNonWritable(s.Fields, values)
		for name := range values {
			if f := s.Field(name); f == nil || !f.IsEditable() {
				delete(values, name)
			}
		}
		if len(values) == 0 {
			response.Error(c, types.NewError(types.KindBadRequest, "no editable fields in request body"))
			return
		}

		conn, err := database.Connection(s.Connection)
		if err != nil {
			response.Error(c, err)
			return
		}

		if errs := validate.Validate(s.Fields, values, validate.ValidateOptions{
			Unique: func(field string, value any, excludePK any) (bool, error) {
				return database.Unique(c.Request.Context(), conn, s, field, value, excludePK)
			},
			ExcludePK: h.PKValue(),
		}); len(errs) > 0 {
			response.Error(c, types.NewError(types.KindValidation, "validation failed").WithFields(errs))
			return
		}

		if s.Timestamps {
			values["updated_at"] = d.Clock.Now()
		}

		fields := make([]string, 0, len(values))
		for name := range values {
			fields = append(fields, name)
		}

		merged := make(map[string]any, len(h.Values())+len(values))
		for k, v := range h.Values() {
			merged[k] = v
		}
		for k, v := range values {
			merged[k] = v
		}

		err = database.Transaction(c.Request.Context(), s, func(tx *gorm.DB) error {
			th := database.New(tx, s)
			if err := th.SetAll(merged); err != nil {
				return err
			}
			return th.Update(c.Request.Context(), fields)
		})
		if err != nil {
			response.Error(c, err)
			return
		}

		id := c.Param("id")
		recordAudit(c, d, consts.OP_UPDATE, s, id, values)
		response.StateChange(c, http.StatusOK, "Updated", fmt.Sprintf("%s updated successfully", singularDisplay(s)), gin.H{
			"model": s.Model,
			"id":    id,
			"data":  sanitizeRecord(s, merged),
		})
	}
}
