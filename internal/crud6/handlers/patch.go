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

// PatchField implements PUT /api/crud6/{model}/{id}/{field}: a single-field
// write, rejecting a field the schema doesn't declare or marks non-editable
// before ever checking permission.
func PatchField(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := middleware.SchemaFrom(c)
		h := middleware.HandleFrom(c)
		if s == nil || h == nil {
			response.Error(c, types.NewError(types.KindNotFound, "record not found"))
			return
		}

		fieldName := c.Param("field")
		f := s.Field(fieldName)
		if f == nil {
			response.Error(c, types.NewError(types.KindBadRequest, "unknown field \""+fieldName+"\""))
			return
		}
		if !f.IsEditable() {
			response.Error(c, types.NewError(types.KindReadonly, "field \""+fieldName+"\" is not editable"))
			return
		}
		if !checkPermission(c, d, s, schema.ActionUpdateField) {
			return
		}

		input, err := bindJSONObject(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		raw, ok := input["value"]
		if !ok {
			response.Error(c, types.NewError(types.KindBadRequest, "missing \"value\""))
			return
		}

		only := map[string]*schema.FieldSpec{fieldName: f}
		values, err := validate.Transform(only, map[string]any{fieldName: raw}, jsonEncode)
		if err != nil {
			response.Error(c, types.Wrap(types.KindBadRequest, err, "invalid field value"))
			return
		}

		conn, err := database.Connection(s.Connection)
		if err != nil {
			response.Error(c, err)
			return
		}

		if errs := validate.Validate(only, values, validate.ValidateOptions{
			Unique: func(fld string, value any, excludePK any) (bool, error) {
				return database.Unique(c.Request.Context(), conn, s, fld, value, excludePK)
			},
			ExcludePK: h.PKValue(),
		}); len(errs) > 0 {
			response.Error(c, types.NewError(types.KindValidation, "validation failed").WithFields(errs))
			return
		}

		fieldsToUpdate := []string{fieldName}
		if s.Timestamps {
			values["updated_at"] = d.Clock.Now()
			fieldsToUpdate = append(fieldsToUpdate, "updated_at")
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
			return th.Update(c.Request.Context(), fieldsToUpdate)
		})
		if err != nil {
			response.Error(c, err)
			return
		}

		id := c.Param("id")
		recordAudit(c, d, consts.OP_PATCH, s, id, values)
		response.StateChange(c, http.StatusOK, "Updated", fmt.Sprintf("%s field \"%s\" updated successfully", singularDisplay(s), fieldName), gin.H{
			"model": s.Model,
			"id":    id,
			"data":  sanitizeRecord(s, merged),
		})
	}
}
