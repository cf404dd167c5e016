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

// Create implements POST /api/crud6/{model}. On validation failure nothing
// is written: Validate runs before the transaction opens.
func Create(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := middleware.SchemaFrom(c)
		if s == nil {
			return
		}
		if !checkPermission(c, d, s, schema.ActionCreate) {
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
		// Client-supplied values for readonly/auto_increment/computed fields
		// are dropped before defaults fill them in.
		validate.StripNonWritable(s.Fields, values)
		validate.ApplyDefaults(s.Fields, values)

		conn, err := database.Connection(s.Connection)
		if err != nil {
			response.Error(c, err)
			return
		}

		if errs := validate.Validate(s.Fields, values, validate.ValidateOptions{
			Unique: func(field string, value any, excludePK any) (bool, error) {
				return database.Unique(c.Request.Context(), conn, s, field, value, excludePK)
			},
		}); len(errs) > 0 {
			response.Error(c, types.NewError(types.KindValidation, "validation failed").WithFields(errs))
			return
		}

		if s.Timestamps {
			now := d.Clock.Now()
			values["created_at"] = now
			values["updated_at"] = now
		}

		var record map[string]any
		err = database.Transaction(c.Request.Context(), s, func(tx *gorm.DB) error {
			h := database.New(tx, s)
			if err := h.SetAll(values); err != nil {
				return err
			}
			if err := h.Insert(c.Request.Context()); err != nil {
				return err
			}
			record = h.Values()
			return nil
		})
		if err != nil {
			response.Error(c, err)
			return
		}

		id := idString(record[s.PrimaryKey])
		recordAudit(c, d, consts.OP_CREATE, s, id, values)
		response.StateChange(c, http.StatusCreated, "Created", fmt.Sprintf("%s created successfully", singularDisplay(s)), gin.H{
			"model": s.Model,
			"id":    id,
			"data":  sanitizeRecord(s, record),
		})
	}
}
