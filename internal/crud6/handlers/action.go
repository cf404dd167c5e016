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

// CustomAction implements POST /api/crud6/{model}/{id}/a/{actionKey}:
// dispatch by the matching ActionSpec's declared type, a permission check
// against the action's own permission slug when set, falling back to the
// schema's update permission otherwise.
func CustomAction(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := middleware.SchemaFrom(c)
		h := middleware.HandleFrom(c)
		if s == nil || h == nil {
			response.Error(c, types.NewError(types.KindNotFound, "record not found"))
			return
		}

		actionKey := c.Param("actionKey")
		action := s.FindAction(actionKey)
		if action == nil {
			response.Error(c, types.NewError(types.KindNotFound, "unknown action \""+actionKey+"\""))
			return
		}

		permission := action.Permission
		if permission == "" {
			permission = s.Permission(schema.ActionUpdate)
		}
		if !authorize(c, d, permission) {
			return
		}

		switch action.Type {
		case schema.ActionFieldUpdate:
			runFieldUpdateAction(c, d, s, h, action)
		case schema.ActionPasswordUpdate:
			runPasswordUpdateAction(c, d, s, h, action)
		default:
			runCustomAction(c, d, s, h, action)
		}
	}
}

// runFieldUpdateAction writes a single schema-declared field, the same
// mechanics PatchField uses, driven by the action's Field rather than a
// route parameter.
func runFieldUpdateAction(c *gin.Context, d *Deps, s *schema.Schema, h *database.Handle, action *schema.ActionSpec) {
	f := s.Field(action.Field)
	if f == nil || !f.IsEditable() {
		response.Error(c, types.NewError(types.KindInternal, "action \""+action.Key+"\" targets an unknown or non-editable field"))
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

	only := map[string]*schema.FieldSpec{action.Field: f}
	values, err := validate.Transform(only, map[string]any{action.Field: raw}, jsonEncode)
	if err != nil {
		response.Error(c, types.Wrap(types.KindBadRequest, err, "invalid field value"))
		return
	}
	if errs := validate.Validate(only, values, validate.ValidateOptions{ExcludePK: h.PKValue()}); len(errs) > 0 {
		response.Error(c, types.NewError(types.KindValidation, "validation failed").WithFields(errs))
		return
	}

	applyAndRespond(c, d, s, h, values, action, consts.OP_ACTION)
}

// runPasswordUpdateAction writes a password-type field from a "password"
// request key, bypassing the read path's password redaction entirely (the
// new value never appears in the response).
func runPasswordUpdateAction(c *gin.Context, d *Deps, s *schema.Schema, h *database.Handle, action *schema.ActionSpec) {
	field := action.Field
	if field == "" {
		field = "password"
	}
	f := s.Field(field)
	if f == nil {
		response.Error(c, types.NewError(types.KindInternal, "action \""+action.Key+"\" targets an unknown field"))
		return
	}

	input, err := bindJSONObject(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	raw, ok := input["password"]
	if !ok {
		response.Error(c, types.NewError(types.KindBadRequest, "missing \"password\""))
		return
	}
	password, _ := raw.(string)
	if password == "" {
		response.Error(c, types.NewError(types.KindValidation, "validation failed").WithFields(map[string][]string{field: {"required"}}))
		return
	}

	values := map[string]any{field: password}
	if errs := validate.Validate(map[string]*schema.FieldSpec{field: f}, values, validate.ValidateOptions{ExcludePK: h.PKValue()}); len(errs) > 0 {
		response.Error(c, types.NewError(types.KindValidation, "validation failed").WithFields(errs))
		return
	}

	applyAndRespond(c, d, s, h, values, action, consts.OP_ACTION)
}

// runCustomAction handles a schema-declared action with no built-in
// semantics: it records the invocation and reports success without
// mutating any field, since a bespoke business effect beyond the generic
// CRUD surface has no schema-described implementation to drive.
func runCustomAction(c *gin.Context, d *Deps, s *schema.Schema, h *database.Handle, action *schema.ActionSpec) {
	id := idString(h.PKValue())
	recordAudit(c, d, consts.OP_ACTION, s, id, map[string]any{"action": action.Key})
	message := action.SuccessMessage
	if message == "" {
		message = fmt.Sprintf("%s action \"%s\" completed successfully", singularDisplay(s), action.Key)
	}
	response.StateChange(c, http.StatusOK, "Completed", message, gin.H{
		"model": s.Model,
		"id":    id,
	})
}

func applyAndRespond(c *gin.Context, d *Deps, s *schema.Schema, h *database.Handle, values map[string]any, action *schema.ActionSpec, op consts.OP) {
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

	err := database.Transaction(c.Request.Context(), s, func(tx *gorm.DB) error {
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

	id := idString(h.PKValue())
	recordAudit(c, d, op, s, id, values)
	message := action.SuccessMessage
	if message == "" {
		message = fmt.Sprintf("%s action \"%s\" completed successfully", singularDisplay(s), action.Key)
	}
	response.StateChange(c, http.StatusOK, "Completed", message, gin.H{
		"model": s.Model,
		"id":    id,
		"data":  sanitizeRecord(s, merged),
	})
}
