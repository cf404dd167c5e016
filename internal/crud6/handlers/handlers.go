package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/middleware"
	"github.com/forbearing/crud6/response"
	"github.com/forbearing/crud6/types"
	"github.com/forbearing/crud6/types/consts"
)

// jsonEncode is the callback validate.Transform uses to re-encode structured
// "json" field values the same way the request body was already decoded.
func jsonEncode(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

// checkPermission implements the common preamble every action handler
// runs: check permission via the Authorizer, rejecting with Forbidden if
// denied. It writes the error response itself and reports whether the
// caller should continue.
func checkPermission(c *gin.Context, d *Deps, s *schema.Schema, action string) bool {
	return authorize(c, d, s.Permission(action))
}

// authorize is checkPermission's lower-level counterpart for callers (e.g.
// CustomAction) that resolve their own permission slug rather than one of
// the schema's standard action names.
func authorize(c *gin.Context, d *Deps, permission string) bool {
	principal := middleware.PrincipalFrom(c)
	allowed, err := d.Auth.CheckAccess(c.Request.Context(), principal, permission)
	if err != nil {
		response.Error(c, types.Wrap(types.KindInternal, err, "authorization check failed"))
		return false
	}
	if !allowed {
		response.Error(c, types.NewError(types.KindForbidden, "permission denied"))
		return false
	}
	return true
}

// principalID returns the authenticated principal's id, or "" when
// authentication is disabled.
func principalID(c *gin.Context) string {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		return ""
	}
	return p.ID
}

// bindJSONObject decodes the request body as a generic field map, the shape
// Transform/Validate operate on.
func bindJSONObject(c *gin.Context) (map[string]any, error) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, types.Wrap(types.KindBadRequest, err, "malformed request body")
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

// displayName resolves the human-facing name a schema is shown under,
// falling back through title -> singular_title -> the bare model name.
func displayName(s *schema.Schema) string {
	if s.Title != "" {
		return s.Title
	}
	if s.SingularTitle != "" {
		return s.SingularTitle
	}
	return s.Model
}

// singularDisplay is displayName's singular-form counterpart, used in
// generated state-change messages ("Widget created successfully").
func singularDisplay(s *schema.Schema) string {
	if s.SingularTitle != "" {
		return s.SingularTitle
	}
	if s.Title != "" {
		return s.Title
	}
	return s.Model
}

// breadcrumb builds "{title_field value} ({id})" when the schema names a
// title field present in record, else just the id.
func breadcrumb(s *schema.Schema, id string, record map[string]any) string {
	if s.TitleField != "" {
		if v, ok := record[s.TitleField]; ok {
			if str := fmtValue(v); str != "" {
				return fmt.Sprintf("%s (%s)", str, id)
			}
		}
	}
	return id
}

func fmtValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func idString(v any) string {
	return fmtValue(v)
}

// sanitizeRecord strips password-type field values from a record before it
// ever reaches a JSON response, matching the schema loader's own
// list/detail redaction in internal/crud6/schema/loader.go.
func sanitizeRecord(s *schema.Schema, values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if f := s.Field(k); f != nil && f.Type == schema.FieldPassword {
			continue
		}
		out[k] = v
	}
	return out
}

// splitCSV parses a comma-separated query parameter (e.g. ?context=list,form)
// into its trimmed, non-empty parts.
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// recordAudit emits an audit entry for a mutating operation, logging (but
// not failing the request on) sink errors — the audit sink is a side
// channel, not part of the transactional contract.
func recordAudit(c *gin.Context, d *Deps, op consts.OP, s *schema.Schema, id string, fields map[string]any) {
	if d.Audit == nil {
		return
	}
	entry := types.AuditEntry{
		Operation:   string(op),
		Model:       s.Model,
		RecordID:    id,
		PrincipalID: principalID(c),
		Fields:      fields,
		At:          d.Clock.Now(),
	}
	if err := d.Audit.Record(c.Request.Context(), entry); err != nil {
		zap.S().Errorw("failed to record audit entry", "model", s.Model, "op", string(op), "error", err)
	}
}
