package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/forbearing/crud6/authz/rbac"
	"github.com/forbearing/crud6/logger"
	"github.com/forbearing/crud6/response"
	"github.com/forbearing/crud6/types"
	"github.com/forbearing/crud6/types/consts"
)

// Authz gates a static route behind a single fixed permission slug, for
// routes outside the schema-driven surface (e.g. an admin schema-reload
// endpoint). The dynamic per-action checks on /api/crud6/* resolve their
// own permission from the schema and call
// rbac.Authorizer directly from within internal/crud6/handlers instead of
// going through this middleware.
func Authz(permission string) gin.HandlerFunc {
	authorizer := rbac.Authorizer{}
	return func(c *gin.Context) {
		principal, _ := c.Value(consts.CTX_PRINCIPAL).(*types.Principal)

		allow, err := authorizer.CheckAccess(c.Request.Context(), principal, permission)
		if err != nil {
			response.Error(c, types.Wrap(types.KindInternal, err, "authorization check failed"))
			c.Abort()
			return
		}

		var principalID string
		if principal != nil {
			principalID = principal.ID
		}
		if !allow {
			logger.Authz.Infow("authz denied", "principal", principalID, "permission", permission)
			response.Error(c, types.NewError(types.KindForbidden, "access denied"))
			c.Abort()
			return
		}
		logger.Authz.Infow("authz allowed", "principal", principalID, "permission", permission)
		c.Next()
	}
}
