package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/forbearing/crud6/authn/jwt"
	"github.com/forbearing/crud6/config"
	"github.com/forbearing/crud6/response"
	"github.com/forbearing/crud6/types"
	"github.com/forbearing/crud6/types/consts"
)

// Authenticate parses the request's bearer token and attaches the resulting
// types.Principal to the gin context under consts.CTX_PRINCIPAL, ahead of
// ResolveModel and any authorization check, so an unauthenticated request
// gets a 401 before ever touching schema resolution. Disabled entirely via
// config.App.Auth.Enable, for deployments that terminate auth upstream of
// this service and forward an already-trusted principal some other way.
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.App.Auth.Enable {
			c.Next()
			return
		}

		token, claims, err := jwt.ParseTokenFromHeader(c.Request.Header)
		if err != nil {
			if token == config.App.Auth.NoneExpireToken && token != "" {
				c.Set(consts.CTX_PRINCIPAL, &types.Principal{ID: "root", Roles: []string{"admin"}})
				c.Next()
				return
			}
			response.Error(c, types.NewError(types.KindUnauthed, "invalid or missing credentials"))
			c.Abort()
			return
		}

		c.Set(consts.CTX_PRINCIPAL, &types.Principal{ID: claims.UserID, Roles: claims.Roles})
		c.Next()
	}
}

// PrincipalFrom retrieves the principal attached by Authenticate, if any.
func PrincipalFrom(c *gin.Context) *types.Principal {
	v, ok := c.Get(consts.CTX_PRINCIPAL)
	if !ok {
		return nil
	}
	p, _ := v.(*types.Principal)
	return p
}
