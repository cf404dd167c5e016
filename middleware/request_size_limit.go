package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forbearing/crud6/response"
	"github.com/forbearing/crud6/types"
)

// RequestSizeLimit returns a middleware that limits the size of incoming
// request bodies, so a malformed or hostile create/update payload can't
// exhaust server memory before validation ever runs.
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > 0 && c.Request.ContentLength > maxSize {
			response.Error(c, types.NewError(types.KindBadRequest, "request body too large"))
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}
		c.Next()
	}
}
