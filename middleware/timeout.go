package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/forbearing/crud6/response"
	"github.com/forbearing/crud6/types"
)

// Timeout returns a middleware that bounds a request to timeout, writing a
// KindTimeout error if the handler chain hasn't finished by then.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		done := make(chan struct{})
		panicChan := make(chan any, 1)

		go func() {
			defer func() {
				if r := recover(); r != nil {
					panicChan <- r
				}
			}()
			c.Next()
			close(done)
		}()

		select {
		case <-done:
		case p := <-panicChan:
			// Re-panic in the original goroutine so Recovery middleware can catch it.
			panic(p)
		case <-ctx.Done():
			if !c.Writer.Written() {
				zap.S().Warnw("request timeout", "path", c.Request.URL.Path, "method", c.Request.Method, "timeout", timeout)
				response.Error(c, types.NewError(types.KindTimeout, "request timed out"))
				c.Abort()
			}
			cancel()
		}
	}
}
