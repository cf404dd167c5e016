package middleware

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	pkgzap "github.com/forbearing/crud6/logger/zap"
	"github.com/forbearing/crud6/provider/otel"
)

// Recovery returns gin's panic-recovery middleware backed by the zap
// logger written to filename, and additionally records any recovered panic
// on the request's active OTEL span so it shows up alongside the trace.
func Recovery(filename string) gin.HandlerFunc {
	zl := pkgzap.New(filename).ZapLogger()
	return ginzap.CustomRecoveryWithZap(zl, true, func(c *gin.Context, r any) {
		otel.RecordError(trace.SpanFromContext(c.Request.Context()), panicError(r))
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

type panicValue struct{ v any }

func (p panicValue) Error() string { return "panic recovered" }

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return panicValue{v: r}
}
