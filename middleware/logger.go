package middleware

import (
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/forbearing/crud6/logger"
	"github.com/forbearing/crud6/metrics"
	"github.com/forbearing/crud6/types"
	"github.com/forbearing/crud6/types/consts"
)

// Logger records one access-log line per request through logger.Server and
// updates the request-count/duration Prometheus metrics, keyed by
// principal rather than a raw username/user-id string.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		labelPath := sanitizeLabelValue(path)
		query := c.Request.URL.RawQuery
		c.Set(consts.CTX_ROUTE, path)
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, labelPath, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, labelPath, status).Observe(time.Since(start).Seconds())

		var principalID string
		if p, ok := c.Value(consts.CTX_PRINCIPAL).(*types.Principal); ok && p != nil {
			principalID = p.ID
		}

		fields := []any{
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"principal", principalID,
			"request_id", c.GetString(consts.CTX_REQUEST_ID),
			"path", path,
			"query", query,
			"ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
			"latency", time.Since(start).String(),
		}
		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
			fields = append(fields, "trace_id", span.SpanContext().TraceID().String())
		}

		if len(c.Errors) > 0 {
			for _, e := range c.Errors.Errors() {
				logger.Server.Errorw(e.Error(), fields...)
			}
		} else {
			logger.Server.Infow(path, fields...)
		}
	}
}

// sanitizeLabelValue ensures we never export non-UTF-8 label values to Prometheus.
func sanitizeLabelValue(value string) string {
	if value == "" {
		return "<empty>"
	}
	if utf8.ValidString(value) {
		return value
	}
	return "<invalid>"
}
