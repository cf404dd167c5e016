package middleware

import (
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/forbearing/crud6/config"
	"github.com/forbearing/crud6/provider/otel"
)

var (
	cb                *gobreaker.CircuitBreaker
	CommonMiddlewares = []gin.HandlerFunc{}
	AuthMiddlewares   = []gin.HandlerFunc{}
)

// Register adds global middlewares that apply to all routes.
// Must be called before router.Init.
// Middlewares are auto-wrapped for tracing; name is inferred via reflection.
func Register(middlewares ...gin.HandlerFunc) {
	for _, middleware := range middlewares {
		if middleware == nil {
			continue
		}
		name := getFunctionName(middleware)
		wrapped := middlewareWrapper(name, middleware)
		CommonMiddlewares = append(CommonMiddlewares, wrapped)
	}
}

// RegisterAuth adds authentication/authorization middlewares.
// Must be called before router.Init.
// Middlewares are auto-wrapped for tracing; name is inferred via reflection.
func RegisterAuth(middlewares ...gin.HandlerFunc) {
	for _, middleware := range middlewares {
		if middleware == nil {
			continue
		}
		name := getFunctionName(middleware)
		wrapped := middlewareWrapper(name, middleware)
		AuthMiddlewares = append(AuthMiddlewares, wrapped)
	}
}

// Init builds the package's gobreaker circuit breaker from
// config.App.Server.CircuitBreaker; no route or handler runs through it.
func Init() (err error) {
	cbCfg := config.App.Server.CircuitBreaker
	if cbCfg.MaxRequests == 0 {
		return errors.New("circuit breaker max_requests cannot be 0")
	}
	if cbCfg.MinRequests == 0 {
		return errors.New("circuit breaker min_requests cannot be 0")
	}
	if cbCfg.FailureRate <= 0 || cbCfg.FailureRate > 1 {
		return errors.New("circuit breaker failure_rate must be between 0 and 1")
	}

	cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cbCfg.Name,
		MaxRequests: cbCfg.MaxRequests,
		Interval:    cbCfg.Interval,
		Timeout:     cbCfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cbCfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cbCfg.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.S().Infow("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	zap.S().Infow("circuit breaker initialized",
		"name", cbCfg.Name,
		"max_requests", cbCfg.MaxRequests,
		"min_requests", cbCfg.MinRequests,
		"failure_rate", cbCfg.FailureRate,
		"interval", cbCfg.Interval,
		"timeout", cbCfg.Timeout,
	)
	return nil
}

// middlewareWrapper wraps a handler with a span named after it, so every
// registered middleware shows up in traces without each one calling
// provider/otel itself.
func middlewareWrapper(name string, next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !otel.IsEnabled() {
			next(c)
			return
		}
		ctx, span := otel.StartSpan(c.Request.Context(), "middleware."+name)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		next(c)
	}
}

// getFunctionName extracts the function name from a gin.HandlerFunc using reflection
func getFunctionName(fn gin.HandlerFunc) string {
	if fn == nil {
		return "unknown"
	}

	fnPtr := reflect.ValueOf(fn).Pointer()
	fnInfo := runtime.FuncForPC(fnPtr)
	if fnInfo == nil {
		return "unknown"
	}

	fullName := fnInfo.Name()
	file, line := fnInfo.FileLine(fnPtr)

	lastDot := strings.LastIndex(fullName, "/")
	if lastDot >= 0 {
		fullName = fullName[lastDot+1:]
	}

	parts := strings.Split(fullName, ".")
	if len(parts) < 2 {
		return cleanFunctionName(fullName)
	}

	funcName := parts[len(parts)-1]

	if strings.HasPrefix(funcName, "func") || strings.Contains(funcName, "glob..func") {
		if len(parts) >= 3 {
			parentName := parts[len(parts)-2]
			if parentName == "glob" || (len(parentName) > 0 && isNumeric(parentName[0])) {
				if file != "" {
					return fmt.Sprintf("%s_L%d", filepath.Base(strings.TrimSuffix(file, ".go")), line)
				}
				return fmt.Sprintf("anonymous_L%d", line)
			}
			if parentName != "" && !strings.Contains(parentName, "..") {
				return parentName
			}
		}
		if file != "" {
			return fmt.Sprintf("%s_L%d", filepath.Base(strings.TrimSuffix(file, ".go")), line)
		}
		return "anonymous"
	}

	if len(funcName) > 0 && isNumeric(funcName[0]) {
		if file != "" {
			return fmt.Sprintf("%s_L%d", filepath.Base(strings.TrimSuffix(file, ".go")), line)
		}
		return fmt.Sprintf("func%s", funcName)
	}

	return cleanFunctionName(funcName)
}

func cleanFunctionName(name string) string {
	name = strings.TrimSuffix(name, "-fm")
	name = strings.TrimSuffix(name, ".func1")
	name = strings.TrimSuffix(name, ".func2")
	return name
}

func isNumeric(b byte) bool {
	return b >= '0' && b <= '9'
}
