// Package router builds the gin.Engine that serves the schema-driven CRUD
// surface plus the process's operational endpoints (/metrics, /-/healthz,
// /-/readyz), following an Init/Run/Stop lifecycle. There's no per-model
// route registration here: one static route table binds every model
// through internal/crud6/handlers.
package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/forbearing/crud6/config"
	"github.com/forbearing/crud6/database"
	"github.com/forbearing/crud6/internal/crud6/handlers"
	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/middleware"
)

var (
	root   *gin.Engine
	server *http.Server
)

// Init builds the engine and mounts every route. loader
// backs middleware.ResolveModel directly; deps carries the same
// collaborators (including the same loader) every action handler needs.
func Init(loader *schema.Loader, deps *handlers.Deps) error {
	if config.App.Crud6.DebugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	root = gin.New()

	root.Use(
		middleware.Logger(),
		middleware.Recovery(config.App.Logger.File),
		middleware.SecurityHeaders(nil),
		middleware.RequestSizeLimit(10<<20),
	)
	root.Use(middleware.CommonMiddlewares...)

	root.GET("/metrics", gin.WrapH(promhttp.Handler()))
	root.GET("/-/healthz", healthz)
	root.GET("/-/readyz", readyz)

	requestTimeout := config.App.Crud6.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	api := root.Group("/api/crud6")
	api.Use(middleware.Timeout(requestTimeout))
	// /config is registered before Authenticate is added to the group, so
	// it never carries that middleware: it's a public settings export, not
	// a schema-scoped operation a principal acts on.
	api.GET("/config", crud6Config)
	if config.App.Middleware.EnableJwtAuth {
		api.Use(middleware.Authenticate())
	}
	api.Use(middleware.AuthMiddlewares...)

	scoped := api.Group("")
	scoped.Use(middleware.ResolveModel(loader))
	scoped.GET("/:model/schema", handlers.SchemaInfo(deps))
	scoped.GET("/:model", handlers.List(deps))
	scoped.POST("/:model", handlers.Create(deps))
	scoped.GET("/:model/:id", handlers.Read(deps))
	scoped.PUT("/:model/:id", handlers.Update(deps))
	scoped.DELETE("/:model/:id", handlers.Delete(deps))
	scoped.PUT("/:model/:id/:field", handlers.PatchField(deps))
	scoped.POST("/:model/:id/a/:actionKey", handlers.CustomAction(deps))
	scoped.GET("/:model/:id/:relation", handlers.Relation(deps))

	return nil
}

// crud6Config returns the trivial settings export consumed by clients to
// toggle debug affordances.
func crud6Config(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"debug_mode": config.App.Crud6.DebugMode})
}

func healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readyz additionally pings the database, since a process that's up but
// can't reach its database can't actually serve any crud6 route.
func readyz(c *gin.Context) {
	if database.Default == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "database not initialized"})
		return
	}
	sqlDB, err := database.Default.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Run starts serving on config.App.Server.Listen:Port in the background
// and returns immediately; call Stop to shut down gracefully.
func Run() error {
	addr := fmt.Sprintf("%s:%d", config.App.Server.Listen, config.App.Server.Port)
	server = &http.Server{
		Addr:    addr,
		Handler: root,
	}
	go func() {
		var err error
		if config.App.Server.CertFile != "" && config.App.Server.KeyFile != "" {
			err = server.ListenAndServeTLS(config.App.Server.CertFile, config.App.Server.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			zap.S().Errorw("server stopped unexpectedly", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down, giving in-flight requests up to
// config.App.Server.ShutdownTimeout to finish.
func Stop() error {
	if server == nil {
		return nil
	}
	timeout := config.App.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return server.Shutdown(ctx)
}
