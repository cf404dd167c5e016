// Package bootstrap sequences process startup: every subsystem registers a
// no-arg Init as a closure, Init() runs them in order with per-function
// timing, and RegisterCleanup pairs each with a shutdown step. Trimmed to
// the subsystems this module actually has (see DESIGN.md's "Deleted
// packages" section for what was cut and why).
package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/forbearing/crud6/authz/rbac"
	rbacbasic "github.com/forbearing/crud6/authz/rbac/basic"
	"github.com/forbearing/crud6/config"
	"github.com/forbearing/crud6/database"
	"github.com/forbearing/crud6/database/mysql"
	"github.com/forbearing/crud6/database/postgres"
	"github.com/forbearing/crud6/database/sqlite"
	"github.com/forbearing/crud6/internal/crud6/handlers"
	"github.com/forbearing/crud6/internal/crud6/schema"
	"github.com/forbearing/crud6/internal/crud6/sprunje"
	pkgzap "github.com/forbearing/crud6/logger/zap"
	"github.com/forbearing/crud6/metrics"
	"github.com/forbearing/crud6/middleware"
	"github.com/forbearing/crud6/pkg/auditmanager"
	"github.com/forbearing/crud6/provider/otel"
	"github.com/forbearing/crud6/provider/redis"
	"github.com/forbearing/crud6/router"
	"github.com/forbearing/crud6/types"
)

var (
	initialized bool
	mu          sync.Mutex

	loader      *schema.Loader
	deps        *handlers.Deps
	auditCtx    context.Context
	auditCancel context.CancelFunc
)

// Bootstrap runs every subsystem's Init exactly once, stopping at the
// first failure.
func Bootstrap() error {
	_, _ = maxprocs.Set(maxprocs.Logger(pkgzap.New("").Infof))

	mu.Lock()
	defer mu.Unlock()
	if initialized {
		return nil
	}

	Register(
		config.Init,
		pkgzap.Init,
		otel.Init,
		redis.Init,
		metrics.Init,

		// Every dialect package no-ops unless its own config is enabled,
		// and only the one matching config.Database.Type wires
		// database.Default.
		sqlite.Init,
		postgres.Init,
		mysql.Init,

		middleware.Init,
		rbacbasic.Init,

		buildDeps,
		initRouter,
	)
	if err := Init(); err != nil {
		return err
	}

	RegisterCleanup(func() error { auditCancel(); return nil })
	RegisterCleanup(redis.Shutdown)
	RegisterCleanup(func() error { pkgzap.Clean(); return nil })
	RegisterCleanup(router.Stop)

	initialized = true
	return nil
}

// buildDeps constructs the schema loader and the action handlers'
// collaborators, once the database and authorizer it depends on are up.
// The audit manager's background consumer runs until auditCancel (wired
// in RegisterCleanup) stops it.
func buildDeps() error {
	loader = schema.NewLoader(config.App.Crud6.SchemaDir)
	auditor := auditmanager.New(database.Default, &config.App.Audit)

	auditCtx, auditCancel = context.WithCancel(context.Background())
	RegisterGo(func() error {
		auditor.Consume(auditCtx)
		return nil
	})

	deps = &handlers.Deps{
		Loader:          loader,
		Auth:            rbac.Authorizer{},
		Audit:           auditor,
		Clock:           types.SystemClock,
		DefaultPageSize: config.App.Crud6.DefaultPageSize,
		MaxPageSize:     config.App.Crud6.MaxPageSize,
	}
	if redis.IsEnabled() {
		deps.PageCache = redis.PageCache[*sprunje.Page]{Prefix: "crud6:list:"}
	}
	return nil
}

func initRouter() error {
	return router.Init(loader, deps)
}

// Run starts serving and blocks until a termination signal arrives.
func Run() error {
	defer Cleanup()

	RegisterGo(router.Run)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	errCh := make(chan error, 1)

	go func() { errCh <- Go() }()
	select {
	case sig := <-sigCh:
		zap.S().Infow("shutting down", "signal", sig.String())
		return nil
	case err := <-errCh:
		return err
	}
}
