// Package basic bootstraps the casbin model and gorm policy adapter that
// back authz/rbac.Authorizer. The request/policy shape is a plain
// (sub, obj) pair over a single permission slug, since CheckAccess has no
// separate verb — the permission string already names the action (e.g.
// "crud6.widget.read").
package basic

import (
	"os"
	"path/filepath"

	"github.com/casbin/casbin/v2"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/cockroachdb/errors"

	"github.com/forbearing/crud6/authz/rbac"
	"github.com/forbearing/crud6/config"
	"github.com/forbearing/crud6/database"
	pkgzap "github.com/forbearing/crud6/logger/zap"
)

const (
	defaultAdminRole = "admin"
	defaultAdminUser = "root"
)

var modelData = []byte(`
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj, eft

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, "admin") || (g(r.sub, p.sub) && keyMatch3(r.obj, p.obj))
`)

// Init wires rbac.Enforcer from config.App.Middleware.EnableAuthz, using
// the process-default database connection for policy storage (gorm-adapter
// auto-migrates its own "casbin_rule" table, so no app-specific row type is
// needed).
func Init() (err error) {
	if !config.App.Middleware.EnableAuthz {
		return nil
	}

	filename := filepath.Join(config.Tempdir(), "casbin_model.conf")
	if err = os.WriteFile(filename, modelData, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write model file %s", filename)
	}
	if rbac.Adapter, err = gormadapter.NewAdapterByDB(database.Default); err != nil {
		return errors.Wrap(err, "failed to create casbin adapter")
	}
	if rbac.Enforcer, err = casbin.NewEnforcer(filename, rbac.Adapter); err != nil {
		return errors.Wrap(err, "failed to create casbin enforcer")
	}

	rbac.Enforcer.SetLogger(pkgzap.NewCasbin("authz.log"))
	rbac.Enforcer.EnableLog(true)
	rbac.Enforcer.EnableAutoSave(true)
	rbac.Enforcer.EnableAutoNotifyDispatcher(true)
	rbac.Enforcer.EnableAutoNotifyWatcher(true)
	rbac.Enforcer.EnableEnforce(true)

	_, _ = rbac.Enforcer.AddGroupingPolicy(defaultAdminUser, defaultAdminRole)

	return rbac.Enforcer.LoadPolicy()
}
