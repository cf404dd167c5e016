// Package rbac is the concrete types.Authorizer: authorization is external
// to the core, which only ever calls CheckAccess. Backed by casbin — a
// single package-level *casbin.Enforcer plus role/permission management
// helpers used by an admin surface, not by the crud6 core itself.
package rbac

import (
	"context"

	"github.com/casbin/casbin/v2"
	gormadapter "github.com/casbin/gorm-adapter/v3"

	"github.com/forbearing/crud6/types"
)

var (
	Enforcer *casbin.Enforcer
	Adapter  *gormadapter.Adapter
)

// Authorizer is the types.Authorizer implementation wired into cmd/server's
// Deps.Auth. Falls back to deny-all when the enforcer hasn't been
// initialized (RBAC disabled), rather than panicking.
type Authorizer struct{}

var _ types.Authorizer = Authorizer{}

// CheckAccess implements types.Authorizer. The "admin" role always passes;
// everyone else needs an explicit (role, permission, allow) policy, matched
// with keyMatch3 so a policy object like "crud6.widget.*" covers every
// action on that model.
func (Authorizer) CheckAccess(ctx context.Context, principal *types.Principal, permission string) (bool, error) {
	if Enforcer == nil {
		return false, nil
	}
	if principal == nil {
		return Enforcer.Enforce("", permission)
	}
	for _, role := range principal.Roles {
		if role == "admin" {
			return true, nil
		}
	}
	return Enforcer.Enforce(principal.ID, permission)
}

// AddRole is a no-op in casbin: roles are created implicitly the first time
// they're used in a grouping or permission policy.
func AddRole(name string) error { return nil }

func RemoveRole(name string) error {
	if Enforcer == nil {
		return nil
	}
	if _, err := Enforcer.DeleteRole(name); err != nil {
		return err
	}
	return Enforcer.SavePolicy()
}

// GrantPermission allows role to exercise permission, a permission slug
// like "crud6.widget.read".
func GrantPermission(role, permission string) error {
	if Enforcer == nil {
		return nil
	}
	if _, err := Enforcer.AddPolicy(role, permission, "allow"); err != nil {
		return err
	}
	return Enforcer.SavePolicy()
}

func RevokePermission(role, permission string) error {
	if Enforcer == nil {
		return nil
	}
	if permission == "" {
		if _, err := Enforcer.RemoveFilteredPolicy(0, role); err != nil {
			return err
		}
		return Enforcer.SavePolicy()
	}
	if _, err := Enforcer.RemovePolicy(role, permission, "allow"); err != nil {
		return err
	}
	return Enforcer.SavePolicy()
}

func AssignRole(subject, role string) error {
	if Enforcer == nil {
		return nil
	}
	if _, err := Enforcer.AddRoleForUser(subject, role); err != nil {
		return err
	}
	return Enforcer.SavePolicy()
}

func UnassignRole(subject, role string) error {
	if Enforcer == nil {
		return nil
	}
	if _, err := Enforcer.DeleteRoleForUser(subject, role); err != nil {
		return err
	}
	return Enforcer.SavePolicy()
}
