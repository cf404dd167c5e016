package zap

import (
	casbinl "github.com/casbin/casbin/v2/log"

	"github.com/forbearing/crud6/types"
)

// CasbinLogger implements casbin's log.Logger over types.Logger.
type CasbinLogger struct {
	l       types.Logger
	enabled bool
}

var _ casbinl.Logger = (*CasbinLogger)(nil)

func (c *CasbinLogger) EnableLog(enabled bool) { c.enabled = enabled }
func (c *CasbinLogger) IsEnabled() bool        { return c.enabled }

func (c *CasbinLogger) LogModel(model [][]string) {
	if !c.enabled {
		return
	}
	c.l.Infow("casbin model", "model", model)
}

func (c *CasbinLogger) LogEnforce(matcher string, request []any, result bool, explains [][]string) {
	if !c.enabled {
		return
	}
	c.l.Infow("casbin enforce", "matcher", matcher, "request", request, "result", result, "explains", explains)
}

func (c *CasbinLogger) LogPolicy(policy map[string][][]string) {
	if !c.enabled {
		return
	}
	c.l.Infow("casbin policy", "policy", policy)
}

func (c *CasbinLogger) LogRole(roles []string) {
	if !c.enabled {
		return
	}
	c.l.Infow("casbin roles", "roles", roles)
}

func (c *CasbinLogger) LogError(err error, msg ...string) {
	c.l.Errorw("casbin error", "error", err, "msg", msg)
}
