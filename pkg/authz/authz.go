package authz

import (
	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"unplan-backend/pkg/config"
	"unplan-backend/pkg/errutil"
)

var Module = fx.Module("authz",
	fx.Provide(NewEnforcer),
)

// NewEnforcer loads the RBAC model and policy referenced by ACCESS_CONTROL.
// The policy maps roles to route patterns and HTTP methods; every protected
// endpoint goes through the same gate instead of per-handler role checks.
func NewEnforcer(cfg *config.Config) *casbin.Enforcer {
	e, err := casbin.NewEnforcer(cfg.AccessControl.Model, cfg.AccessControl.Policy)
	if err != nil {
		zap.L().Fatal("failed to load access control policy",
			zap.String("model", cfg.AccessControl.Model),
			zap.String("policy", cfg.AccessControl.Policy),
			zap.Error(err),
		)
	}
	return e
}

// Enforce is the uniform role gate applied after authentication. It matches
// the authenticated role against the route pattern and method.
func Enforce(e *casbin.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			c.Error(errutil.Unauthorized("unauthorized", nil))
			c.Abort()
			return
		}

		ok, err := e.Enforce(role, c.FullPath(), c.Request.Method)
		if err != nil {
			zap.L().Error("authz enforce failed", zap.String("role", role), zap.String("path", c.FullPath()), zap.Error(err))
			c.Error(errutil.Internal("authorization check failed", err))
			c.Abort()
			return
		}

		if !ok {
			c.Error(errutil.Forbidden("forbidden", nil))
			c.Abort()
			return
		}

		c.Next()
	}
}
