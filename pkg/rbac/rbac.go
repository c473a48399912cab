package rbac

import (
	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"snapbounty-platform/pkg/config"
	"snapbounty-platform/pkg/errutil"
)

// AdminIDHeader carries the already-authenticated admin identity. Issuing it
// is the job of the auth proxy in front of this service.
const AdminIDHeader = "X-Admin-ID"

var Module = fx.Module("rbac",
	fx.Provide(NewEnforcer, NewChecker),
)

// RoleChecker is the injected role predicate consumed by services that need
// an authorization decision without knowing where roles live.
type RoleChecker interface {
	HasRole(actor, role string) bool
}

func NewEnforcer(cfg *config.Config) (*casbin.Enforcer, error) {
	return casbin.NewEnforcer(cfg.AccessControl.Model, cfg.AccessControl.Policy)
}

type checker struct {
	enforcer *casbin.Enforcer
}

func NewChecker(enforcer *casbin.Enforcer) RoleChecker {
	return &checker{enforcer: enforcer}
}

func (c *checker) HasRole(actor, role string) bool {
	ok, err := c.enforcer.HasRoleForUser(actor, role)
	if err != nil {
		zap.L().Error("role lookup failed", zap.String("actor", actor), zap.String("role", role), zap.Error(err))
		return false
	}
	return ok
}

// RequireRole guards admin routes. The actor comes from AdminIDHeader; a
// missing header is unauthorized, a role miss is forbidden.
func RequireRole(rc RoleChecker, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(AdminIDHeader)
		if actor == "" {
			err := errutil.Unauthorized("missing admin identity", nil)
			c.AbortWithStatusJSON(errutil.StatusUnauthorized.HTTPStatus(), err.(errutil.BaseError).JSON())
			return
		}

		if !rc.HasRole(actor, role) {
			err := errutil.Forbidden("insufficient role", nil)
			c.AbortWithStatusJSON(errutil.StatusForbidden.HTTPStatus(), err.(errutil.BaseError).JSON())
			return
		}

		c.Set("admin_id", actor)
		c.Next()
	}
}
