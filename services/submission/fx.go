package submission

import (
	"snapbounty-platform/pkg/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("submission.service",
	fx.Provide(NewService, NewHandler),
	fx.Invoke(registerRoutes),
)

type routeParams struct {
	fx.In

	Router  *gin.Engine
	Handler *Handler
	Roles   rbac.RoleChecker
}

func registerRoutes(p routeParams) {
	p.Handler.Register(p.Router, p.Roles)
}
