package notify

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("notify.service",
	fx.Provide(NewNotifier, NewService),
	fx.Invoke(registerRoutes),
)

type routeParams struct {
	fx.In

	Router  *gin.Engine
	Service *Service
}

func registerRoutes(p routeParams) {
	p.Router.GET("/v1/activity/:contributor_id", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		events, err := p.Service.Feed(c.Request.Context(), c.Param("contributor_id"), limit)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": events})
	})
}
