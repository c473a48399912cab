package earning

import (
	"net/http"

	"snapbounty-platform/pkg/db/pagination"
	"snapbounty-platform/pkg/rbac"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(router *gin.Engine, rc rbac.RoleChecker) {
	admin := router.Group("/v1/earnings", rbac.RequireRole(rc, "admin"))
	admin.GET("/stats", h.stats)
	admin.GET("/contributors/:id", h.contributor)
	admin.GET("/:id", h.get)
	admin.POST("/:id/processing", h.advance(StatusProcessing))
	admin.POST("/:id/paid", h.advance(StatusPaid))
	admin.POST("/:id/hold", h.advance(StatusHeld))
	admin.POST("/:id/release", h.advance(StatusPending))
}

func (h *Handler) get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *Handler) stats(c *gin.Context) {
	rows, err := h.service.Stats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *Handler) contributor(c *gin.Context) {
	summary, err := h.service.Contributor(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) advance(target Status) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, err := h.service.Advance(c.Request.Context(), c.Param("id"), target)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, entry)
	}
}

// listByContributor is exposed on the contributor dashboard boundary, so it
// sits outside the admin group.
func (h *Handler) RegisterContributor(router *gin.Engine) {
	router.GET("/v1/contributors/:id/earnings", func(c *gin.Context) {
		var page pagination.Pagination
		if err := c.ShouldBindQuery(&page); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": err.Error()}})
			return
		}

		entries, info, err := h.service.PageByContributor(c.Request.Context(), c.Param("id"), page)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": entries, "page_info": info})
	})
}
