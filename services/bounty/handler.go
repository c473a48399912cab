package bounty

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
	admin := router.Group("/v1/requests", rbac.RequireRole(rc, "admin"))
	admin.POST("", h.create)
	admin.GET("", h.list)
	admin.GET("/:id", h.get)
	admin.POST("/:id/publish", h.action(ActionPublish))
	admin.POST("/:id/pause", h.action(ActionPause))
	admin.POST("/:id/unpause", h.action(ActionUnpause))
	admin.POST("/:id/close", h.action(ActionClose))
	admin.POST("/:id/cancel", h.action(ActionCancel))
}

func (h *Handler) create(c *gin.Context) {
	var input CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": err.Error()}})
		return
	}

	request, err := h.service.Create(c.Request.Context(), input, c.GetString("admin_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

func (h *Handler) list(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": err.Error()}})
		return
	}
	status := RequestStatus(c.Query("status"))

	requests, info, err := h.service.Page(c.Request.Context(), status, page)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": requests, "page_info": info})
}

func (h *Handler) get(c *gin.Context) {
	request, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, request)
}

func (h *Handler) action(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		request, err := h.service.Apply(c.Request.Context(), c.Param("id"), action, c.GetString("admin_id"))
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, request)
	}
}
