package submission

import (
	"net/http"
	"time"

	"snapbounty-platform/pkg/db/pagination"
	"snapbounty-platform/pkg/rbac"

	"github.com/gin-gonic/gin"
)

const assetURLExpiry = 15 * time.Minute

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(router *gin.Engine, rc rbac.RoleChecker) {
	admin := router.Group("/v1/submissions", rbac.RequireRole(rc, "admin"))
	admin.GET("/:id", h.get)
	admin.POST("/:id/review", h.review)

	requests := router.Group("/v1/requests", rbac.RequireRole(rc, "admin"))
	requests.GET("/:id/submissions", h.listByRequest)
}

type reviewRequest struct {
	Action            ReviewAction `json:"action" binding:"required"`
	Feedback          string       `json:"feedback"`
	AwardQualityBonus bool         `json:"award_quality_bonus"`
}

func (h *Handler) review(c *gin.Context) {
	var body reviewRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": err.Error()}})
		return
	}

	result, err := h.service.Review(c.Request.Context(), ReviewInput{
		SubmissionID:      c.Param("id"),
		Action:            body.Action,
		Feedback:          body.Feedback,
		AdminID:           c.GetString("admin_id"),
		AwardQualityBonus: body.AwardQualityBonus,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) get(c *gin.Context) {
	sub, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	urls, err := h.service.AssetURLs(c.Request.Context(), sub, assetURLExpiry)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": sub, "asset_urls": urls})
}

func (h *Handler) listByRequest(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": err.Error()}})
		return
	}

	subs, info, err := h.service.PageByRequest(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": subs, "page_info": info})
}
