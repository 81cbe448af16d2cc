package handler

import (
	"net/http"

	"rendix/internal/middleware"
	"rendix/internal/service"
	"rendix/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
	roles            middleware.RoleResolver
}

func NewDashboardHandler(dashboardService service.DashboardService, roles middleware.RoleResolver) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, roles: roles}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/dashboard/stats", middleware.RequireSession(h.roles), h.Stats)
}

// Stats returns the organization-wide financial dashboard
// @Summary      Dashboard statistics
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.DashboardStats}
// @Router       /api/dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboardService.GetStats(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
