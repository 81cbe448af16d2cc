package handler

import (
	"net/http"

	"rendix/internal/middleware"
	"rendix/internal/service"
	"rendix/pkg/pagination"
	"rendix/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	roles        middleware.RoleResolver
}

func NewAuditHandler(auditService service.AuditService, roles middleware.RoleResolver) *AuditHandler {
	return &AuditHandler{auditService: auditService, roles: roles}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/audit-logs", middleware.RequireSession(h.roles), h.List)
}

// List returns the organization's mutation history, newest first
// @Summary      List audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Items per page"
// @Success      200    {object}  response.Response{data=pagination.Page}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), middleware.GetSession(c), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(logs, total, params)))
}
