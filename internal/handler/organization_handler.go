package handler

import (
	"net/http"

	"rendix/internal/middleware"
	"rendix/internal/service"
	"rendix/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrganizationHandler struct {
	orgService service.OrganizationService
	roles      middleware.RoleResolver
}

func NewOrganizationHandler(orgService service.OrganizationService, roles middleware.RoleResolver) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService, roles: roles}
}

func (h *OrganizationHandler) RegisterRoutes(router *gin.RouterGroup) {
	orgs := router.Group("/api/organizations")
	orgs.Use(middleware.RequireSession(h.roles))
	{
		orgs.GET("", h.List)
		orgs.POST("", h.Create)
		orgs.PUT("/:id", h.Update)
		orgs.DELETE("/:id", h.Delete)

		orgs.GET("/:id/members", h.ListMembers)
		orgs.POST("/:id/members", h.AddMember)
		orgs.PUT("/:id/members/:memberId", h.UpdateMemberRole)
		orgs.DELETE("/:id/members/:memberId", h.RemoveMember)
	}
}

// requireActiveOrg verifies the :id path segment names the organization the
// session was established for. Mutating a different org through a stale tab
// is the failure mode this guards against.
func (h *OrganizationHandler) requireActiveOrg(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid organization ID"))
		return uuid.Nil, false
	}
	sess := middleware.GetSession(c)
	if sess.OrgID != id {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "organization mismatch"))
		return uuid.Nil, false
	}
	return id, true
}

// List returns organizations the caller belongs to
// @Summary      List my organizations
// @Tags         organizations
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.OrganizationWithRole}
// @Router       /api/organizations [get]
func (h *OrganizationHandler) List(c *gin.Context) {
	sess := middleware.GetSession(c)
	orgs, err := h.orgService.ListMine(c.Request.Context(), sess.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, orgs))
}

// Create creates an organization owned by the caller
// @Summary      Create organization
// @Tags         organizations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.CreateOrganizationRequest  true  "Organization payload"
// @Success      201      {object}  response.Response{data=model.Organization}
// @Router       /api/organizations [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req service.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sess := middleware.GetSession(c)
	org, err := h.orgService.Create(c.Request.Context(), sess.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, org))
}

// Update edits the active organization, admin and up
// @Summary      Update organization
// @Tags         organizations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                             true  "Organization ID"
// @Param        request  body      service.UpdateOrganizationRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.Organization}
// @Router       /api/organizations/{id} [put]
func (h *OrganizationHandler) Update(c *gin.Context) {
	if _, ok := h.requireActiveOrg(c); !ok {
		return
	}

	var req service.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	org, err := h.orgService.Update(c.Request.Context(), middleware.GetSession(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, org))
}

// Delete removes the active organization, owner only
// @Summary      Delete organization
// @Tags         organizations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Organization ID"
// @Success      200  {object}  response.Response
// @Router       /api/organizations/{id} [delete]
func (h *OrganizationHandler) Delete(c *gin.Context) {
	if _, ok := h.requireActiveOrg(c); !ok {
		return
	}

	if err := h.orgService.Delete(c.Request.Context(), middleware.GetSession(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "organization deleted"}))
}

// ListMembers returns the active organization's roster
// @Summary      List members
// @Tags         organizations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Organization ID"
// @Success      200  {object}  response.Response{data=[]service.MemberResponse}
// @Router       /api/organizations/{id}/members [get]
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	if _, ok := h.requireActiveOrg(c); !ok {
		return
	}

	members, err := h.orgService.ListMembers(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, members))
}

// AddMember invites an existing account into the organization by email
// @Summary      Add member
// @Tags         organizations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Organization ID"
// @Param        request  body      service.AddMemberRequest  true  "Member payload"
// @Success      201      {object}  response.Response{data=service.MemberResponse}
// @Router       /api/organizations/{id}/members [post]
func (h *OrganizationHandler) AddMember(c *gin.Context) {
	if _, ok := h.requireActiveOrg(c); !ok {
		return
	}

	var req service.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	member, err := h.orgService.AddMemberByEmail(c.Request.Context(), middleware.GetSession(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, member))
}

// UpdateMemberRole changes a member's role
// @Summary      Update member role
// @Tags         organizations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id        path      string  true  "Organization ID"
// @Param        memberId  path      string  true  "Membership ID"
// @Success      200       {object}  response.Response{data=service.MemberResponse}
// @Router       /api/organizations/{id}/members/{memberId} [put]
func (h *OrganizationHandler) UpdateMemberRole(c *gin.Context) {
	if _, ok := h.requireActiveOrg(c); !ok {
		return
	}

	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid member ID"))
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	member, err := h.orgService.UpdateMemberRole(c.Request.Context(), middleware.GetSession(c), memberID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, member))
}

// RemoveMember removes a member from the organization
// @Summary      Remove member
// @Tags         organizations
// @Security     BearerAuth
// @Produce      json
// @Param        id        path      string  true  "Organization ID"
// @Param        memberId  path      string  true  "Membership ID"
// @Success      200       {object}  response.Response
// @Router       /api/organizations/{id}/members/{memberId} [delete]
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	if _, ok := h.requireActiveOrg(c); !ok {
		return
	}

	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid member ID"))
		return
	}

	if err := h.orgService.RemoveMember(c.Request.Context(), middleware.GetSession(c), memberID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "member removed"}))
}
