package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"rendix/internal/middleware"
	"rendix/internal/service"
	"rendix/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ExpenseHandler struct {
	expenseService service.ExpenseService
	roles          middleware.RoleResolver
}

func NewExpenseHandler(expenseService service.ExpenseService, roles middleware.RoleResolver) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, roles: roles}
}

func (h *ExpenseHandler) RegisterRoutes(router *gin.RouterGroup) {
	expenses := router.Group("/api/expenses")
	expenses.Use(middleware.RequireSession(h.roles))
	{
		expenses.GET("", h.List)
		expenses.GET("/by-category", h.ByCategory)
		expenses.GET("/:id", h.Get)
		expenses.POST("", h.Create)
		expenses.PUT("/:id", h.Update)
		expenses.DELETE("/:id", h.Delete)
	}
}

// projectFilter reads the optional project_id query parameter.
func projectFilter(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("project_id")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid project_id filter"))
		return nil, false
	}
	return &id, true
}

// receiptFromForm extracts the optional "receipt" multipart file. Returns
// nil when the request is plain JSON or carries no file.
func receiptFromForm(c *gin.Context) (*service.ReceiptUpload, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return nil, nil
	}
	file, err := c.FormFile("receipt")
	if err != nil {
		return nil, nil
	}
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	return &service.ReceiptUpload{Filename: file.Filename, Content: src}, nil
}

// bindExpensePayload decodes the request body into dst. Multipart requests
// carry the JSON document in the "data" form field next to the receipt file.
func bindExpensePayload(c *gin.Context, dst interface{}) error {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return json.Unmarshal([]byte(c.PostForm("data")), dst)
	}
	return c.ShouldBindJSON(dst)
}

// List returns the organization's expenses, optionally filtered by project
// @Summary      List expenses
// @Tags         expenses
// @Security     BearerAuth
// @Produce      json
// @Param        project_id  query     string  false  "Filter by project"
// @Success      200         {object}  response.Response{data=[]model.Expense}
// @Router       /api/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	projectID, ok := projectFilter(c)
	if !ok {
		return
	}

	expenses, err := h.expenseService.List(c.Request.Context(), middleware.GetSession(c), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, expenses))
}

// ByCategory returns spend totals grouped by expense category
// @Summary      Expenses by category
// @Tags         expenses
// @Security     BearerAuth
// @Produce      json
// @Param        project_id  query     string  false  "Filter by project"
// @Success      200         {object}  response.Response{data=[]model.CategorySummary}
// @Router       /api/expenses/by-category [get]
func (h *ExpenseHandler) ByCategory(c *gin.Context) {
	projectID, ok := projectFilter(c)
	if !ok {
		return
	}

	summary, err := h.expenseService.ByCategory(c.Request.Context(), middleware.GetSession(c), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// Get returns a single expense
// @Summary      Get expense
// @Tags         expenses
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Expense ID"
// @Success      200  {object}  response.Response{data=model.Expense}
// @Router       /api/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid expense ID"))
		return
	}

	expense, err := h.expenseService.Get(c.Request.Context(), middleware.GetSession(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

// Create records an expense and updates the project's real cost
// @Summary      Create expense
// @Description  Accepts JSON, or multipart/form-data with the expense JSON in the "data" field and an optional "receipt" file
// @Tags         expenses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.CreateExpenseRequest  true  "Expense payload"
// @Success      201      {object}  response.Response{data=model.Expense}
// @Router       /api/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req service.CreateExpenseRequest
	if err := bindExpensePayload(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	receipt, err := receiptFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Could not read receipt file"))
		return
	}

	expense, err := h.expenseService.Create(c.Request.Context(), middleware.GetSession(c), req, receipt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, expense))
}

// Update edits an expense and keeps the project's real cost in sync
// @Summary      Update expense
// @Tags         expenses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Expense ID"
// @Param        request  body      service.UpdateExpenseRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.Expense}
// @Router       /api/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid expense ID"))
		return
	}

	var req service.UpdateExpenseRequest
	if err := bindExpensePayload(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	receipt, err := receiptFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Could not read receipt file"))
		return
	}

	expense, err := h.expenseService.Update(c.Request.Context(), middleware.GetSession(c), id, req, receipt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

// Delete removes an expense and updates the project's real cost
// @Summary      Delete expense
// @Tags         expenses
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Expense ID"
// @Success      200  {object}  response.Response
// @Router       /api/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid expense ID"))
		return
	}

	if err := h.expenseService.Delete(c.Request.Context(), middleware.GetSession(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "expense deleted"}))
}
