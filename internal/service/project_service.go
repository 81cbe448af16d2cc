package service

import (
	"context"
	"regexp"
	"time"

	"rendix/internal/apperr"
	"rendix/internal/model"
	"rendix/internal/money"
	"rendix/internal/repository"
	"rendix/internal/session"
	"rendix/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateProjectRequest struct {
	CustomID      string   `json:"custom_id" binding:"required"`
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	Client        string   `json:"client" binding:"required"`
	SaleAmount    string   `json:"sale_amount" binding:"required"` // Decimal string
	ProjectedCost string   `json:"projected_cost" binding:"required"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	PurchaseOrder string   `json:"purchase_order"`
	HES           string   `json:"hes"`
	SaleInvoice   string   `json:"sale_invoice"`
	Tags          []string `json:"tags"`
	Notes         string   `json:"notes"`
}

// UpdateProjectRequest carries partial updates; nil fields are left untouched.
type UpdateProjectRequest struct {
	CustomID      *string   `json:"custom_id"`
	Name          *string   `json:"name"`
	Description   *string   `json:"description"`
	Client        *string   `json:"client"`
	SaleAmount    *string   `json:"sale_amount"`
	ProjectedCost *string   `json:"projected_cost"`
	StartDate     *string   `json:"start_date"`
	EndDate       *string   `json:"end_date"`
	Status        *string   `json:"status"`
	PurchaseOrder *string   `json:"purchase_order"`
	HES           *string   `json:"hes"`
	SaleInvoice   *string   `json:"sale_invoice"`
	Tags          *[]string `json:"tags"`
	Notes         *string   `json:"notes"`
}

// --- Interface ---

type ProjectService interface {
	List(ctx context.Context, sess session.Session) ([]model.Project, error)
	Get(ctx context.Context, sess session.Session, id uuid.UUID) (*model.Project, error)
	Create(ctx context.Context, sess session.Session, req CreateProjectRequest) (*model.Project, error)
	Update(ctx context.Context, sess session.Session, id uuid.UUID, req UpdateProjectRequest) (*model.Project, error)
	Delete(ctx context.Context, sess session.Session, id uuid.UUID) error
	Stats(ctx context.Context, sess session.Session) ([]model.ProjectStats, error)

	// RecalculateCosts resums the project's expenses and rewrites
	// real_cost/real_margin. It runs inside the caller's transaction context.
	RecalculateCosts(ctx context.Context, orgID, projectID uuid.UUID) error
}

type projectService struct {
	projectRepo repository.ProjectRepository
	expenseRepo repository.ExpenseRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *websocket.Hub
}

func NewProjectService(
	projectRepo repository.ProjectRepository,
	expenseRepo repository.ExpenseRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *websocket.Hub,
) ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		expenseRepo: expenseRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// customIDPattern restricts project identifiers to letters, digits, hyphen and dot.
var customIDPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]+$`)

const dateLayout = "2006-01-02"

func (s *projectService) List(ctx context.Context, sess session.Session) ([]model.Project, error) {
	if !sess.HasOrg() {
		// No tenant selected is a valid empty state, not an error.
		return []model.Project{}, nil
	}
	return s.projectRepo.ListByOrg(ctx, sess.OrgID)
}

func (s *projectService) Get(ctx context.Context, sess session.Session, id uuid.UUID) (*model.Project, error) {
	if !sess.HasOrg() {
		return nil, apperr.NotFound("project")
	}
	return s.projectRepo.FindByID(ctx, sess.OrgID, id)
}

func (s *projectService) Stats(ctx context.Context, sess session.Session) ([]model.ProjectStats, error) {
	if !sess.HasOrg() {
		return []model.ProjectStats{}, nil
	}
	return s.projectRepo.Stats(ctx, sess.OrgID)
}

func (s *projectService) Create(ctx context.Context, sess session.Session, req CreateProjectRequest) (*model.Project, error) {
	if err := requireWriter(sess); err != nil {
		return nil, err
	}

	if !customIDPattern.MatchString(req.CustomID) {
		return nil, apperr.Validation("custom_id", "may only contain letters, digits, hyphen and dot")
	}
	if req.Name == "" {
		return nil, apperr.Validation("name", "is required")
	}
	if req.Client == "" {
		return nil, apperr.Validation("client", "is required")
	}

	saleAmount, err := money.Parse("sale_amount", req.SaleAmount)
	if err != nil {
		return nil, err
	}
	projectedCost, err := money.Parse("projected_cost", req.ProjectedCost)
	if err != nil {
		return nil, err
	}
	if saleAmount.IsNegative() || saleAmount.GreaterThan(money.MaxAmount) {
		return nil, apperr.Validation("sale_amount", "out of range")
	}
	if projectedCost.IsNegative() || projectedCost.GreaterThan(money.MaxAmount) {
		return nil, apperr.Validation("projected_cost", "out of range")
	}

	startDate, err := parseOptionalDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}

	taken, err := s.projectRepo.ExistsCustomID(ctx, sess.OrgID, req.CustomID, uuid.Nil)
	if err != nil {
		return nil, apperr.Dependency("check custom_id", err)
	}
	if taken {
		return nil, apperr.Conflict("a project with this ID already exists, choose another ID")
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	project := &model.Project{
		OrganizationID:  sess.OrgID,
		CustomID:        req.CustomID,
		Name:            req.Name,
		Description:     req.Description,
		Client:          req.Client,
		SaleAmount:      saleAmount,
		ProjectedCost:   projectedCost,
		ProjectedMargin: saleAmount.Sub(projectedCost),
		RealCost:        decimal.Zero,
		RealMargin:      saleAmount, // no expenses yet
		StartDate:       startDate,
		EndDate:         endDate,
		Status:          model.ProjectInProgress,
		PurchaseOrder:   req.PurchaseOrder,
		HES:             req.HES,
		SaleInvoice:     req.SaleInvoice,
		Tags:            tags,
		Notes:           req.Notes,
		Metadata:        map[string]string{},
		UserID:          sess.UserID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.projectRepo.Create(txCtx, project); createErr != nil {
			return apperr.Dependency("create project", createErr)
		}
		return writeAudit(txCtx, s.auditRepo, sess, model.ActionCreateProject, project.ID.String(), project.Name, map[string]interface{}{
			"custom_id":      project.CustomID,
			"client":         project.Client,
			"sale_amount":    project.SaleAmount,
			"projected_cost": project.ProjectedCost,
		})
	})
	if err != nil {
		return nil, err
	}

	s.hub.NotifyOrg(sess.OrgID, "project.created", project)
	return project, nil
}

func (s *projectService) Update(ctx context.Context, sess session.Session, id uuid.UUID, req UpdateProjectRequest) (*model.Project, error) {
	if err := requireWriter(sess); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.FindByID(ctx, sess.OrgID, id)
	if err != nil {
		return nil, err
	}

	// A completed project only accepts non-financial, non-identity edits.
	// Enforced here, server-side: disabled form fields are not a boundary.
	if project.Status == model.ProjectCompleted {
		if req.CustomID != nil || req.Name != nil || req.Client != nil ||
			req.SaleAmount != nil || req.ProjectedCost != nil {
			return nil, apperr.Authorization("completed projects only allow editing documents and notes")
		}
	}

	if req.CustomID != nil && *req.CustomID != project.CustomID {
		if !customIDPattern.MatchString(*req.CustomID) {
			return nil, apperr.Validation("custom_id", "may only contain letters, digits, hyphen and dot")
		}
		taken, existsErr := s.projectRepo.ExistsCustomID(ctx, sess.OrgID, *req.CustomID, project.ID)
		if existsErr != nil {
			return nil, apperr.Dependency("check custom_id", existsErr)
		}
		if taken {
			return nil, apperr.Conflict("a project with this ID already exists, choose another ID")
		}
		project.CustomID = *req.CustomID
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperr.Validation("name", "is required")
		}
		project.Name = *req.Name
	}
	if req.Client != nil {
		if *req.Client == "" {
			return nil, apperr.Validation("client", "is required")
		}
		project.Client = *req.Client
	}
	if req.Description != nil {
		project.Description = *req.Description
	}

	financialsChanged := false
	if req.SaleAmount != nil {
		saleAmount, parseErr := money.Parse("sale_amount", *req.SaleAmount)
		if parseErr != nil {
			return nil, parseErr
		}
		if saleAmount.IsNegative() || saleAmount.GreaterThan(money.MaxAmount) {
			return nil, apperr.Validation("sale_amount", "out of range")
		}
		project.SaleAmount = saleAmount
		financialsChanged = true
	}
	if req.ProjectedCost != nil {
		projectedCost, parseErr := money.Parse("projected_cost", *req.ProjectedCost)
		if parseErr != nil {
			return nil, parseErr
		}
		if projectedCost.IsNegative() || projectedCost.GreaterThan(money.MaxAmount) {
			return nil, apperr.Validation("projected_cost", "out of range")
		}
		project.ProjectedCost = projectedCost
		financialsChanged = true
	}
	if financialsChanged {
		// Margins follow the amounts within the same update; real_cost stays
		// untouched since it is derived from expenses only.
		project.ProjectedMargin = project.SaleAmount.Sub(project.ProjectedCost)
		project.RealMargin = project.SaleAmount.Sub(project.RealCost)
	}

	if req.StartDate != nil {
		startDate, dateErr := parseOptionalDate("start_date", *req.StartDate)
		if dateErr != nil {
			return nil, dateErr
		}
		project.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, dateErr := parseOptionalDate("end_date", *req.EndDate)
		if dateErr != nil {
			return nil, dateErr
		}
		project.EndDate = endDate
	}

	if req.Status != nil && *req.Status != project.Status {
		if !model.ValidProjectStatus(*req.Status) {
			return nil, apperr.Validation("status", "must be in_progress or completed")
		}
		// Completing or reopening a project is an admin-level action.
		if !model.RoleAtLeast(sess.Role, model.RoleAdmin) {
			return nil, apperr.Authorization("changing project status requires admin role")
		}
		project.Status = *req.Status
	}

	if req.PurchaseOrder != nil {
		project.PurchaseOrder = *req.PurchaseOrder
	}
	if req.HES != nil {
		project.HES = *req.HES
	}
	if req.SaleInvoice != nil {
		project.SaleInvoice = *req.SaleInvoice
	}
	if req.Tags != nil {
		project.Tags = *req.Tags
	}
	if req.Notes != nil {
		project.Notes = *req.Notes
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.projectRepo.Update(txCtx, project); updateErr != nil {
			return apperr.Dependency("update project", updateErr)
		}
		return writeAudit(txCtx, s.auditRepo, sess, model.ActionUpdateProject, project.ID.String(), project.Name, map[string]interface{}{
			"custom_id": project.CustomID,
			"status":    project.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	s.hub.NotifyOrg(sess.OrgID, "project.updated", project)
	return project, nil
}

func (s *projectService) Delete(ctx context.Context, sess session.Session, id uuid.UUID) error {
	if err := requireWriter(sess); err != nil {
		return err
	}

	project, err := s.projectRepo.FindByID(ctx, sess.OrgID, id)
	if err != nil {
		return err
	}
	if project.Status != model.ProjectInProgress {
		return apperr.Conflict("only in-progress projects can be deleted")
	}
	if !project.RealCost.IsZero() {
		return apperr.Conflict("projects with recorded expenses cannot be deleted")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.projectRepo.Delete(txCtx, sess.OrgID, id); delErr != nil {
			return apperr.Dependency("delete project", delErr)
		}
		return writeAudit(txCtx, s.auditRepo, sess, model.ActionDeleteProject, project.ID.String(), project.Name, nil)
	})
	if err != nil {
		return err
	}

	s.hub.NotifyOrg(sess.OrgID, "project.deleted", map[string]string{"id": id.String()})
	return nil
}

// RecalculateCosts implements the rollup: real_cost is the exact sum of
// net_amount over the project's current expenses (VAT excluded from internal
// cost accounting), real_margin = sale_amount - real_cost. Full recomputation
// keeps the operation idempotent; running it twice with no intervening writes
// yields identical aggregates.
func (s *projectService) RecalculateCosts(ctx context.Context, orgID, projectID uuid.UUID) error {
	realCost, err := s.expenseRepo.SumNetByProject(ctx, orgID, projectID)
	if err != nil {
		return apperr.Dependency("sum expenses", err)
	}

	project, err := s.projectRepo.FindByID(ctx, orgID, projectID)
	if err != nil {
		return err
	}

	realMargin := project.SaleAmount.Sub(realCost)
	return s.projectRepo.UpdateAggregates(ctx, orgID, projectID, realCost, realMargin)
}

// --- Helpers ---

// requireWriter rejects sessions without an active organization or with a
// read-only role.
func requireWriter(sess session.Session) error {
	if !sess.HasOrg() {
		return apperr.Validation("organization_id", "no active organization selected")
	}
	if !model.RoleAtLeast(sess.Role, model.RoleMember) {
		return apperr.Authorization("viewers cannot modify data")
	}
	return nil
}

func parseOptionalDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, apperr.Validation(field, "must be a valid date in YYYY-MM-DD format")
	}
	return &t, nil
}
