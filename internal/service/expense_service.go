package service

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"rendix/internal/apperr"
	"rendix/internal/model"
	"rendix/internal/money"
	"rendix/internal/repository"
	"rendix/internal/session"
	"rendix/internal/storage"
	"rendix/internal/websocket"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateExpenseRequest struct {
	ProjectID      string   `json:"project_id" binding:"required"`
	Description    string   `json:"description" binding:"required"`
	Amount         string   `json:"amount" binding:"required"` // Decimal string
	NetAmount      string   `json:"net_amount" binding:"required"`
	TaxAmount      string   `json:"tax_amount" binding:"required"`
	Category       string   `json:"category" binding:"required"`
	Date           string   `json:"date" binding:"required"` // YYYY-MM-DD
	Status         string   `json:"status" binding:"required"`
	DocumentType   string   `json:"document_type" binding:"required"`
	DocumentNumber string   `json:"document_number"`
	Supplier       string   `json:"supplier"`
	Notes          string   `json:"notes"`
	Tags           []string `json:"tags"`
}

// UpdateExpenseRequest carries partial updates; nil fields are left untouched.
// The three monetary fields travel together: changing any of them revalidates
// the full breakdown.
type UpdateExpenseRequest struct {
	Description    *string   `json:"description"`
	Amount         *string   `json:"amount"`
	NetAmount      *string   `json:"net_amount"`
	TaxAmount      *string   `json:"tax_amount"`
	Category       *string   `json:"category"`
	Date           *string   `json:"date"`
	Status         *string   `json:"status"`
	DocumentType   *string   `json:"document_type"`
	DocumentNumber *string   `json:"document_number"`
	Supplier       *string   `json:"supplier"`
	Notes          *string   `json:"notes"`
	Tags           *[]string `json:"tags"`
}

// ReceiptUpload is an incoming receipt file attached to a create or update.
type ReceiptUpload struct {
	Filename string
	Content  io.Reader
}

// --- Interface ---

type ExpenseService interface {
	List(ctx context.Context, sess session.Session, projectID *uuid.UUID) ([]model.Expense, error)
	Get(ctx context.Context, sess session.Session, id uuid.UUID) (*model.Expense, error)
	Create(ctx context.Context, sess session.Session, req CreateExpenseRequest, receipt *ReceiptUpload) (*model.Expense, error)
	Update(ctx context.Context, sess session.Session, id uuid.UUID, req UpdateExpenseRequest, receipt *ReceiptUpload) (*model.Expense, error)
	Delete(ctx context.Context, sess session.Session, id uuid.UUID) error
	ByCategory(ctx context.Context, sess session.Session, projectID *uuid.UUID) ([]model.CategorySummary, error)
}

type expenseService struct {
	expenseRepo repository.ExpenseRepository
	projectRepo repository.ProjectRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	projects    ProjectService
	receipts    storage.ReceiptStore
	hub         *websocket.Hub
}

func NewExpenseService(
	expenseRepo repository.ExpenseRepository,
	projectRepo repository.ProjectRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	projects ProjectService,
	receipts storage.ReceiptStore,
	hub *websocket.Hub,
) ExpenseService {
	return &expenseService{
		expenseRepo: expenseRepo,
		projectRepo: projectRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		projects:    projects,
		receipts:    receipts,
		hub:         hub,
	}
}

// --- Implementation ---

func (s *expenseService) List(ctx context.Context, sess session.Session, projectID *uuid.UUID) ([]model.Expense, error) {
	if !sess.HasOrg() {
		return []model.Expense{}, nil
	}
	return s.expenseRepo.ListByOrg(ctx, sess.OrgID, projectID)
}

func (s *expenseService) Get(ctx context.Context, sess session.Session, id uuid.UUID) (*model.Expense, error) {
	if !sess.HasOrg() {
		return nil, apperr.NotFound("expense")
	}
	return s.expenseRepo.FindByID(ctx, sess.OrgID, id)
}

func (s *expenseService) ByCategory(ctx context.Context, sess session.Session, projectID *uuid.UUID) ([]model.CategorySummary, error) {
	if !sess.HasOrg() {
		return []model.CategorySummary{}, nil
	}
	return s.expenseRepo.SummarizeByCategory(ctx, sess.OrgID, projectID)
}

func (s *expenseService) Create(ctx context.Context, sess session.Session, req CreateExpenseRequest, receipt *ReceiptUpload) (*model.Expense, error) {
	if err := requireWriter(sess); err != nil {
		return nil, err
	}

	expense, err := s.validateCreate(ctx, sess, req)
	if err != nil {
		return nil, err
	}

	// Expense write and project rollup commit or roll back together.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.expenseRepo.Create(txCtx, expense); createErr != nil {
			return apperr.Dependency("create expense", createErr)
		}
		if recalcErr := s.projects.RecalculateCosts(txCtx, sess.OrgID, expense.ProjectID); recalcErr != nil {
			return recalcErr
		}
		return writeAudit(txCtx, s.auditRepo, sess, model.ActionCreateExpense, expense.ID.String(), expense.Description, map[string]interface{}{
			"project_id": expense.ProjectID.String(),
			"net_amount": expense.NetAmount,
			"amount":     expense.Amount,
			"category":   expense.Category,
		})
	})
	if err != nil {
		return nil, err
	}

	if receipt != nil {
		stored, uploadErr := s.receipts.Save(expense.ProjectID, expense.ID, receipt.Filename, receipt.Content)
		if uploadErr != nil {
			// Compensating action: a row pointing at a missing file is worse
			// than rejecting the whole create, so undo the insert.
			rollbackErr := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
				if delErr := s.expenseRepo.Delete(txCtx, sess.OrgID, expense.ID); delErr != nil {
					return delErr
				}
				return s.projects.RecalculateCosts(txCtx, sess.OrgID, expense.ProjectID)
			})
			if rollbackErr != nil {
				log.Println("Failed to roll back expense after receipt upload failure:", rollbackErr)
			}
			return nil, apperr.Dependency("upload receipt", uploadErr)
		}
		if linkErr := s.expenseRepo.UpdateReceipt(ctx, expense.ID, stored.URL, stored.Filename); linkErr != nil {
			return nil, apperr.Dependency("link receipt", linkErr)
		}
		expense.ReceiptURL = stored.URL
		expense.ReceiptFilename = stored.Filename
	}

	s.hub.NotifyOrg(sess.OrgID, "expense.created", expense)
	return expense, nil
}

func (s *expenseService) Update(ctx context.Context, sess session.Session, id uuid.UUID, req UpdateExpenseRequest, receipt *ReceiptUpload) (*model.Expense, error) {
	if err := requireWriter(sess); err != nil {
		return nil, err
	}

	expense, err := s.expenseRepo.FindByID(ctx, sess.OrgID, id)
	if err != nil {
		return nil, err
	}

	if err := s.applyUpdate(expense, req); err != nil {
		return nil, err
	}

	if receipt != nil {
		// Replacing the receipt deletes the old stored file first; losing the
		// old file on a later failure is accepted, orphaning it is not.
		if expense.ReceiptURL != "" {
			if delErr := s.receipts.Delete(storage.PathFromURL(expense.ReceiptURL)); delErr != nil {
				log.Println("Failed to delete previous receipt:", delErr)
			}
		}
		stored, uploadErr := s.receipts.Save(expense.ProjectID, expense.ID, receipt.Filename, receipt.Content)
		if uploadErr != nil {
			return nil, apperr.Dependency("upload receipt", uploadErr)
		}
		expense.ReceiptURL = stored.URL
		expense.ReceiptFilename = stored.Filename
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.expenseRepo.Update(txCtx, expense); updateErr != nil {
			return apperr.Dependency("update expense", updateErr)
		}
		if recalcErr := s.projects.RecalculateCosts(txCtx, sess.OrgID, expense.ProjectID); recalcErr != nil {
			return recalcErr
		}
		return writeAudit(txCtx, s.auditRepo, sess, model.ActionUpdateExpense, expense.ID.String(), expense.Description, map[string]interface{}{
			"project_id": expense.ProjectID.String(),
			"net_amount": expense.NetAmount,
			"amount":     expense.Amount,
		})
	})
	if err != nil {
		return nil, err
	}

	s.hub.NotifyOrg(sess.OrgID, "expense.updated", expense)
	return expense, nil
}

func (s *expenseService) Delete(ctx context.Context, sess session.Session, id uuid.UUID) error {
	if err := requireWriter(sess); err != nil {
		return err
	}

	expense, err := s.expenseRepo.FindByID(ctx, sess.OrgID, id)
	if err != nil {
		return err
	}

	// Best effort: a receipt that cannot be removed is logged, not fatal.
	if expense.ReceiptURL != "" {
		if delErr := s.receipts.Delete(storage.PathFromURL(expense.ReceiptURL)); delErr != nil {
			log.Println("Failed to delete receipt file:", delErr)
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.expenseRepo.Delete(txCtx, sess.OrgID, id); delErr != nil {
			return apperr.Dependency("delete expense", delErr)
		}
		if recalcErr := s.projects.RecalculateCosts(txCtx, sess.OrgID, expense.ProjectID); recalcErr != nil {
			return recalcErr
		}
		return writeAudit(txCtx, s.auditRepo, sess, model.ActionDeleteExpense, expense.ID.String(), expense.Description, nil)
	})
	if err != nil {
		return err
	}

	s.hub.NotifyOrg(sess.OrgID, "expense.deleted", map[string]string{
		"id":         id.String(),
		"project_id": expense.ProjectID.String(),
	})
	return nil
}

// --- Validation ---

// validateCreate gates the request against the schema before anything is
// persisted and returns the normalized entity.
func (s *expenseService) validateCreate(ctx context.Context, sess session.Session, req CreateExpenseRequest) (*model.Expense, error) {
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, apperr.Validation("project_id", "must be a valid id")
	}
	// The referenced project must exist inside the caller's organization.
	if _, err := s.projectRepo.FindByID(ctx, sess.OrgID, projectID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Description) == "" {
		return nil, apperr.Validation("description", "is required")
	}

	net, err := money.Parse("net_amount", req.NetAmount)
	if err != nil {
		return nil, err
	}
	tax, err := money.Parse("tax_amount", req.TaxAmount)
	if err != nil {
		return nil, err
	}
	amount, err := money.Parse("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	if err := money.ValidateBreakdown(net, tax, amount); err != nil {
		return nil, err
	}

	if !model.ValidCategory(req.Category) {
		return nil, apperr.Validation("category", "unknown category")
	}
	if !model.ValidExpenseStatus(req.Status) {
		return nil, apperr.Validation("status", "must be provision, paid, credit or advance")
	}
	if !model.ValidDocumentType(req.DocumentType) {
		return nil, apperr.Validation("document_type", "must be boleta or factura")
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, apperr.Validation("date", "must be a valid date in YYYY-MM-DD format")
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	return &model.Expense{
		OrganizationID: sess.OrgID,
		ProjectID:      projectID,
		Description:    strings.TrimSpace(req.Description),
		Amount:         amount,
		NetAmount:      net,
		TaxAmount:      tax,
		Category:       req.Category,
		Date:           date,
		Status:         req.Status,
		DocumentType:   req.DocumentType,
		DocumentNumber: strings.TrimSpace(req.DocumentNumber),
		Supplier:       strings.TrimSpace(req.Supplier),
		Notes:          strings.TrimSpace(req.Notes),
		Tags:           tags,
		Metadata:       map[string]string{},
		UserID:         sess.UserID,
	}, nil
}

// applyUpdate merges the partial request into the existing row, revalidating
// whatever changed. The expense stays on its project: moving cost lines
// between projects is not supported.
func (s *expenseService) applyUpdate(expense *model.Expense, req UpdateExpenseRequest) error {
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return apperr.Validation("description", "is required")
		}
		expense.Description = strings.TrimSpace(*req.Description)
	}

	if req.Amount != nil || req.NetAmount != nil || req.TaxAmount != nil {
		net, tax, amount := expense.NetAmount, expense.TaxAmount, expense.Amount
		var err error
		if req.NetAmount != nil {
			if net, err = money.Parse("net_amount", *req.NetAmount); err != nil {
				return err
			}
		}
		if req.TaxAmount != nil {
			if tax, err = money.Parse("tax_amount", *req.TaxAmount); err != nil {
				return err
			}
		}
		if req.Amount != nil {
			if amount, err = money.Parse("amount", *req.Amount); err != nil {
				return err
			}
		}
		if err := money.ValidateBreakdown(net, tax, amount); err != nil {
			return err
		}
		expense.NetAmount, expense.TaxAmount, expense.Amount = net, tax, amount
	}

	if req.Category != nil {
		if !model.ValidCategory(*req.Category) {
			return apperr.Validation("category", "unknown category")
		}
		expense.Category = *req.Category
	}
	if req.Status != nil {
		if !model.ValidExpenseStatus(*req.Status) {
			return apperr.Validation("status", "must be provision, paid, credit or advance")
		}
		expense.Status = *req.Status
	}
	if req.DocumentType != nil {
		if !model.ValidDocumentType(*req.DocumentType) {
			return apperr.Validation("document_type", "must be boleta or factura")
		}
		expense.DocumentType = *req.DocumentType
	}
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			return apperr.Validation("date", "must be a valid date in YYYY-MM-DD format")
		}
		expense.Date = date
	}

	if req.DocumentNumber != nil {
		expense.DocumentNumber = strings.TrimSpace(*req.DocumentNumber)
	}
	if req.Supplier != nil {
		expense.Supplier = strings.TrimSpace(*req.Supplier)
	}
	if req.Notes != nil {
		expense.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Tags != nil {
		expense.Tags = *req.Tags
	}

	return nil
}
