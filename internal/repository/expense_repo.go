package repository

import (
	"context"
	"errors"
	"time"

	"rendix/internal/apperr"
	"rendix/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Expense, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID, projectID *uuid.UUID) ([]model.Expense, error)
	Update(ctx context.Context, expense *model.Expense) error
	UpdateReceipt(ctx context.Context, id uuid.UUID, url, filename string) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	SumNetByProject(ctx context.Context, orgID, projectID uuid.UUID) (decimal.Decimal, error)
	SummarizeByCategory(ctx context.Context, orgID uuid.UUID, projectID *uuid.UUID) ([]model.CategorySummary, error)
}

type expenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, expense *model.Expense) error {
	return GetDB(ctx, r.db).Create(expense).Error
}

func (r *expenseRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Expense, error) {
	var expense model.Expense
	err := GetDB(ctx, r.db).First(&expense, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("expense")
		}
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) ListByOrg(ctx context.Context, orgID uuid.UUID, projectID *uuid.UUID) ([]model.Expense, error) {
	var expenses []model.Expense
	q := GetDB(ctx, r.db).Where("organization_id = ?", orgID)
	if projectID != nil {
		q = q.Where("project_id = ?", *projectID)
	}
	if err := q.Order("date desc").Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *expenseRepository) Update(ctx context.Context, expense *model.Expense) error {
	return GetDB(ctx, r.db).Save(expense).Error
}

func (r *expenseRepository) UpdateReceipt(ctx context.Context, id uuid.UUID, url, filename string) error {
	return GetDB(ctx, r.db).Model(&model.Expense{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"receipt_url":      url,
			"receipt_filename": filename,
			"updated_at":       time.Now(),
		}).Error
}

func (r *expenseRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Expense{}, "id = ? AND organization_id = ?", id, orgID).Error
}

// SumNetByProject resums net_amount over the full current expense set of the
// project. The rollup deliberately recomputes from scratch rather than
// applying deltas, so a missed event can never leave the total drifted.
func (r *expenseRepository) SumNetByProject(ctx context.Context, orgID, projectID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := GetDB(ctx, r.db).Model(&model.Expense{}).
		Select("COALESCE(SUM(net_amount), 0) as total").
		Where("organization_id = ? AND project_id = ?", orgID, projectID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *expenseRepository) SummarizeByCategory(ctx context.Context, orgID uuid.UUID, projectID *uuid.UUID) ([]model.CategorySummary, error) {
	var rows []model.CategorySummary
	q := GetDB(ctx, r.db).Model(&model.Expense{}).
		Select("category, COALESCE(SUM(amount), 0) as total_amount, COUNT(*) as expense_count").
		Where("organization_id = ?", orgID)
	if projectID != nil {
		q = q.Where("project_id = ?", *projectID)
	}
	if err := q.Group("category").Order("total_amount desc").Scan(&rows).Error; err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.TotalAmount)
	}
	if total.IsPositive() {
		hundred := decimal.NewFromInt(100)
		for i := range rows {
			rows[i].Percentage = rows[i].TotalAmount.Div(total).Mul(hundred).Round(2)
		}
	}
	return rows, nil
}
