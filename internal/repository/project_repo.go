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

// ProjectRepository is the organization-scoped access path to project rows.
// Every lookup carries the caller's organization id; a row from another
// tenant is indistinguishable from a missing row.
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Project, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]model.Project, error)
	ExistsCustomID(ctx context.Context, orgID uuid.UUID, customID string, excludeID uuid.UUID) (bool, error)
	Update(ctx context.Context, project *model.Project) error
	UpdateAggregates(ctx context.Context, orgID, id uuid.UUID, realCost, realMargin decimal.Decimal) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	Stats(ctx context.Context, orgID uuid.UUID) ([]model.ProjectStats, error)
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	return GetDB(ctx, r.db).Create(project).Error
}

func (r *projectRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := GetDB(ctx, r.db).First(&project, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project")
		}
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]model.Project, error) {
	var projects []model.Project
	err := GetDB(ctx, r.db).
		Where("organization_id = ?", orgID).
		Order("created_at desc").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *projectRepository) ExistsCustomID(ctx context.Context, orgID uuid.UUID, customID string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := GetDB(ctx, r.db).Model(&model.Project{}).
		Where("organization_id = ? AND custom_id = ?", orgID, customID)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) error {
	return GetDB(ctx, r.db).Save(project).Error
}

// UpdateAggregates writes the derived cost fields. Only the recalculation
// routine may call this; nothing else writes real_cost/real_margin.
func (r *projectRepository) UpdateAggregates(ctx context.Context, orgID, id uuid.UUID, realCost, realMargin decimal.Decimal) error {
	res := GetDB(ctx, r.db).Model(&model.Project{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Updates(map[string]interface{}{
			"real_cost":   realCost,
			"real_margin": realMargin,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("project")
	}
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Project{}, "id = ? AND organization_id = ?", id, orgID).Error
}

func (r *projectRepository) Stats(ctx context.Context, orgID uuid.UUID) ([]model.ProjectStats, error) {
	var stats []model.ProjectStats
	err := GetDB(ctx, r.db).Table("projects").
		Select(`projects.id, projects.custom_id, projects.name, projects.client,
			projects.sale_amount, projects.real_cost, projects.real_margin, projects.status,
			COUNT(expenses.id) as expense_count`).
		Joins("LEFT JOIN expenses ON expenses.project_id = projects.id").
		Where("projects.organization_id = ?", orgID).
		Group("projects.id").
		Order("projects.created_at desc").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	for i := range stats {
		if stats[i].SaleAmount.IsPositive() {
			stats[i].MarginPercentage = stats[i].RealMargin.
				Div(stats[i].SaleAmount).
				Mul(decimal.NewFromInt(100)).
				Round(2)
		}
	}
	return stats, nil
}
