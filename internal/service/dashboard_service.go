package service

import (
	"context"

	"rendix/internal/apperr"
	"rendix/internal/model"
	"rendix/internal/session"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardService interface {
	GetStats(ctx context.Context, sess session.Session) (model.DashboardStats, error)
}

type dashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) DashboardService {
	return &dashboardService{db: db}
}

// GetStats aggregates the organization's financial position: project counts,
// contracted revenue against real costs, recent activity and the monthly
// spend trend for the last 12 months.
func (s *dashboardService) GetStats(ctx context.Context, sess session.Session) (model.DashboardStats, error) {
	var stats model.DashboardStats
	if !sess.HasOrg() {
		stats.RecentExpenses = []model.Expense{}
		stats.MonthlyExpenses = []model.MonthlyExpense{}
		return stats, nil
	}

	var totals struct {
		TotalProjects     int64
		ActiveProjects    int64
		CompletedProjects int64
		TotalSales        decimal.Decimal
		TotalCosts        decimal.Decimal
		TotalMargin       decimal.Decimal
	}
	err := s.db.WithContext(ctx).Model(&model.Project{}).
		Select(`COUNT(*) as total_projects,
			COUNT(*) FILTER (WHERE status = 'in_progress') as active_projects,
			COUNT(*) FILTER (WHERE status = 'completed') as completed_projects,
			COALESCE(SUM(sale_amount), 0) as total_sales,
			COALESCE(SUM(real_cost), 0) as total_costs,
			COALESCE(SUM(real_margin), 0) as total_margin`).
		Where("organization_id = ?", sess.OrgID).
		Scan(&totals).Error
	if err != nil {
		return stats, apperr.Dependency("aggregate projects", err)
	}

	stats.TotalProjects = totals.TotalProjects
	stats.ActiveProjects = totals.ActiveProjects
	stats.CompletedProjects = totals.CompletedProjects
	stats.TotalSales = totals.TotalSales
	stats.TotalCosts = totals.TotalCosts
	stats.TotalMargin = totals.TotalMargin
	if totals.TotalSales.IsPositive() {
		stats.MarginPercentage = totals.TotalMargin.
			Div(totals.TotalSales).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	var recent []model.Expense
	err = s.db.WithContext(ctx).
		Where("organization_id = ?", sess.OrgID).
		Order("created_at desc").
		Limit(10).
		Find(&recent).Error
	if err != nil {
		return stats, apperr.Dependency("recent expenses", err)
	}
	stats.RecentExpenses = recent

	var monthly []model.MonthlyExpense
	err = s.db.WithContext(ctx).Model(&model.Expense{}).
		Select("to_char(date_trunc('month', date), 'YYYY-MM') as month, COALESCE(SUM(amount), 0) as total_amount").
		Where("organization_id = ? AND date >= date_trunc('month', now()) - interval '11 months'", sess.OrgID).
		Group("month").
		Order("month asc").
		Scan(&monthly).Error
	if err != nil {
		return stats, apperr.Dependency("monthly expenses", err)
	}
	stats.MonthlyExpenses = monthly

	return stats, nil
}
