package model

import "github.com/shopspring/decimal"

// MonthlyExpense is one bucket of the monthly spend trend chart.
type MonthlyExpense struct {
	Month       string          `json:"month"` // YYYY-MM
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// DashboardStats is the aggregated view behind the landing dashboard.
type DashboardStats struct {
	TotalProjects     int64            `json:"total_projects"`
	ActiveProjects    int64            `json:"active_projects"`
	CompletedProjects int64            `json:"completed_projects"`
	TotalSales        decimal.Decimal  `json:"total_sales"`
	TotalCosts        decimal.Decimal  `json:"total_costs"`
	TotalMargin       decimal.Decimal  `json:"total_margin"`
	MarginPercentage  decimal.Decimal  `json:"margin_percentage"`
	RecentExpenses    []Expense        `json:"recent_expenses"`
	MonthlyExpenses   []MonthlyExpense `json:"monthly_expenses"`
}
