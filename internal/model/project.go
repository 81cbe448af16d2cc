package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectStatus enum constants
const (
	ProjectInProgress = "in_progress"
	ProjectCompleted  = "completed"
)

// ValidProjectStatus reports whether status is a known project status.
func ValidProjectStatus(status string) bool {
	return status == ProjectInProgress || status == ProjectCompleted
}

// Project is a construction job with contracted revenue and tracked cost.
// RealCost and RealMargin are derived state: they are only ever written by the
// cost recalculation routine, never authored directly.
type Project struct {
	ID             uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_org_custom_id;index" json:"organization_id"`
	Organization   Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`

	// CustomID is the user-chosen human readable identifier, unique within
	// the organization (letters, digits, hyphen, dot).
	CustomID    string `gorm:"type:varchar(50);not null;uniqueIndex:idx_org_custom_id" json:"custom_id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Client      string `gorm:"type:varchar(255);not null" json:"client"`

	// Financials. projected_margin = sale_amount - projected_cost,
	// real_cost = sum of expense net amounts, real_margin = sale_amount - real_cost.
	SaleAmount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"sale_amount"`
	ProjectedCost   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"projected_cost"`
	ProjectedMargin decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"projected_margin"`
	RealCost        decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"real_cost"`
	RealMargin      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"real_margin"`

	StartDate *time.Time `gorm:"type:date" json:"start_date"`
	EndDate   *time.Time `gorm:"type:date" json:"end_date"`

	Status        string `gorm:"type:varchar(20);not null;default:'in_progress';index" json:"status"`
	PurchaseOrder string `gorm:"type:varchar(100)" json:"purchase_order"`
	HES           string `gorm:"type:varchar(100)" json:"hes"` // Hoja de Entrada en Servicio
	SaleInvoice   string `gorm:"type:varchar(100)" json:"sale_invoice"`

	Tags     []string          `gorm:"serializer:json;type:jsonb" json:"tags"`
	Notes    string            `gorm:"type:text" json:"notes"`
	Metadata map[string]string `gorm:"serializer:json;type:jsonb" json:"metadata"`

	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProjectStats is a per-project financial summary row for the projects table view.
type ProjectStats struct {
	ID               uuid.UUID       `json:"id"`
	CustomID         string          `json:"custom_id"`
	Name             string          `json:"name"`
	Client           string          `json:"client"`
	SaleAmount       decimal.Decimal `json:"sale_amount"`
	RealCost         decimal.Decimal `json:"real_cost"`
	RealMargin       decimal.Decimal `json:"real_margin"`
	MarginPercentage decimal.Decimal `json:"margin_percentage"`
	Status           string          `json:"status"`
	ExpenseCount     int64           `json:"expense_count"`
}
