package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseStatus enum constants
const (
	ExpenseProvision = "provision"
	ExpensePaid      = "paid"
	ExpenseCredit    = "credit"
	ExpenseAdvance   = "advance"
)

// DocumentType enum constants (Chilean tax documents)
const (
	DocTypeBoleta  = "boleta"
	DocTypeFactura = "factura"
)

// ExpenseCategories is the enumerated category domain.
var ExpenseCategories = []string{
	"materials", "labor", "equipment", "transport", "services", "permits",
	"utilities", "insurance", "supplies", "subcontractors", "tools", "safety",
	"administration", "food", "accommodation", "fuel", "other", "general",
}

// ValidCategory reports whether category is in the enumerated category set.
func ValidCategory(category string) bool {
	for _, c := range ExpenseCategories {
		if c == category {
			return true
		}
	}
	return false
}

// ValidExpenseStatus reports whether status is a known expense status.
func ValidExpenseStatus(status string) bool {
	switch status {
	case ExpenseProvision, ExpensePaid, ExpenseCredit, ExpenseAdvance:
		return true
	}
	return false
}

// ValidDocumentType reports whether dt is a known document type.
func ValidDocumentType(dt string) bool {
	return dt == DocTypeBoleta || dt == DocTypeFactura
}

// Expense is a cost line item against a project, decomposed into net amount
// and 19% IVA. Amount must always equal NetAmount + TaxAmount.
type Expense struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	ProjectID      uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Project        Project   `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`

	Description string          `gorm:"type:text;not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	NetAmount   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"net_amount"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"tax_amount"`
	Category    string          `gorm:"type:varchar(30);not null;index" json:"category"`
	Date        time.Time       `gorm:"type:date;not null;index" json:"date"`

	Status       string `gorm:"type:varchar(20);not null;default:'provision'" json:"status"`
	DocumentType string `gorm:"type:varchar(20);not null" json:"document_type"`

	DocumentNumber  string `gorm:"type:varchar(100)" json:"document_number"`
	Supplier        string `gorm:"type:varchar(255)" json:"supplier"`
	Notes           string `gorm:"type:text" json:"notes"`
	ReceiptURL      string `gorm:"type:text" json:"receipt_url"`
	ReceiptFilename string `gorm:"type:varchar(255)" json:"receipt_filename"`

	Tags     []string          `gorm:"serializer:json;type:jsonb" json:"tags"`
	Metadata map[string]string `gorm:"serializer:json;type:jsonb" json:"metadata"`

	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CategorySummary aggregates spend for one category.
type CategorySummary struct {
	Category     string          `json:"category"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ExpenseCount int64           `json:"expense_count"`
	Percentage   decimal.Decimal `json:"percentage"`
}
