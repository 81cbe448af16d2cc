package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateOrganization = "CREATE_ORGANIZATION"
	ActionUpdateOrganization = "UPDATE_ORGANIZATION"
	ActionDeleteOrganization = "DELETE_ORGANIZATION"
	ActionCreateProject      = "CREATE_PROJECT"
	ActionUpdateProject      = "UPDATE_PROJECT"
	ActionDeleteProject      = "DELETE_PROJECT"
	ActionCreateExpense      = "CREATE_EXPENSE"
	ActionUpdateExpense      = "UPDATE_EXPENSE"
	ActionDeleteExpense      = "DELETE_EXPENSE"
	ActionAddMember          = "ADD_MEMBER"
	ActionUpdateMemberRole   = "UPDATE_MEMBER_ROLE"
	ActionRemoveMember       = "REMOVE_MEMBER"
)

// AuditLog tracks Who, What, and When for critical changes within an organization
type AuditLog struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	UserID         *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User           *User      `gorm:"foreignKey:UserID" json:"user"`
	Action         string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID       string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName     string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details        string     `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the change
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
}
