package model

import (
	"time"

	"github.com/google/uuid"
)

// OrganizationRole enum constants. Exactly one owner exists per organization.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// ValidRole reports whether role is one of the organization role constants.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

var roleRank = map[string]int{RoleViewer: 0, RoleMember: 1, RoleAdmin: 2, RoleOwner: 3}

// RoleAtLeast reports whether role grants at least the privileges of min.
// Ordering: viewer < member < admin < owner.
func RoleAtLeast(role, min string) bool {
	r, ok := roleRank[role]
	m, ok2 := roleRank[min]
	return ok && ok2 && r >= m
}

// Organization is the tenant boundary. Every project and expense belongs to
// exactly one organization and queries never cross it.
type Organization struct {
	ID        uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string            `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string            `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	OwnerID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"owner_id"`
	Settings  map[string]string `gorm:"serializer:json;type:jsonb" json:"settings"`
	CreatedAt time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// OrganizationMember binds a user to an organization with a role.
type OrganizationMember struct {
	ID             uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_org_user;index" json:"organization_id"`
	Organization   Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
	UserID         uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_org_user" json:"user_id"`
	User           User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Role           string       `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	JoinedAt       time.Time    `gorm:"autoCreateTime" json:"joined_at"`
}
