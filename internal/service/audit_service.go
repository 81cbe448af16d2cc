package service

import (
	"context"
	"encoding/json"

	"rendix/internal/apperr"
	"rendix/internal/model"
	"rendix/internal/repository"
	"rendix/internal/session"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	UserEmail  string `json:"user_email"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, sess session.Session, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

// GetAuditLogs retrieves the organization's mutation history, admin and up.
func (s *auditService) GetAuditLogs(ctx context.Context, sess session.Session, page, limit int) ([]AuditLogResponse, int64, error) {
	if !sess.HasOrg() {
		return []AuditLogResponse{}, 0, nil
	}
	if !model.RoleAtLeast(sess.Role, model.RoleAdmin) {
		return nil, 0, apperr.Authorization("audit logs require admin role")
	}

	logs, total, err := s.auditRepo.ListByOrg(ctx, sess.OrgID, page, limit)
	if err != nil {
		return nil, 0, apperr.Dependency("list audit logs", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		email := "system"
		userID := ""
		if l.User != nil {
			email = l.User.Email
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			UserEmail:  email,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}

// writeAudit records a mutation inside the caller's transaction context.
func writeAudit(ctx context.Context, repo repository.AuditRepository, sess session.Session, action, entityID, entityName string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	userID := sess.UserID
	entry := &model.AuditLog{
		OrganizationID: sess.OrgID,
		UserID:         &userID,
		Action:         action,
		EntityID:       entityID,
		EntityName:     entityName,
		Details:        string(payload),
	}
	if err := repo.Log(ctx, entry); err != nil {
		return apperr.Dependency("write audit log", err)
	}
	return nil
}
