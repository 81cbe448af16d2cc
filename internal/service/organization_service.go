package service

import (
	"context"
	"regexp"
	"strings"

	"rendix/internal/apperr"
	"rendix/internal/cache"
	"rendix/internal/model"
	"rendix/internal/repository"
	"rendix/internal/session"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug"`
}

type UpdateOrganizationRequest struct {
	Name     *string            `json:"name"`
	Settings *map[string]string `json:"settings"`
}

// OrganizationWithRole is an organization annotated with the caller's role in it.
type OrganizationWithRole struct {
	model.Organization
	UserRole string `json:"user_role"`
	IsOwner  bool   `json:"is_owner"`
}

type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}

type MemberResponse struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	JoinedAt string    `json:"joined_at"`
}

// --- Interface ---

type OrganizationService interface {
	ListMine(ctx context.Context, userID uuid.UUID) ([]OrganizationWithRole, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateOrganizationRequest) (*model.Organization, error)
	Update(ctx context.Context, sess session.Session, req UpdateOrganizationRequest) (*model.Organization, error)
	Delete(ctx context.Context, sess session.Session) error

	ListMembers(ctx context.Context, sess session.Session) ([]MemberResponse, error)
	AddMemberByEmail(ctx context.Context, sess session.Session, req AddMemberRequest) (*MemberResponse, error)
	UpdateMemberRole(ctx context.Context, sess session.Session, memberID uuid.UUID, role string) (*MemberResponse, error)
	RemoveMember(ctx context.Context, sess session.Session, memberID uuid.UUID) error

	// ResolveRole returns the caller's role inside an organization, or "" when
	// not a member. Used by the middleware to build the request session.
	ResolveRole(ctx context.Context, orgID, userID uuid.UUID) string
}

type organizationService struct {
	orgRepo    repository.OrganizationRepository
	memberRepo repository.MemberRepository
	userRepo   repository.UserRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	roleCache  *cache.MembershipCache
}

func NewOrganizationService(
	orgRepo repository.OrganizationRepository,
	memberRepo repository.MemberRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	roleCache *cache.MembershipCache,
) OrganizationService {
	return &organizationService{
		orgRepo:    orgRepo,
		memberRepo: memberRepo,
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		roleCache:  roleCache,
	}
}

// --- Organizations ---

func (s *organizationService) ListMine(ctx context.Context, userID uuid.UUID) ([]OrganizationWithRole, error) {
	orgIDs, err := s.memberRepo.ListOrgIDsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Dependency("list memberships", err)
	}

	orgs, err := s.orgRepo.ListByIDs(ctx, orgIDs)
	if err != nil {
		return nil, apperr.Dependency("list organizations", err)
	}

	result := make([]OrganizationWithRole, 0, len(orgs))
	for _, org := range orgs {
		role := model.RoleViewer
		if member, memberErr := s.memberRepo.FindByOrgAndUser(ctx, org.ID, userID); memberErr == nil {
			role = member.Role
		}
		result = append(result, OrganizationWithRole{
			Organization: org,
			UserRole:     role,
			IsOwner:      org.OwnerID == userID,
		})
	}
	return result, nil
}

var (
	slugStripPattern = regexp.MustCompile(`[^a-z0-9]+`)
	slugPattern      = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Slugify derives a URL-safe identifier from an organization name.
func Slugify(name string) string {
	slug := slugStripPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

func (s *organizationService) Create(ctx context.Context, userID uuid.UUID, req CreateOrganizationRequest) (*model.Organization, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("name", "is required")
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}
	if !slugPattern.MatchString(slug) {
		return nil, apperr.Validation("slug", "must contain only lowercase letters, digits and hyphens")
	}

	if _, err := s.orgRepo.FindBySlug(ctx, slug); err == nil {
		return nil, apperr.Conflict("an organization with this slug already exists")
	}

	org := &model.Organization{
		Name:     strings.TrimSpace(req.Name),
		Slug:     slug,
		OwnerID:  userID,
		Settings: map[string]string{},
	}

	// The creator becomes the single owner member in the same transaction.
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.orgRepo.Create(txCtx, org); createErr != nil {
			return apperr.Dependency("create organization", createErr)
		}
		member := &model.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         userID,
			Role:           model.RoleOwner,
		}
		if memberErr := s.memberRepo.Create(txCtx, member); memberErr != nil {
			return apperr.Dependency("create owner membership", memberErr)
		}
		sess := session.Session{UserID: userID, OrgID: org.ID, Role: model.RoleOwner}
		return writeAudit(txCtx, s.auditRepo, sess, model.ActionCreateOrganization, org.ID.String(), org.Name, map[string]interface{}{
			"slug": org.Slug,
		})
	})
	if err != nil {
		return nil, err
	}

	return org, nil
}

func (s *organizationService) Update(ctx context.Context, sess session.Session, req UpdateOrganizationRequest) (*model.Organization, error) {
	if !sess.HasOrg() {
		return nil, apperr.NotFound("organization")
	}
	if !model.RoleAtLeast(sess.Role, model.RoleAdmin) {
		return nil, apperr.Authorization("updating an organization requires admin role")
	}

	org, err := s.orgRepo.FindByID(ctx, sess.OrgID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperr.Validation("name", "is required")
		}
		org.Name = strings.TrimSpace(*req.Name)
	}
	if req.Settings != nil {
		org.Settings = *req.Settings
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.orgRepo.Update(txCtx, org); updateErr != nil {
			return apperr.Dependency("update organization", updateErr)
		}
		return writeAudit(txCtx, s.auditRepo, sess, model.ActionUpdateOrganization, org.ID.String(), org.Name, nil)
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (s *organizationService) Delete(ctx context.Context, sess session.Session) error {
	if !sess.HasOrg() {
		return apperr.NotFound("organization")
	}
	if sess.Role != model.RoleOwner {
		return apperr.Authorization("only the owner can delete an organization")
	}

	org, err := s.orgRepo.FindByID(ctx, sess.OrgID)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.orgRepo.Delete(txCtx, org.ID); delErr != nil {
			return apperr.Dependency("delete organization", delErr)
		}
		return nil
	})
}

// --- Members ---

func (s *organizationService) ListMembers(ctx context.Context, sess session.Session) ([]MemberResponse, error) {
	if !sess.HasOrg() {
		return []MemberResponse{}, nil
	}

	members, err := s.memberRepo.ListByOrg(ctx, sess.OrgID)
	if err != nil {
		return nil, apperr.Dependency("list members", err)
	}

	result := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		result = append(result, mapMemberResponse(&m))
	}
	return result, nil
}

func (s *organizationService) AddMemberByEmail(ctx context.Context, sess session.Session, req AddMemberRequest) (*MemberResponse, error) {
	if err := s.requireMemberAdmin(sess); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleMember
	}
	if !model.ValidRole(role) {
		return nil, apperr.Validation("role", "unknown role")
	}
	// The owner role belongs to the creator alone.
	if role == model.RoleOwner {
		return nil, apperr.Validation("role", "owner role cannot be assigned")
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	if _, err := s.memberRepo.FindByOrgAndUser(ctx, sess.OrgID, user.ID); err == nil {
		return nil, apperr.Conflict("user is already a member of this organization")
	}

	member := &model.OrganizationMember{
		OrganizationID: sess.OrgID,
		UserID:         user.ID,
		Role:           role,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.memberRepo.Create(txCtx, member); createErr != nil {
			return apperr.Dependency("add member", createErr)
		}
		return writeAudit(txCtx, s.auditRepo, sess, model.ActionAddMember, member.ID.String(), user.Email, map[string]interface{}{
			"role": role,
		})
	})
	if err != nil {
		return nil, err
	}

	member.User = *user
	resp := mapMemberResponse(member)
	return &resp, nil
}

func (s *organizationService) UpdateMemberRole(ctx context.Context, sess session.Session, memberID uuid.UUID, role string) (*MemberResponse, error) {
	if err := s.requireMemberAdmin(sess); err != nil {
		return nil, err
	}

	if !model.ValidRole(role) {
		return nil, apperr.Validation("role", "unknown role")
	}
	if role == model.RoleOwner {
		return nil, apperr.Validation("role", "owner role cannot be assigned")
	}

	member, err := s.memberRepo.FindByID(ctx, sess.OrgID, memberID)
	if err != nil {
		return nil, err
	}

	// Callers cannot rewrite their own role: privilege changes always come
	// from someone else with admin rights.
	if member.UserID == sess.UserID {
		return nil, apperr.Authorization("cannot change your own role")
	}
	if member.Role == model.RoleOwner {
		return nil, apperr.Authorization("the organization owner cannot be demoted")
	}

	member.Role = role
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.memberRepo.Update(txCtx, member); updateErr != nil {
			return apperr.Dependency("update member role", updateErr)
		}
		return writeAudit(txCtx, s.auditRepo, sess, model.ActionUpdateMemberRole, member.ID.String(), "", map[string]interface{}{
			"user_id": member.UserID.String(),
			"role":    role,
		})
	})
	if err != nil {
		return nil, err
	}

	s.roleCache.Invalidate(ctx, sess.OrgID, member.UserID)
	resp := mapMemberResponse(member)
	return &resp, nil
}

func (s *organizationService) RemoveMember(ctx context.Context, sess session.Session, memberID uuid.UUID) error {
	if !sess.HasOrg() {
		return apperr.NotFound("member")
	}

	member, err := s.memberRepo.FindByID(ctx, sess.OrgID, memberID)
	if err != nil {
		return err
	}

	// Anyone may leave an organization; removing someone else requires admin.
	if member.UserID != sess.UserID && !model.RoleAtLeast(sess.Role, model.RoleAdmin) {
		return apperr.Authorization("removing members requires admin role")
	}
	if member.Role == model.RoleOwner {
		return apperr.Authorization("the organization owner cannot be removed")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.memberRepo.Delete(txCtx, sess.OrgID, memberID); delErr != nil {
			return apperr.Dependency("remove member", delErr)
		}
		return writeAudit(txCtx, s.auditRepo, sess, model.ActionRemoveMember, member.ID.String(), "", map[string]interface{}{
			"user_id": member.UserID.String(),
		})
	})
	if err != nil {
		return err
	}

	s.roleCache.Invalidate(ctx, sess.OrgID, member.UserID)
	return nil
}

func (s *organizationService) ResolveRole(ctx context.Context, orgID, userID uuid.UUID) string {
	if role := s.roleCache.GetRole(ctx, orgID, userID); role != "" {
		return role
	}
	member, err := s.memberRepo.FindByOrgAndUser(ctx, orgID, userID)
	if err != nil {
		return ""
	}
	s.roleCache.SetRole(ctx, orgID, userID, member.Role)
	return member.Role
}

// --- Helpers ---

func (s *organizationService) requireMemberAdmin(sess session.Session) error {
	if !sess.HasOrg() {
		return apperr.Validation("organization_id", "no active organization selected")
	}
	if !model.RoleAtLeast(sess.Role, model.RoleAdmin) {
		return apperr.Authorization("member management requires admin role")
	}
	return nil
}

func mapMemberResponse(m *model.OrganizationMember) MemberResponse {
	return MemberResponse{
		ID:       m.ID,
		UserID:   m.UserID,
		Email:    m.User.Email,
		Name:     m.User.Name,
		Role:     m.Role,
		JoinedAt: m.JoinedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
