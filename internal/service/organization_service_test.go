package service

import (
	"context"
	"testing"

	"rendix/internal/apperr"
	"rendix/internal/model"
	"rendix/internal/session"

	"github.com/google/uuid"
)

type orgFixture struct {
	orgRepo    *fakeOrgRepo
	memberRepo *fakeMemberRepo
	userRepo   *fakeUserRepo
	svc        OrganizationService
	owner      *model.User
	org        *model.Organization
	ownerSess  session.Session
}

func newOrgFixture(t *testing.T) *orgFixture {
	t.Helper()

	orgRepo := newFakeOrgRepo()
	memberRepo := newFakeMemberRepo()
	userRepo := newFakeUserRepo()
	auditRepo := &fakeAuditRepo{}
	svc := NewOrganizationService(orgRepo, memberRepo, userRepo, auditRepo, fakeTx{}, nil)

	owner := &model.User{Email: "owner@example.com", Name: "Owner"}
	if err := userRepo.Create(context.Background(), owner); err != nil {
		t.Fatalf("creating owner user: %v", err)
	}

	org, err := svc.Create(context.Background(), owner.ID, CreateOrganizationRequest{Name: "Constructora Demo"})
	if err != nil {
		t.Fatalf("creating fixture organization: %v", err)
	}

	return &orgFixture{
		orgRepo:    orgRepo,
		memberRepo: memberRepo,
		userRepo:   userRepo,
		svc:        svc,
		owner:      owner,
		org:        org,
		ownerSess:  session.Session{UserID: owner.ID, Email: owner.Email, OrgID: org.ID, Role: model.RoleOwner},
	}
}

func (f *orgFixture) addUser(t *testing.T, email, role string) (*model.User, *MemberResponse) {
	t.Helper()
	user := &model.User{Email: email, Name: email}
	if err := f.userRepo.Create(context.Background(), user); err != nil {
		t.Fatalf("creating user %s: %v", email, err)
	}
	member, err := f.svc.AddMemberByEmail(context.Background(), f.ownerSess, AddMemberRequest{Email: email, Role: role})
	if err != nil {
		t.Fatalf("adding member %s: %v", email, err)
	}
	return user, member
}

func TestCreateOrganizationMakesCreatorOwner(t *testing.T) {
	f := newOrgFixture(t)

	if f.org.Slug != "constructora-demo" {
		t.Errorf("Slug = %q, want constructora-demo", f.org.Slug)
	}
	if f.org.OwnerID != f.owner.ID {
		t.Errorf("OwnerID = %s, want %s", f.org.OwnerID, f.owner.ID)
	}

	member, err := f.memberRepo.FindByOrgAndUser(context.Background(), f.org.ID, f.owner.ID)
	if err != nil {
		t.Fatalf("owner membership not created: %v", err)
	}
	if member.Role != model.RoleOwner {
		t.Errorf("owner membership role = %q, want owner", member.Role)
	}
}

func TestOrganizationSlugConflict(t *testing.T) {
	f := newOrgFixture(t)

	if _, err := f.svc.Create(context.Background(), uuid.New(), CreateOrganizationRequest{Name: "Constructora Demo"}); !apperr.IsConflict(err) {
		t.Errorf("duplicate slug error = %v, want conflict", err)
	}
	if _, err := f.svc.Create(context.Background(), uuid.New(), CreateOrganizationRequest{Name: "Otra", Slug: "Bad Slug!"}); !apperr.IsValidation(err) {
		t.Errorf("invalid slug error = %v, want validation error", err)
	}
}

func TestAddMemberRules(t *testing.T) {
	f := newOrgFixture(t)

	user, member := f.addUser(t, "worker@example.com", "")
	if member.Role != model.RoleMember {
		t.Errorf("default role = %q, want member", member.Role)
	}

	// Already a member.
	if _, err := f.svc.AddMemberByEmail(context.Background(), f.ownerSess, AddMemberRequest{Email: user.Email}); !apperr.IsConflict(err) {
		t.Errorf("duplicate member error = %v, want conflict", err)
	}

	// Owner role is never assignable.
	other := &model.User{Email: "other@example.com"}
	if err := f.userRepo.Create(context.Background(), other); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	if _, err := f.svc.AddMemberByEmail(context.Background(), f.ownerSess, AddMemberRequest{Email: other.Email, Role: model.RoleOwner}); !apperr.IsValidation(err) {
		t.Errorf("owner role assignment error = %v, want validation error", err)
	}

	// Unknown account.
	if _, err := f.svc.AddMemberByEmail(context.Background(), f.ownerSess, AddMemberRequest{Email: "nobody@example.com"}); !apperr.IsNotFound(err) {
		t.Errorf("unknown email error = %v, want not found", err)
	}

	// Member-level callers cannot manage the roster.
	memberSess := session.Session{UserID: user.ID, OrgID: f.org.ID, Role: model.RoleMember}
	if _, err := f.svc.AddMemberByEmail(context.Background(), memberSess, AddMemberRequest{Email: other.Email}); !apperr.IsAuthorization(err) {
		t.Errorf("member adding member error = %v, want authorization error", err)
	}
}

func TestUpdateMemberRoleRules(t *testing.T) {
	f := newOrgFixture(t)

	adminUser, adminMember := f.addUser(t, "admin@example.com", model.RoleAdmin)
	_, workerMember := f.addUser(t, "worker@example.com", model.RoleMember)
	adminSess := session.Session{UserID: adminUser.ID, OrgID: f.org.ID, Role: model.RoleAdmin}

	// Promoting someone else works.
	updated, err := f.svc.UpdateMemberRole(context.Background(), adminSess, workerMember.ID, model.RoleAdmin)
	if err != nil {
		t.Fatalf("UpdateMemberRole returned error: %v", err)
	}
	if updated.Role != model.RoleAdmin {
		t.Errorf("updated role = %q, want admin", updated.Role)
	}

	// Nobody rewrites their own role.
	if _, err := f.svc.UpdateMemberRole(context.Background(), adminSess, adminMember.ID, model.RoleMember); !apperr.IsAuthorization(err) {
		t.Errorf("self role change error = %v, want authorization error", err)
	}

	// The owner cannot be demoted.
	ownerMember, err := f.memberRepo.FindByOrgAndUser(context.Background(), f.org.ID, f.owner.ID)
	if err != nil {
		t.Fatalf("finding owner membership: %v", err)
	}
	if _, err := f.svc.UpdateMemberRole(context.Background(), adminSess, ownerMember.ID, model.RoleMember); !apperr.IsAuthorization(err) {
		t.Errorf("owner demotion error = %v, want authorization error", err)
	}

	// The owner role itself is never assignable.
	if _, err := f.svc.UpdateMemberRole(context.Background(), adminSess, workerMember.ID, model.RoleOwner); !apperr.IsValidation(err) {
		t.Errorf("owner role grant error = %v, want validation error", err)
	}
}

func TestRemoveMemberRules(t *testing.T) {
	f := newOrgFixture(t)

	workerUser, workerMember := f.addUser(t, "worker@example.com", model.RoleMember)
	otherUser, otherMember := f.addUser(t, "other@example.com", model.RoleMember)

	// A member cannot remove someone else.
	workerSess := session.Session{UserID: workerUser.ID, OrgID: f.org.ID, Role: model.RoleMember}
	if err := f.svc.RemoveMember(context.Background(), workerSess, otherMember.ID); !apperr.IsAuthorization(err) {
		t.Errorf("member removing peer error = %v, want authorization error", err)
	}

	// But anyone may leave.
	if err := f.svc.RemoveMember(context.Background(), workerSess, workerMember.ID); err != nil {
		t.Errorf("self-leave returned error: %v", err)
	}

	// The owner cannot be removed, not even by themselves.
	ownerMember, err := f.memberRepo.FindByOrgAndUser(context.Background(), f.org.ID, f.owner.ID)
	if err != nil {
		t.Fatalf("finding owner membership: %v", err)
	}
	if err := f.svc.RemoveMember(context.Background(), f.ownerSess, ownerMember.ID); !apperr.IsAuthorization(err) {
		t.Errorf("owner removal error = %v, want authorization error", err)
	}

	// Admin removal of another member works.
	if err := f.svc.RemoveMember(context.Background(), f.ownerSess, otherMember.ID); err != nil {
		t.Errorf("owner removing member returned error: %v", err)
	}
	_ = otherUser
}

func TestDeleteOrganizationOwnerOnly(t *testing.T) {
	f := newOrgFixture(t)

	adminUser, _ := f.addUser(t, "admin@example.com", model.RoleAdmin)
	adminSess := session.Session{UserID: adminUser.ID, OrgID: f.org.ID, Role: model.RoleAdmin}

	if err := f.svc.Delete(context.Background(), adminSess); !apperr.IsAuthorization(err) {
		t.Errorf("admin delete error = %v, want authorization error", err)
	}
	if err := f.svc.Delete(context.Background(), f.ownerSess); err != nil {
		t.Errorf("owner delete returned error: %v", err)
	}
}

func TestResolveRole(t *testing.T) {
	f := newOrgFixture(t)

	if role := f.svc.ResolveRole(context.Background(), f.org.ID, f.owner.ID); role != model.RoleOwner {
		t.Errorf("ResolveRole(owner) = %q, want owner", role)
	}
	if role := f.svc.ResolveRole(context.Background(), f.org.ID, uuid.New()); role != "" {
		t.Errorf("ResolveRole(stranger) = %q, want empty", role)
	}
}

func TestListMineReportsRoles(t *testing.T) {
	f := newOrgFixture(t)

	workerUser, _ := f.addUser(t, "worker@example.com", model.RoleMember)

	orgs, err := f.svc.ListMine(context.Background(), workerUser.ID)
	if err != nil {
		t.Fatalf("ListMine returned error: %v", err)
	}
	if len(orgs) != 1 {
		t.Fatalf("ListMine returned %d organizations, want 1", len(orgs))
	}
	if orgs[0].UserRole != model.RoleMember || orgs[0].IsOwner {
		t.Errorf("worker annotation = {role: %q, isOwner: %v}, want {member, false}", orgs[0].UserRole, orgs[0].IsOwner)
	}

	orgs, err = f.svc.ListMine(context.Background(), f.owner.ID)
	if err != nil {
		t.Fatalf("ListMine returned error: %v", err)
	}
	if len(orgs) != 1 || !orgs[0].IsOwner {
		t.Errorf("owner annotation missing: %+v", orgs)
	}
}
