package service

import (
	"context"
	"io"
	"sync"

	"rendix/internal/apperr"
	"rendix/internal/model"
	"rendix/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory repository fakes. They mirror the Postgres repositories closely
// enough for service tests: org scoping, not-found mapping and ID assignment
// on insert behave the same way.

type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- projects ---

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[uuid.UUID]model.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: map[uuid.UUID]model.Project{}}
}

func (r *fakeProjectRepo) Create(ctx context.Context, project *model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	r.projects[project.ID] = *project
	return nil
}

func (r *fakeProjectRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok || p.OrganizationID != orgID {
		return nil, apperr.NotFound("project")
	}
	copied := p
	return &copied, nil
}

func (r *fakeProjectRepo) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Project
	for _, p := range r.projects {
		if p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) ExistsCustomID(ctx context.Context, orgID uuid.UUID, customID string, excludeID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.projects {
		if p.OrganizationID == orgID && p.CustomID == customID && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProjectRepo) Update(ctx context.Context, project *model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[project.ID] = *project
	return nil
}

func (r *fakeProjectRepo) UpdateAggregates(ctx context.Context, orgID, id uuid.UUID, realCost, realMargin decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok || p.OrganizationID != orgID {
		return apperr.NotFound("project")
	}
	p.RealCost = realCost
	p.RealMargin = realMargin
	r.projects[id] = p
	return nil
}

func (r *fakeProjectRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if ok && p.OrganizationID == orgID {
		delete(r.projects, id)
	}
	return nil
}

func (r *fakeProjectRepo) Stats(ctx context.Context, orgID uuid.UUID) ([]model.ProjectStats, error) {
	return []model.ProjectStats{}, nil
}

// --- expenses ---

type fakeExpenseRepo struct {
	mu       sync.Mutex
	expenses map[uuid.UUID]model.Expense
}

func newFakeExpenseRepo() *fakeExpenseRepo {
	return &fakeExpenseRepo{expenses: map[uuid.UUID]model.Expense{}}
}

func (r *fakeExpenseRepo) Create(ctx context.Context, expense *model.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	r.expenses[expense.ID] = *expense
	return nil
}

func (r *fakeExpenseRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.expenses[id]
	if !ok || e.OrganizationID != orgID {
		return nil, apperr.NotFound("expense")
	}
	copied := e
	return &copied, nil
}

func (r *fakeExpenseRepo) ListByOrg(ctx context.Context, orgID uuid.UUID, projectID *uuid.UUID) ([]model.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Expense{}
	for _, e := range r.expenses {
		if e.OrganizationID != orgID {
			continue
		}
		if projectID != nil && e.ProjectID != *projectID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeExpenseRepo) Update(ctx context.Context, expense *model.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expenses[expense.ID] = *expense
	return nil
}

func (r *fakeExpenseRepo) UpdateReceipt(ctx context.Context, id uuid.UUID, url, filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.expenses[id]
	if !ok {
		return apperr.NotFound("expense")
	}
	e.ReceiptURL = url
	e.ReceiptFilename = filename
	r.expenses[id] = e
	return nil
}

func (r *fakeExpenseRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.expenses[id]
	if ok && e.OrganizationID == orgID {
		delete(r.expenses, id)
	}
	return nil
}

func (r *fakeExpenseRepo) SumNetByProject(ctx context.Context, orgID, projectID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, e := range r.expenses {
		if e.OrganizationID == orgID && e.ProjectID == projectID {
			sum = sum.Add(e.NetAmount)
		}
	}
	return sum, nil
}

func (r *fakeExpenseRepo) SummarizeByCategory(ctx context.Context, orgID uuid.UUID, projectID *uuid.UUID) ([]model.CategorySummary, error) {
	return []model.CategorySummary{}, nil
}

// --- audit ---

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) ListByOrg(ctx context.Context, orgID uuid.UUID, page, limit int) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.AuditLog{}
	for _, e := range r.entries {
		if e.OrganizationID == orgID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// --- receipts ---

type fakeReceiptStore struct {
	saveErr error
	saved   []string
	deleted []string
}

func (s *fakeReceiptStore) Save(projectID, expenseID uuid.UUID, filename string, src io.Reader) (*storage.StoredReceipt, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	path := "receipts/" + projectID.String() + "/" + expenseID.String() + ".pdf"
	s.saved = append(s.saved, path)
	return &storage.StoredReceipt{Path: path, URL: "/files/" + path, Filename: filename}, nil
}

func (s *fakeReceiptStore) Delete(storagePath string) error {
	s.deleted = append(s.deleted, storagePath)
	return nil
}

// --- users ---

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uuid.UUID]model.User
	tokens map[string]model.RefreshToken
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]model.User{}, tokens: map[string]model.RefreshToken{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	copied := u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := u
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (r *fakeUserRepo) StoreRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Token] = *token
	return nil
}

func (r *fakeUserRepo) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, apperr.NotFound("refresh token")
	}
	copied := t
	return &copied, nil
}

func (r *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

// --- organizations ---

type fakeOrgRepo struct {
	mu   sync.Mutex
	orgs map[uuid.UUID]model.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: map[uuid.UUID]model.Organization{}}
}

func (r *fakeOrgRepo) Create(ctx context.Context, org *model.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	r.orgs[org.ID] = *org
	return nil
}

func (r *fakeOrgRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orgs[id]
	if !ok {
		return nil, apperr.NotFound("organization")
	}
	copied := o
	return &copied, nil
}

func (r *fakeOrgRepo) FindBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orgs {
		if o.Slug == slug {
			copied := o
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("organization")
}

func (r *fakeOrgRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Organization{}
	for _, id := range ids {
		if o, ok := r.orgs[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrgRepo) Update(ctx context.Context, org *model.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orgs[org.ID] = *org
	return nil
}

func (r *fakeOrgRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orgs, id)
	return nil
}

// --- members ---

type fakeMemberRepo struct {
	mu      sync.Mutex
	members map[uuid.UUID]model.OrganizationMember
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: map[uuid.UUID]model.OrganizationMember{}}
}

func (r *fakeMemberRepo) Create(ctx context.Context, member *model.OrganizationMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	r.members[member.ID] = *member
	return nil
}

func (r *fakeMemberRepo) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.OrganizationMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok || m.OrganizationID != orgID {
		return nil, apperr.NotFound("member")
	}
	copied := m
	return &copied, nil
}

func (r *fakeMemberRepo) FindByOrgAndUser(ctx context.Context, orgID, userID uuid.UUID) (*model.OrganizationMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.OrganizationID == orgID && m.UserID == userID {
			copied := m
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("member")
}

func (r *fakeMemberRepo) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]model.OrganizationMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.OrganizationMember{}
	for _, m := range r.members {
		if m.OrganizationID == orgID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMemberRepo) ListOrgIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []uuid.UUID{}
	for _, m := range r.members {
		if m.UserID == userID {
			out = append(out, m.OrganizationID)
		}
	}
	return out, nil
}

func (r *fakeMemberRepo) Update(ctx context.Context, member *model.OrganizationMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[member.ID] = *member
	return nil
}

func (r *fakeMemberRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if ok && m.OrganizationID == orgID {
		delete(r.members, id)
	}
	return nil
}
