package repository

import (
	"context"
	"errors"

	"rendix/internal/apperr"
	"rendix/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberRepository interface {
	Create(ctx context.Context, member *model.OrganizationMember) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.OrganizationMember, error)
	FindByOrgAndUser(ctx context.Context, orgID, userID uuid.UUID) (*model.OrganizationMember, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]model.OrganizationMember, error)
	ListOrgIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Update(ctx context.Context, member *model.OrganizationMember) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *model.OrganizationMember) error {
	return GetDB(ctx, r.db).Create(member).Error
}

func (r *memberRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.OrganizationMember, error) {
	var member model.OrganizationMember
	err := GetDB(ctx, r.db).First(&member, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("member")
		}
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) FindByOrgAndUser(ctx context.Context, orgID, userID uuid.UUID) (*model.OrganizationMember, error) {
	var member model.OrganizationMember
	err := GetDB(ctx, r.db).First(&member, "organization_id = ? AND user_id = ?", orgID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("member")
		}
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]model.OrganizationMember, error) {
	var members []model.OrganizationMember
	err := GetDB(ctx, r.db).Preload("User").
		Where("organization_id = ?", orgID).
		Order("joined_at asc").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *memberRepository) ListOrgIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.OrganizationMember{}).
		Where("user_id = ?", userID).
		Pluck("organization_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *memberRepository) Update(ctx context.Context, member *model.OrganizationMember) error {
	return GetDB(ctx, r.db).Save(member).Error
}

func (r *memberRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return GetDB(ctx, r.db).
		Delete(&model.OrganizationMember{}, "id = ? AND organization_id = ?", id, orgID).Error
}
