package repository

import (
	"context"

	"applicant-review-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *model.Profile) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	Update(ctx context.Context, profile *model.Profile) error
	SetVisible(ctx context.Context, id uuid.UUID, visible bool) error
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	return GetDB(ctx, r.db).Create(profile).Error
}

func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var profile model.Profile
	if err := GetDB(ctx, r.db).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *model.Profile) error {
	return GetDB(ctx, r.db).Save(profile).Error
}

func (r *profileRepository) SetVisible(ctx context.Context, id uuid.UUID, visible bool) error {
	return GetDB(ctx, r.db).Model(&model.Profile{}).
		Where("id = ?", id).
		Update("visible", visible).Error
}

func (r *profileRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("account_id = ?", accountID).Delete(&model.Profile{}).Error
}
